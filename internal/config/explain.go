package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// optionalKeys are omitempty fields: unset, they are missing from the YAML
// form of Config but can still be explained.
var optionalKeys = map[string]bool{
	"display":         true,
	"xauthority":      true,
	"socket_path":     true,
	"log.file":        true,
	"action_log.file": true,
}

// Explain reports the effective value at a dotted key path (for example
// "wait.poll_interval_ms" or "action_log.include_keys") and which file
// position set it. Keys no file set report a default source.
func Explain(res *LoadResult, path string) (any, Source, error) {
	switch {
	case res == nil || res.Config == nil:
		return nil, Source{}, errors.New("no config loaded")
	case path == "":
		return nil, Source{}, errors.New("path is empty")
	}

	value, err := valueAt(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	src, ok := res.Sources[path]
	if !ok {
		src = Source{Kind: SourceDefault, Name: "defaults"}
	}
	return value, src, nil
}

// valueAt walks the YAML encoding of cfg, so every key a file can set can be
// looked up by the same name.
func valueAt(cfg *Config, path string) (any, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, err
	}

	node := &doc
	for _, key := range strings.Split(path, ".") {
		node = child(node, key)
		if node == nil {
			if optionalKeys[path] {
				return "", nil
			}
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func child(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
