package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawWaitConfig struct {
	PollIntervalMS *int `yaml:"poll_interval_ms"`
	MaxTries       *int `yaml:"max_tries"`
}

type RawLogConfig struct {
	Level      *string `yaml:"level"`
	Format     *string `yaml:"format"`
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
	MaxAgeDays *int    `yaml:"max_age_days"`
	Compress   *bool   `yaml:"compress"`
}

type RawActionLogConfig struct {
	Enabled     *bool   `yaml:"enabled"`
	File        *string `yaml:"file"`
	MaxSizeMB   *int    `yaml:"max_size_mb"`
	MaxFiles    *int    `yaml:"max_files"`
	IncludeKeys *bool   `yaml:"include_keys"`
}

// RawConfig is one YAML document as written. Nil fields were not set.
type RawConfig struct {
	Include      IncludeList         `yaml:"include"`
	Display      *string             `yaml:"display"`
	XAuthority   *string             `yaml:"xauthority"`
	StrictStatus *bool               `yaml:"strict_status"`
	Wait         *RawWaitConfig      `yaml:"wait"`
	SocketPath   *string             `yaml:"socket_path"`
	Log          *RawLogConfig       `yaml:"log"`
	ActionLog    *RawActionLogConfig `yaml:"action_log"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.StrictStatus != nil {
		out.StrictStatus = overlay.StrictStatus
	}
	if overlay.SocketPath != nil {
		out.SocketPath = overlay.SocketPath
	}
	if overlay.Wait != nil {
		if out.Wait == nil {
			out.Wait = &RawWaitConfig{}
		}
		merged := mergeRawWait(*out.Wait, *overlay.Wait)
		out.Wait = &merged
	}
	if overlay.Log != nil {
		if out.Log == nil {
			out.Log = &RawLogConfig{}
		}
		merged := mergeRawLog(*out.Log, *overlay.Log)
		out.Log = &merged
	}
	if overlay.ActionLog != nil {
		if out.ActionLog == nil {
			out.ActionLog = &RawActionLogConfig{}
		}
		merged := mergeRawActionLog(*out.ActionLog, *overlay.ActionLog)
		out.ActionLog = &merged
	}
	return out
}

func mergeRawWait(base RawWaitConfig, overlay RawWaitConfig) RawWaitConfig {
	out := base
	if overlay.PollIntervalMS != nil {
		out.PollIntervalMS = overlay.PollIntervalMS
	}
	if overlay.MaxTries != nil {
		out.MaxTries = overlay.MaxTries
	}
	return out
}

func mergeRawLog(base RawLogConfig, overlay RawLogConfig) RawLogConfig {
	out := base
	if overlay.Level != nil {
		out.Level = overlay.Level
	}
	if overlay.Format != nil {
		out.Format = overlay.Format
	}
	if overlay.File != nil {
		out.File = overlay.File
	}
	if overlay.MaxSizeMB != nil {
		out.MaxSizeMB = overlay.MaxSizeMB
	}
	if overlay.MaxBackups != nil {
		out.MaxBackups = overlay.MaxBackups
	}
	if overlay.MaxAgeDays != nil {
		out.MaxAgeDays = overlay.MaxAgeDays
	}
	if overlay.Compress != nil {
		out.Compress = overlay.Compress
	}
	return out
}

func mergeRawActionLog(base RawActionLogConfig, overlay RawActionLogConfig) RawActionLogConfig {
	out := base
	if overlay.Enabled != nil {
		out.Enabled = overlay.Enabled
	}
	if overlay.File != nil {
		out.File = overlay.File
	}
	if overlay.MaxSizeMB != nil {
		out.MaxSizeMB = overlay.MaxSizeMB
	}
	if overlay.MaxFiles != nil {
		out.MaxFiles = overlay.MaxFiles
	}
	if overlay.IncludeKeys != nil {
		out.IncludeKeys = overlay.IncludeKeys
	}
	return out
}
