package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/1broseidon/deskctl/internal/automation"
)

// CommandOutput is the output of every automation tool.
type CommandOutput struct {
	Command string `json:"command" jsonschema:"Automation command that ran"`
	Value   int64  `json:"value" jsonschema:"Raw status, window id, pid, desktop index or monitor count depending on the command"`
	Result  any    `json:"result,omitempty" jsonschema:"Structured query result such as a pointer location, window name or monitor list"`
}

// inputSchema describes cmd's named arguments. Optional arguments accept
// null as "no value".
func inputSchema(cmd *automation.Command) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:                 "object",
		Properties:           make(map[string]*jsonschema.Schema, len(cmd.Params)),
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
	for _, p := range cmd.Params {
		prop := &jsonschema.Schema{Description: paramDescription(p)}
		typ := paramType(p.Kind)
		if p.Required() {
			prop.Type = typ
			schema.Required = append(schema.Required, p.Name)
		} else {
			prop.Types = []string{typ, "null"}
		}
		schema.Properties[p.Name] = prop
	}
	return schema
}

func paramType(kind automation.ParamKind) string {
	switch kind {
	case automation.ParamKeySequence, automation.ParamDisplay:
		return "string"
	default:
		return "integer"
	}
}

func paramDescription(p automation.Param) string {
	switch p.Kind {
	case automation.ParamKeySequence:
		return "Space separated key sequence, e.g. ctrl+alt+t or a b c"
	case automation.ParamButton:
		return "Mouse button number (1 left, 2 middle, 3 right, 4/5 wheel)"
	case automation.ParamCoord:
		return "Pixel coordinate " + p.Name
	case automation.ParamDelay:
		return "Delay between keystrokes in microseconds (default: 0)"
	case automation.ParamScreen:
		return "Screen index (default: the pointer's current screen)"
	case automation.ParamDisplay:
		return "X display name (default: configured display or $DISPLAY)"
	case automation.ParamWindowRequired:
		return "X window id"
	case automation.ParamWindowOptional:
		return "X window id (default: none)"
	default:
		return "X window id (default: the focused window)"
	}
}
