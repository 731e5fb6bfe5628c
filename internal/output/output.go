package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "json" or "" (auto).
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), true
	}
	return "", false
}

// DefaultFormat is YAML for a terminal and JSON for pipes and files.
func DefaultFormat(f *os.File) Format {
	if f != nil && term.IsTerminal(int(f.Fd())) {
		return FormatYAML
	}
	return FormatJSON
}

// CommandResult is what `deskctl run` prints for a finished command.
type CommandResult struct {
	Command string `yaml:"command"          json:"command"`
	Value   int64  `yaml:"value"            json:"value"`
	Result  any    `yaml:"result,omitempty" json:"result,omitempty"`
	// Pending is set when the caller did not wait for completion.
	Pending bool `yaml:"pending,omitempty" json:"pending,omitempty"`
}

// ErrorResult is printed in place of a CommandResult on failure.
type ErrorResult struct {
	Error string `yaml:"error"          json:"error"`
	Kind  string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// Printer serializes values in one format.
type Printer struct {
	Format Format
	Pretty bool
	W      io.Writer
}

// Stdout returns a Printer on stdout using format, or the TTY-dependent
// default when format is empty.
func Stdout(format Format, pretty bool) *Printer {
	if format == "" {
		format = DefaultFormat(os.Stdout)
	}
	return &Printer{Format: format, Pretty: pretty, W: os.Stdout}
}

// Print serializes v in the printer's format.
func (p *Printer) Print(v interface{}) error {
	switch p.Format {
	case FormatJSON:
		enc := json.NewEncoder(p.W)
		if p.Pretty {
			enc.SetIndent("", "  ")
		}
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(p.W)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", p.Format)
	}
}
