// Package tui provides the interactive command picker used by `deskctl pick`.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/deskctl/internal/automation"
)

// ErrAborted is returned when the user leaves the picker without running
// anything.
var ErrAborted = errors.New("picker aborted")

// Selection is a command and its CLI-form arguments, ready for
// automation.ParseArgs.
type Selection struct {
	Command *automation.Command
	Args    []string
}

// Pick asks for a command, then for each of its arguments.
func Pick(ctx context.Context) (*Selection, error) {
	var name string
	selectForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("command").
				Title("Command").
				Description("Automation command to run").
				Options(commandOptions(automation.Commands())...).
				Height(12).
				Value(&name),
		),
	).WithShowHelp(true)
	if err := run(ctx, selectForm); err != nil {
		return nil, err
	}

	cmd, ok := automation.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	if len(cmd.Params) == 0 {
		return &Selection{Command: cmd}, nil
	}

	values := make([]string, len(cmd.Params))
	fields := make([]huh.Field, 0, len(cmd.Params))
	for i, p := range cmd.Params {
		fields = append(fields, huh.NewInput().
			Key(p.Name).
			Title(fieldTitle(p)).
			Description(fieldHint(p)).
			Validate(fieldValidator(p)).
			Value(&values[i]))
	}
	argsForm := huh.NewForm(huh.NewGroup(fields...).Title(cmd.Name).Description(cmd.Summary)).
		WithShowHelp(true).
		WithShowErrors(true)
	if err := run(ctx, argsForm); err != nil {
		return nil, err
	}

	return &Selection{Command: cmd, Args: RawArgs(values)}, nil
}

func run(ctx context.Context, form *huh.Form) error {
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

func commandOptions(cmds []*automation.Command) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(cmds))
	for _, cmd := range cmds {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%-26s %s", cmd.Name, cmd.Summary), cmd.Name))
	}
	return opts
}

func fieldTitle(p automation.Param) string {
	if p.Required() {
		return p.Name
	}
	return p.Name + " (optional)"
}

func fieldHint(p automation.Param) string {
	switch p.Kind {
	case automation.ParamKeySequence:
		return "e.g. ctrl+alt+t or a b c"
	case automation.ParamButton:
		return "1 left, 2 middle, 3 right"
	case automation.ParamDelay:
		return "microseconds between keystrokes"
	case automation.ParamDisplay:
		return "e.g. :0, blank for the default display"
	case automation.ParamCoord, automation.ParamScreen:
		return "integer"
	default:
		return "window id, decimal or 0x hex"
	}
}

// fieldValidator checks one input. Blank means "no value" and is only
// accepted for optional arguments.
func fieldValidator(p automation.Param) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if p.Required() {
				return fmt.Errorf("%s is required", p.Name)
			}
			return nil
		}
		switch p.Kind {
		case automation.ParamKeySequence, automation.ParamDisplay:
			return nil
		}
		if _, err := strconv.ParseInt(s, 0, 64); err != nil {
			return fmt.Errorf("%s must be an integer", p.Name)
		}
		return nil
	}
}

// RawArgs converts form values to CLI-form arguments: blanks become "-" and
// trailing blanks are dropped.
func RawArgs(values []string) []string {
	out := make([]string, len(values))
	last := -1
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			out[i] = "-"
			continue
		}
		out[i] = v
		last = i
	}
	return out[:last+1]
}
