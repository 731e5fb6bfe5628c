package automation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/deskctl/internal/platform"
)

// Args are positional call arguments as a host supplies them. An index past
// the end is absent; a nil element is an explicit "no value". Either way the
// normalizer applies the parameter's default.
type Args []any

func (a Args) at(i int) (any, bool) {
	if i >= len(a) || a[i] == nil {
		return nil, false
	}
	return a[i], true
}

// ParamKind says how one positional argument is validated and defaulted.
type ParamKind int

const (
	ParamKeySequence ParamKind = iota
	ParamButton
	ParamCoord
	ParamDelay
	// ParamWindowTarget defaults to platform.CurrentWindow.
	ParamWindowTarget
	// ParamWindowOptional stays unset when absent; the mutating call resolves
	// it to platform.CurrentWindow.
	ParamWindowOptional
	// ParamWindowRequired must be a concrete window id.
	ParamWindowRequired
	ParamScreen
	ParamDisplay
)

func (k ParamKind) String() string {
	switch k {
	case ParamKeySequence:
		return "keys"
	case ParamButton:
		return "button"
	case ParamCoord:
		return "int"
	case ParamDelay:
		return "delay_us"
	case ParamWindowTarget, ParamWindowOptional, ParamWindowRequired:
		return "window"
	case ParamScreen:
		return "screen"
	case ParamDisplay:
		return "display"
	default:
		return "unknown"
	}
}

func (k ParamKind) required() bool {
	switch k {
	case ParamKeySequence, ParamButton, ParamCoord, ParamWindowRequired:
		return true
	}
	return false
}

func (k ParamKind) textual() bool {
	return k == ParamKeySequence || k == ParamDisplay
}

// Param is one entry of a command's input schema.
type Param struct {
	Name string
	Kind ParamKind
}

// Required reports whether the argument must carry a value.
func (p Param) Required() bool { return p.Kind.required() }

// Call is a fully normalized invocation: every sentinel is resolved and every
// value has the width the backend takes.
type Call struct {
	Command  *Command
	Display  Display
	Sequence string
	Button   int
	X, Y     int
	Delay    time.Duration
	Screen   int

	Window platform.WindowID
	// WindowSet is false only for an omitted ParamWindowOptional.
	WindowSet bool
}

// Target is the window the backend receives: the explicit window, or
// CurrentWindow when none was given.
func (c Call) Target() platform.WindowID {
	if !c.WindowSet {
		return platform.CurrentWindow
	}
	return c.Window
}

// Normalize validates args against cmd's schema. It performs no I/O.
func Normalize(cmd *Command, args Args) (Call, error) {
	call := Call{Command: cmd, Screen: platform.CurrentScreen}
	coords := 0

	for i, p := range cmd.Params {
		raw, present := args.at(i)
		if !present && p.Kind.required() {
			return Call{}, validationError(cmd.Name, fmt.Errorf("missing required argument %q", p.Name))
		}

		switch p.Kind {
		case ParamKeySequence:
			seq, err := toText(p, raw)
			if err != nil {
				return Call{}, validationError(cmd.Name, err)
			}
			if i := strings.IndexByte(seq, 0); i >= 0 {
				return Call{}, validationError(cmd.Name, &NulError{Pos: i})
			}
			call.Sequence = seq

		case ParamDisplay:
			if !present {
				call.Display = DefaultDisplay()
				continue
			}
			name, err := toText(p, raw)
			if err != nil {
				return Call{}, validationError(cmd.Name, err)
			}
			call.Display = NamedDisplay(name)
			if err := call.Display.validate(); err != nil {
				return Call{}, validationError(cmd.Name, fmt.Errorf("display: %w", err))
			}

		case ParamButton:
			n, err := toInt(p, raw)
			if err != nil {
				return Call{}, validationError(cmd.Name, err)
			}
			call.Button = int(n)

		case ParamCoord:
			n, err := toInt(p, raw)
			if err != nil {
				return Call{}, validationError(cmd.Name, err)
			}
			if coords == 0 {
				call.X = int(n)
			} else {
				call.Y = int(n)
			}
			coords++

		case ParamDelay:
			if !present {
				continue
			}
			n, err := toInt(p, raw)
			if err != nil {
				return Call{}, validationError(cmd.Name, err)
			}
			if n < 0 {
				return Call{}, validationError(cmd.Name, fmt.Errorf("%s must be >= 0, got %d", p.Name, n))
			}
			call.Delay = time.Duration(n) * time.Microsecond

		case ParamScreen:
			if !present {
				continue
			}
			n, err := toInt(p, raw)
			if err != nil {
				return Call{}, validationError(cmd.Name, err)
			}
			call.Screen = int(n)

		case ParamWindowTarget, ParamWindowOptional, ParamWindowRequired:
			if !present {
				if p.Kind == ParamWindowTarget {
					call.Window = platform.CurrentWindow
					call.WindowSet = true
				}
				continue
			}
			n, err := toInt(p, raw)
			if err != nil {
				return Call{}, validationError(cmd.Name, err)
			}
			call.Window = platform.WindowID(uint32(n))
			call.WindowSet = true
		}
	}
	return call, nil
}

func toText(p Param, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", p.Name, v)
	}
	return s, nil
}

// toInt coerces the numeric representations hosts send. Floats truncate.
func toInt(p Param, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case platform.WindowID:
		return int64(n), nil
	case float32:
		return truncate(p, float64(n))
	case float64:
		return truncate(p, n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", p.Name, n.String())
		}
		return truncate(p, f)
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", p.Name, v)
	}
}

func truncate(p Param, f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a finite number", p.Name)
	}
	return int64(f), nil
}

// ParseArgs turns command-line strings into Args for cmd. "-" and "null"
// stand for an explicit no value.
func ParseArgs(cmd *Command, raw []string) (Args, error) {
	if len(raw) > len(cmd.Params) {
		return nil, validationError(cmd.Name, fmt.Errorf("takes at most %d arguments, got %d", len(cmd.Params), len(raw)))
	}
	args := make(Args, len(raw))
	for i, s := range raw {
		p := cmd.Params[i]
		if s == "-" || s == "null" {
			args[i] = nil
			continue
		}
		if p.Kind.textual() {
			args[i] = s
			continue
		}
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, validationError(cmd.Name, fmt.Errorf("%s: %q is not an integer", p.Name, s))
		}
		args[i] = n
	}
	return args, nil
}
