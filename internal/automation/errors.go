package automation

import (
	"errors"
	"fmt"
)

// Kind classifies why a command failed.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is malformed input; the backend was never called.
	KindValidation
	// KindConnection is a display the backend refused to open.
	KindConnection
	// KindLibraryCall is a backend call that returned a nonzero status.
	KindLibraryCall
	// KindInvalidPID is getPIDWindow reporting -1.
	KindInvalidPID
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindConnection:
		return "ConnectionError"
	case KindLibraryCall:
		return "LibraryCallError"
	case KindInvalidPID:
		return "InvalidPidError"
	default:
		return "UnknownError"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	for _, k := range []Kind{KindValidation, KindConnection, KindLibraryCall, KindInvalidPID} {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// Error is the typed failure of one command invocation.
type Error struct {
	Kind Kind
	// Op is the command name, e.g. "mouseMove".
	Op string
	// Call is the backend primitive that failed (LibraryCallError only).
	Call string
	// Code is the raw backend status, or the pid for InvalidPidError.
	Code    int
	Display string
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrConnection  = &Error{Kind: KindConnection}
	ErrLibraryCall = &Error{Kind: KindLibraryCall}
	ErrInvalidPID  = &Error{Kind: KindInvalidPID}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindValidation:
		msg = "invalid argument"
		if e.Err != nil {
			msg = e.Err.Error()
		}
	case KindConnection:
		msg = fmt.Sprintf("can't open display: %q", e.Display)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	case KindLibraryCall:
		msg = fmt.Sprintf("failed to %s : %d", e.Call, e.Code)
	case KindInvalidPID:
		msg = fmt.Sprintf("invalid pid : (%d)", e.Code)
	default:
		msg = "unknown error"
		if e.Err != nil {
			msg = e.Err.Error()
		}
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors (no Op) by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

// KindOf reports the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func validationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func connectionError(op, display string, err error) *Error {
	return &Error{Kind: KindConnection, Op: op, Display: display, Err: err}
}

func libraryError(op, call string, code int, err error) *Error {
	return &Error{Kind: KindLibraryCall, Op: op, Call: call, Code: code, Err: err}
}

func invalidPIDError(op string, pid int) *Error {
	return &Error{Kind: KindInvalidPID, Op: op, Code: pid}
}

// NulError reports a string that cannot cross to the backend because it
// contains a NUL byte.
type NulError struct {
	Pos int
}

func (e *NulError) Error() string {
	return fmt.Sprintf("nul byte found in provided data at position: %d", e.Pos)
}
