package automation

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/1broseidon/deskctl/internal/platform"
)

// Display selects the backend display. The zero value is the default display.
type Display struct {
	Name string
	Set  bool
}

// DefaultDisplay selects whatever display the backend considers default.
func DefaultDisplay() Display { return Display{} }

// NamedDisplay selects an explicit display such as ":1".
func NamedDisplay(name string) Display { return Display{Name: name, Set: true} }

func (d Display) String() string {
	if !d.Set || d.Name == "" {
		return "default"
	}
	return d.Name
}

// validate rejects display names the backend could never receive.
func (d Display) validate() error {
	if !d.Set {
		return nil
	}
	if i := strings.IndexByte(d.Name, 0); i >= 0 {
		return &NulError{Pos: i}
	}
	return nil
}

var errSessionReleased = errors.New("session already released")

// Session is one backend connection owned by a single command invocation.
// Release is safe to call more than once; only the first call closes the
// connection.
type Session struct {
	op       string
	display  Display
	backend  platform.Backend
	released atomic.Bool
}

// OpenSession connects to display on behalf of command op.
func OpenSession(opener platform.Opener, op string, display Display) (*Session, error) {
	if err := display.validate(); err != nil {
		return nil, validationError(op, fmt.Errorf("display: %w", err))
	}

	name := ""
	if display.Set {
		name = display.Name
	}
	backend, err := opener.Open(name)
	if err != nil {
		return nil, connectionError(op, display.String(), err)
	}
	if backend == nil {
		return nil, connectionError(op, display.String(), nil)
	}

	return &Session{op: op, display: display, backend: backend}, nil
}

// Backend returns the live connection, or an error once the session has been released.
func (s *Session) Backend() (platform.Backend, error) {
	if s.released.Load() {
		return nil, fmt.Errorf("%s: %w", s.op, errSessionReleased)
	}
	return s.backend, nil
}

// Display reports which display the session was opened for.
func (s *Session) Display() Display { return s.display }

// Release closes the backend connection exactly once.
func (s *Session) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.backend.Close()
	}
}

// Released reports whether Release has run.
func (s *Session) Released() bool { return s.released.Load() }
