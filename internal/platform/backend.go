package platform

import (
	"errors"
	"fmt"
	"time"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

const (
	// CurrentWindow targets whichever window the backend considers current.
	CurrentWindow WindowID = 0
	// CurrentScreen targets the screen the pointer is on.
	CurrentScreen = 0
)

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes a physical display (RandR monitor).
type Display struct {
	ID      int
	Name    string
	Bounds  Rect
	Primary bool
}

// Pointer is a pointer position on a given screen.
type Pointer struct {
	X      int
	Y      int
	Screen int
}

// KeyMode selects which half of a key sequence is sent.
type KeyMode int

const (
	KeyPress KeyMode = iota // down then up
	KeyDown
	KeyUp
)

func (m KeyMode) String() string {
	switch m {
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	default:
		return "press"
	}
}

// Backend is one live connection to the automation backend. Every method that
// mutates or queries window-system state reports failure through an error;
// Status recovers the backend's integer return code from it.
type Backend interface {
	SendKeySequence(window WindowID, sequence string, mode KeyMode, delay time.Duration) error
	MouseDown(window WindowID, button int) error
	MouseUp(window WindowID, button int) error
	ClickWindow(window WindowID, button int) error

	MoveMouse(x, y, screen int) error
	MoveMouseRelative(dx, dy int) error
	MoveMouseRelativeToWindow(window WindowID, x, y int) error
	MouseLocation() (Pointer, error)
	WaitForMouseMoveFrom(origin Pointer) error

	ActivateWindow(window WindowID) error
	WaitForWindowActive(window WindowID) error
	FocusWindow(window WindowID) error
	WaitForWindowFocus(window WindowID) error
	KillWindow(window WindowID) error
	CloseWindow(window WindowID) error
	MinimizeWindow(window WindowID) error

	// PIDWindow returns -1 when the window does not advertise a process.
	PIDWindow(window WindowID) int
	WindowAtMouse() (WindowID, error)
	FocusedWindow() (WindowID, error)
	ActiveWindow() (WindowID, error)
	WindowName(window WindowID) (string, error)
	CurrentDesktop() (int, error)
	DesktopForWindow(window WindowID) (int, error)
	Displays() ([]Display, error)

	Close()
}

// Opener connects to a backend display. An empty name selects the default
// display.
type Opener interface {
	Open(display string) (Backend, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(display string) (Backend, error)

func (f OpenerFunc) Open(display string) (Backend, error) { return f(display) }

// StatusError carries a nonzero backend return code.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusFailure is the generic nonzero code used when an error carries no
// explicit backend status.
const StatusFailure = 1

// Status maps an error returned by a Backend to the backend's integer status:
// 0 for nil, the carried code for a StatusError, StatusFailure otherwise.
func Status(err error) int {
	if err == nil {
		return 0
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return StatusFailure
}
