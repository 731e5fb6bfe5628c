//go:build linux

package platform

import (
	"fmt"
	"time"

	"github.com/1broseidon/deskctl/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// LinuxOpener opens X11-backed sessions.
type LinuxOpener struct {
	Defaults x11.DisplayDefaults
	Options  x11.Options
}

var _ Opener = (*LinuxOpener)(nil)

// Open connects to display, or to the resolved default display when display is empty.
func (o *LinuxOpener) Open(display string) (Backend, error) {
	if display == "" {
		resolved, err := x11.ResolveDefaultDisplay(o.Defaults)
		if err != nil {
			return nil, err
		}
		display = resolved
	}
	conn, err := x11.NewConnection(display, o.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11 display %q: %w", display, err)
	}
	return NewLinuxBackend(conn), nil
}

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// Close closes the underlying X11 connection.
func (b *LinuxBackend) Close() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

func (b *LinuxBackend) SendKeySequence(window WindowID, sequence string, mode KeyMode, delay time.Duration) error {
	down := mode == KeyPress || mode == KeyDown
	up := mode == KeyPress || mode == KeyUp
	return failed(b.conn.SendKeySequence(xproto.Window(window), sequence, down, up, delay))
}

func (b *LinuxBackend) MouseDown(window WindowID, button int) error {
	return failed(b.conn.MouseButton(xproto.Window(window), button, true))
}

func (b *LinuxBackend) MouseUp(window WindowID, button int) error {
	return failed(b.conn.MouseButton(xproto.Window(window), button, false))
}

func (b *LinuxBackend) ClickWindow(window WindowID, button int) error {
	return failed(b.conn.ClickWindow(xproto.Window(window), button))
}

func (b *LinuxBackend) MoveMouse(x, y, screen int) error {
	return failed(b.conn.MovePointer(x, y, screen))
}

func (b *LinuxBackend) MoveMouseRelative(dx, dy int) error {
	return failed(b.conn.MovePointerRelative(dx, dy))
}

func (b *LinuxBackend) MoveMouseRelativeToWindow(window WindowID, x, y int) error {
	return failed(b.conn.MovePointerRelativeToWindow(xproto.Window(window), x, y))
}

func (b *LinuxBackend) MouseLocation() (Pointer, error) {
	x, y, screen, err := b.conn.PointerLocation()
	if err != nil {
		return Pointer{}, failed(err)
	}
	return Pointer{X: x, Y: y, Screen: screen}, nil
}

func (b *LinuxBackend) WaitForMouseMoveFrom(origin Pointer) error {
	return failed(b.conn.WaitForPointerMoveFrom(origin.X, origin.Y))
}

func (b *LinuxBackend) ActivateWindow(window WindowID) error {
	return failed(b.conn.ActivateWindow(xproto.Window(window)))
}

func (b *LinuxBackend) WaitForWindowActive(window WindowID) error {
	return failed(b.conn.WaitForWindowActive(xproto.Window(window)))
}

func (b *LinuxBackend) FocusWindow(window WindowID) error {
	return failed(b.conn.FocusWindow(xproto.Window(window)))
}

func (b *LinuxBackend) WaitForWindowFocus(window WindowID) error {
	return failed(b.conn.WaitForWindowFocus(xproto.Window(window)))
}

func (b *LinuxBackend) KillWindow(window WindowID) error {
	return failed(b.conn.KillWindow(xproto.Window(window)))
}

// CloseWindow requests graceful window close via WM_DELETE_WINDOW.
func (b *LinuxBackend) CloseWindow(window WindowID) error {
	return failed(b.conn.CloseWindow(xproto.Window(window)))
}

// MinimizeWindow minimizes a window via WM_CHANGE_STATE.
func (b *LinuxBackend) MinimizeWindow(window WindowID) error {
	return failed(b.conn.MinimizeWindow(xproto.Window(window)))
}

func (b *LinuxBackend) PIDWindow(window WindowID) int {
	return b.conn.GetWindowPID(xproto.Window(window))
}

func (b *LinuxBackend) WindowAtMouse() (WindowID, error) {
	wid, err := b.conn.WindowAtPointer()
	return WindowID(wid), failed(err)
}

func (b *LinuxBackend) FocusedWindow() (WindowID, error) {
	wid, err := b.conn.GetFocusedWindow()
	return WindowID(wid), failed(err)
}

// ActiveWindow returns the currently active window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	wid, err := b.conn.GetActiveWindow()
	return WindowID(wid), failed(err)
}

func (b *LinuxBackend) WindowName(window WindowID) (string, error) {
	name, err := b.conn.GetWindowName(xproto.Window(window))
	return name, failed(err)
}

func (b *LinuxBackend) CurrentDesktop() (int, error) {
	desktop, err := b.conn.CurrentDesktop()
	return desktop, failed(err)
}

func (b *LinuxBackend) DesktopForWindow(window WindowID) (int, error) {
	desktop, err := b.conn.WindowDesktop(xproto.Window(window))
	return desktop, failed(err)
}

// Displays returns the active monitors, primary first.
func (b *LinuxBackend) Displays() ([]Display, error) {
	monitors, err := b.conn.Monitors()
	if err != nil {
		return nil, failed(err)
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}

	return displays, nil
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		ID:      m.ID,
		Name:    m.Name,
		Primary: m.Primary,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
	}
}

// failed tags X11 errors with the generic backend failure status.
func failed(err error) error {
	if err == nil {
		return nil
	}
	return &StatusError{Code: StatusFailure, Err: err}
}
