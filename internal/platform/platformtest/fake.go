// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/deskctl/internal/platform"
)

// Backend records every call in order. A method returns Fail[name] when
// set; the Wait* methods block on Gate while it is non-nil and open.
type Backend struct {
	mu    sync.Mutex
	calls []string

	Fail    map[string]error
	PID     int
	Pointer platform.Pointer
	Active  platform.WindowID
	Gate    chan struct{}
	Closed  atomic.Int32
}

// NewBackend returns a Backend whose PIDWindow reports 4242.
func NewBackend() *Backend {
	return &Backend{Fail: map[string]error{}, PID: 4242}
}

func (f *Backend) rec(format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	name := call
	for i, r := range call {
		if r == '(' {
			name = call[:i]
			break
		}
	}
	return f.Fail[name]
}

// Calls returns the recorded calls, formatted like "MoveMouse(1,2,0)".
func (f *Backend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Backend) SendKeySequence(w platform.WindowID, seq string, mode platform.KeyMode, delay time.Duration) error {
	return f.rec("SendKeySequence(%d,%q,%s,%s)", w, seq, mode, delay)
}

func (f *Backend) MouseDown(w platform.WindowID, b int) error {
	return f.rec("MouseDown(%d,%d)", w, b)
}

func (f *Backend) MouseUp(w platform.WindowID, b int) error {
	return f.rec("MouseUp(%d,%d)", w, b)
}

func (f *Backend) ClickWindow(w platform.WindowID, b int) error {
	return f.rec("ClickWindow(%d,%d)", w, b)
}

func (f *Backend) MoveMouse(x, y, screen int) error {
	return f.rec("MoveMouse(%d,%d,%d)", x, y, screen)
}

func (f *Backend) MoveMouseRelative(dx, dy int) error {
	return f.rec("MoveMouseRelative(%d,%d)", dx, dy)
}

func (f *Backend) MoveMouseRelativeToWindow(w platform.WindowID, x, y int) error {
	return f.rec("MoveMouseRelativeToWindow(%d,%d,%d)", w, x, y)
}

func (f *Backend) MouseLocation() (platform.Pointer, error) {
	return f.Pointer, f.rec("MouseLocation()")
}

func (f *Backend) WaitForMouseMoveFrom(o platform.Pointer) error {
	f.block()
	return f.rec("WaitForMouseMoveFrom(%d,%d,%d)", o.X, o.Y, o.Screen)
}

func (f *Backend) ActivateWindow(w platform.WindowID) error {
	return f.rec("ActivateWindow(%d)", w)
}

func (f *Backend) WaitForWindowActive(w platform.WindowID) error {
	f.block()
	return f.rec("WaitForWindowActive(%d)", w)
}

func (f *Backend) FocusWindow(w platform.WindowID) error {
	return f.rec("FocusWindow(%d)", w)
}

func (f *Backend) WaitForWindowFocus(w platform.WindowID) error {
	f.block()
	return f.rec("WaitForWindowFocus(%d)", w)
}

func (f *Backend) KillWindow(w platform.WindowID) error {
	return f.rec("KillWindow(%d)", w)
}

func (f *Backend) CloseWindow(w platform.WindowID) error {
	return f.rec("CloseWindow(%d)", w)
}

func (f *Backend) MinimizeWindow(w platform.WindowID) error {
	return f.rec("MinimizeWindow(%d)", w)
}

func (f *Backend) PIDWindow(w platform.WindowID) int {
	_ = f.rec("PIDWindow(%d)", w)
	return f.PID
}

func (f *Backend) WindowAtMouse() (platform.WindowID, error) {
	return 0x1a00003, f.rec("WindowAtMouse()")
}

func (f *Backend) FocusedWindow() (platform.WindowID, error) {
	return 0x1a00004, f.rec("FocusedWindow()")
}

func (f *Backend) ActiveWindow() (platform.WindowID, error) {
	return f.Active, f.rec("ActiveWindow()")
}

func (f *Backend) WindowName(w platform.WindowID) (string, error) {
	return "xterm", f.rec("WindowName(%d)", w)
}

func (f *Backend) CurrentDesktop() (int, error) {
	return 2, f.rec("CurrentDesktop()")
}

func (f *Backend) DesktopForWindow(w platform.WindowID) (int, error) {
	return -1, f.rec("DesktopForWindow(%d)", w)
}

func (f *Backend) Displays() ([]platform.Display, error) {
	return []platform.Display{
		{ID: 0, Name: "DP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}, Primary: true},
		{ID: 1, Name: "HDMI-1", Bounds: platform.Rect{X: 1920, Width: 2560, Height: 1440}},
	}, f.rec("Displays()")
}

func (f *Backend) Close() {
	f.Closed.Add(1)
}

func (f *Backend) block() {
	if f.Gate != nil {
		<-f.Gate
	}
}

// Opener hands out one shared Backend and records every Open.
type Opener struct {
	Backend *Backend
	Refuse  bool

	mu     sync.Mutex
	opened []string
}

// NewOpener returns an Opener over a fresh Backend.
func NewOpener() *Opener {
	return &Opener{Backend: NewBackend()}
}

func (o *Opener) Open(display string) (platform.Backend, error) {
	o.mu.Lock()
	o.opened = append(o.opened, display)
	o.mu.Unlock()
	if o.Refuse {
		return nil, errors.New("connection refused")
	}
	return o.Backend, nil
}

// Opened returns the display names passed to Open.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.opened))
	copy(out, o.opened)
	return out
}
