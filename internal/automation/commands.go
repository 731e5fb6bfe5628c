package automation

import (
	"sort"

	"github.com/1broseidon/deskctl/internal/platform"
)

// Mode is how a command's completion reaches the caller.
type Mode int

const (
	// Sync commands finish with their single backend call.
	Sync Mode = iota
	// Async commands return once the mutating call is issued and complete
	// after a background wait observes the effect.
	Async
)

func (m Mode) String() string {
	if m == Async {
		return "async"
	}
	return "sync"
}

// Returns says what the Value of a successful Result holds.
type Returns int

const (
	// ReturnsStatus: Value is the raw backend status.
	ReturnsStatus Returns = iota
	// ReturnsValue: Value (and Data) hold queried state; any nonzero status is an error.
	ReturnsValue
)

// Command is one row of the command table.
type Command struct {
	Name    string
	Summary string
	Params  []Param
	Mode    Mode
	Returns Returns
	// Call names the backend primitive in LibraryCallError messages.
	Call string
	// Strict turns a nonzero status into LibraryCallError even for
	// ReturnsStatus commands.
	Strict bool

	// Exec runs a Sync command.
	Exec func(b platform.Backend, c Call) (Result, error)

	// CaptureOrigin records the pointer before Mutate for an Async command.
	CaptureOrigin bool
	// Mutate issues the Async command's state change.
	Mutate func(b platform.Backend, c Call) error
	// Wait blocks until the state change is observable.
	Wait func(b platform.Backend, c Call, origin platform.Pointer) error
}

var (
	pKeys      = Param{Name: "keys", Kind: ParamKeySequence}
	pButton    = Param{Name: "button", Kind: ParamButton}
	pX         = Param{Name: "x", Kind: ParamCoord}
	pY         = Param{Name: "y", Kind: ParamCoord}
	pDelay     = Param{Name: "delay", Kind: ParamDelay}
	pScreen    = Param{Name: "screen", Kind: ParamScreen}
	pDisplay   = Param{Name: "display", Kind: ParamDisplay}
	pTarget    = Param{Name: "window", Kind: ParamWindowTarget}
	pOptWindow = Param{Name: "window", Kind: ParamWindowOptional}
	pWindowID  = Param{Name: "windowId", Kind: ParamWindowRequired}
)

func status(err error) (Result, error) { return Result{}, err }

func keyCommand(name, summary string, mode platform.KeyMode) *Command {
	return &Command{
		Name:    name,
		Summary: summary,
		Params:  []Param{pKeys, pTarget, pDisplay, pDelay},
		Call:    "send_keysequence_window_" + mode.String(),
		Exec: func(b platform.Backend, c Call) (Result, error) {
			return status(b.SendKeySequence(c.Target(), c.Sequence, mode, c.Delay))
		},
	}
}

func buttonCommand(name, summary, call string, fn func(platform.Backend, platform.WindowID, int) error) *Command {
	return &Command{
		Name:    name,
		Summary: summary,
		Params:  []Param{pButton, pTarget, pDisplay},
		Call:    call,
		Exec: func(b platform.Backend, c Call) (Result, error) {
			return status(fn(b, c.Target(), c.Button))
		},
	}
}

func queryWindowCommand(name, summary, call string, fn func(platform.Backend) (platform.WindowID, error)) *Command {
	return &Command{
		Name:    name,
		Summary: summary,
		Params:  []Param{pDisplay},
		Returns: ReturnsValue,
		Call:    call,
		Exec: func(b platform.Backend, _ Call) (Result, error) {
			wid, err := fn(b)
			return Result{Value: int64(wid)}, err
		},
	}
}

func waitForMove(b platform.Backend, _ Call, origin platform.Pointer) error {
	return b.WaitForMouseMoveFrom(origin)
}

// commandTable is the full command surface.
var commandTable = []*Command{
	keyCommand("keyDown", "Press (without releasing) a key sequence", platform.KeyDown),
	keyCommand("keyUp", "Release a key sequence", platform.KeyUp),
	keyCommand("keyPress", "Press and release a key sequence", platform.KeyPress),

	buttonCommand("mouseDown", "Press a pointer button", "mouse_down", platform.Backend.MouseDown),
	buttonCommand("mouseUp", "Release a pointer button", "mouse_up", platform.Backend.MouseUp),
	buttonCommand("clickWindow", "Click a pointer button", "click_window", platform.Backend.ClickWindow),

	{
		Name:          "mouseMove",
		Summary:       "Move the pointer to absolute coordinates; completes once it has moved",
		Params:        []Param{pX, pY, pScreen, pDisplay},
		Mode:          Async,
		Call:          "move_mouse",
		Strict:        true,
		CaptureOrigin: true,
		Mutate: func(b platform.Backend, c Call) error {
			return b.MoveMouse(c.X, c.Y, c.Screen)
		},
		Wait: waitForMove,
	},
	{
		Name:          "mouseMoveRelative",
		Summary:       "Move the pointer relative to its position; completes once it has moved",
		Params:        []Param{pX, pY, pDisplay},
		Mode:          Async,
		Call:          "move_mouse_relative",
		Strict:        true,
		CaptureOrigin: true,
		Mutate: func(b platform.Backend, c Call) error {
			return b.MoveMouseRelative(c.X, c.Y)
		},
		Wait: waitForMove,
	},
	{
		Name:          "mouseMoveRelativeToWindow",
		Summary:       "Move the pointer to coordinates inside a window; completes once it has moved",
		Params:        []Param{pX, pY, pOptWindow, pDisplay},
		Mode:          Async,
		Call:          "move_mouse_relative_to_window",
		Strict:        true,
		CaptureOrigin: true,
		Mutate: func(b platform.Backend, c Call) error {
			return b.MoveMouseRelativeToWindow(c.Target(), c.X, c.Y)
		},
		Wait: waitForMove,
	},
	{
		Name:    "activateWindow",
		Summary: "Activate and raise a window; completes once it reports active",
		Params:  []Param{pWindowID, pDisplay},
		Mode:    Async,
		Call:    "activate_window",
		Mutate: func(b platform.Backend, c Call) error {
			return b.ActivateWindow(c.Window)
		},
		Wait: func(b platform.Backend, c Call, _ platform.Pointer) error {
			return b.WaitForWindowActive(c.Window)
		},
	},
	{
		Name:    "focusWindow",
		Summary: "Give a window input focus; completes once it reports focused",
		Params:  []Param{pWindowID, pDisplay},
		Mode:    Async,
		Call:    "focus_window",
		Mutate: func(b platform.Backend, c Call) error {
			return b.FocusWindow(c.Window)
		},
		Wait: func(b platform.Backend, c Call, _ platform.Pointer) error {
			return b.WaitForWindowFocus(c.Window)
		},
	},

	{
		Name:    "killWindow",
		Summary: "Kill the client owning a window",
		Params:  []Param{pWindowID, pDisplay},
		Call:    "kill_window",
		Exec: func(b platform.Backend, c Call) (Result, error) {
			return status(b.KillWindow(c.Window))
		},
	},
	{
		Name:    "closeWindow",
		Summary: "Ask a window to close (WM_DELETE_WINDOW)",
		Params:  []Param{pWindowID, pDisplay},
		Call:    "close_window",
		Exec: func(b platform.Backend, c Call) (Result, error) {
			return status(b.CloseWindow(c.Window))
		},
	},
	{
		Name:    "minimizeWindow",
		Summary: "Iconify a window",
		Params:  []Param{pTarget, pDisplay},
		Call:    "minimize_window",
		Exec: func(b platform.Backend, c Call) (Result, error) {
			return status(b.MinimizeWindow(c.Target()))
		},
	},
	{
		Name:    "getPIDWindow",
		Summary: "Report the process id owning a window",
		Params:  []Param{pWindowID, pDisplay},
		Returns: ReturnsValue,
		Call:    "get_pid_window",
		Exec: func(b platform.Backend, c Call) (Result, error) {
			pid := b.PIDWindow(c.Window)
			if pid == -1 {
				return Result{}, invalidPIDError(c.Command.Name, pid)
			}
			return Result{Value: int64(pid)}, nil
		},
	},

	queryWindowCommand("getWindowAtMouse", "Report the window under the pointer", "get_window_at_mouse", platform.Backend.WindowAtMouse),
	queryWindowCommand("getFocusedWindow", "Report the window holding input focus", "get_focused_window", platform.Backend.FocusedWindow),
	queryWindowCommand("getActiveWindow", "Report the active window", "get_active_window", platform.Backend.ActiveWindow),

	{
		Name:    "getMouseLocation",
		Summary: "Report the pointer position and screen",
		Params:  []Param{pDisplay},
		Returns: ReturnsValue,
		Call:    "get_mouse_location",
		Exec: func(b platform.Backend, _ Call) (Result, error) {
			p, err := b.MouseLocation()
			if err != nil {
				return Result{}, err
			}
			return Result{Data: Location{X: p.X, Y: p.Y, Screen: p.Screen}}, nil
		},
	},
	{
		Name:    "getWindowName",
		Summary: "Report a window's title",
		Params:  []Param{pTarget, pDisplay},
		Returns: ReturnsValue,
		Call:    "get_window_name",
		Exec: func(b platform.Backend, c Call) (Result, error) {
			name, err := b.WindowName(c.Target())
			if err != nil {
				return Result{}, err
			}
			return Result{Value: int64(c.Target()), Data: name}, nil
		},
	},
	{
		Name:    "getCurrentDesktop",
		Summary: "Report the current virtual desktop",
		Params:  []Param{pDisplay},
		Returns: ReturnsValue,
		Call:    "get_current_desktop",
		Exec: func(b platform.Backend, _ Call) (Result, error) {
			d, err := b.CurrentDesktop()
			return Result{Value: int64(d)}, err
		},
	},
	{
		Name:    "getDesktopForWindow",
		Summary: "Report the virtual desktop a window is on (-1 when on all)",
		Params:  []Param{pTarget, pDisplay},
		Returns: ReturnsValue,
		Call:    "get_desktop_for_window",
		Exec: func(b platform.Backend, c Call) (Result, error) {
			d, err := b.DesktopForWindow(c.Target())
			return Result{Value: int64(d)}, err
		},
	},
	{
		Name:    "getDisplays",
		Summary: "List the physical monitors of the display",
		Params:  []Param{pDisplay},
		Returns: ReturnsValue,
		Call:    "get_displays",
		Exec: func(b platform.Backend, _ Call) (Result, error) {
			displays, err := b.Displays()
			if err != nil {
				return Result{}, err
			}
			out := make([]Monitor, 0, len(displays))
			for _, d := range displays {
				out = append(out, Monitor{
					ID:      d.ID,
					Name:    d.Name,
					X:       d.Bounds.X,
					Y:       d.Bounds.Y,
					Width:   d.Bounds.Width,
					Height:  d.Bounds.Height,
					Primary: d.Primary,
				})
			}
			return Result{Value: int64(len(out)), Data: out}, nil
		},
	},
}

var commandIndex = func() map[string]*Command {
	m := make(map[string]*Command, len(commandTable))
	for _, cmd := range commandTable {
		m[cmd.Name] = cmd
	}
	return m
}()

// Lookup returns the command named name.
func Lookup(name string) (*Command, bool) {
	cmd, ok := commandIndex[name]
	return cmd, ok
}

// Commands returns the command table sorted by name.
func Commands() []*Command {
	out := make([]*Command, len(commandTable))
	copy(out, commandTable)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
