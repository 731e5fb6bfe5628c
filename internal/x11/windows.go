package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// GetFocusedWindow returns the window holding input focus.
func (c *Connection) GetFocusedWindow() (xproto.Window, error) {
	reply, err := xproto.GetInputFocus(c.XUtil.Conn()).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get input focus: %w", err)
	}
	return reply.Focus, nil
}

// resolveWindow maps window 0 to the focused window.
func (c *Connection) resolveWindow(window xproto.Window) (xproto.Window, error) {
	if window != 0 {
		return window, nil
	}
	focused, err := c.GetFocusedWindow()
	if err != nil {
		return 0, err
	}
	if focused == 0 {
		return 0, fmt.Errorf("no focused window")
	}
	return focused, nil
}

// ActivateWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// Sends a client message to the root window per EWMH spec.
// We build the message manually because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// FocusWindow gives windowID input focus without asking the window manager to
// raise it.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	return xproto.SetInputFocusChecked(c.XUtil.Conn(), xproto.InputFocusParent, windowID, xproto.TimeCurrentTime).Check()
}

// WaitForWindowActive blocks until _NET_ACTIVE_WINDOW reports windowID.
func (c *Connection) WaitForWindowActive(windowID xproto.Window) error {
	return c.poll(fmt.Sprintf("window 0x%x to become active", windowID), func() (bool, error) {
		active, err := c.GetActiveWindow()
		if err != nil {
			return false, nil
		}
		return active == windowID, nil
	})
}

// WaitForWindowFocus blocks until windowID holds input focus.
func (c *Connection) WaitForWindowFocus(windowID xproto.Window) error {
	return c.poll(fmt.Sprintf("window 0x%x to receive focus", windowID), func() (bool, error) {
		focused, err := c.GetFocusedWindow()
		if err != nil {
			return false, err
		}
		return focused == windowID, nil
	})
}

// KillWindow destroys the client owning windowID (XKillClient).
func (c *Connection) KillWindow(windowID xproto.Window) error {
	target, err := c.resolveWindow(windowID)
	if err != nil {
		return err
	}
	return xproto.KillClientChecked(c.XUtil.Conn(), uint32(target)).Check()
}

// CloseWindow requests graceful window close via WM_DELETE_WINDOW.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	target, err := c.resolveWindow(windowID)
	if err != nil {
		return err
	}

	deleteReply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_DELETE_WINDOW")), "WM_DELETE_WINDOW").Reply()
	if err != nil {
		return err
	}
	protocolsReply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_PROTOCOLS")), "WM_PROTOCOLS").Reply()
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: target,
		Type:   protocolsReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteReply.Atom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		target,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// MinimizeWindow iconifies a window via WM_CHANGE_STATE.
func (c *Connection) MinimizeWindow(windowID xproto.Window) error {
	target, err := c.resolveWindow(windowID)
	if err != nil {
		return err
	}

	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_CHANGE_STATE")), "WM_CHANGE_STATE").Reply()
	if err != nil {
		return err
	}

	const iconicState = 3
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: target,
		Type:   reply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// GetWindowPID reads _NET_WM_PID. Returns -1 when the property is missing.
func (c *Connection) GetWindowPID(windowID xproto.Window) int {
	target, err := c.resolveWindow(windowID)
	if err != nil {
		return -1
	}
	pid, err := ewmh.WmPidGet(c.XUtil, target)
	if err != nil {
		return -1
	}
	return int(pid)
}

// GetWindowName returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) GetWindowName(windowID xproto.Window) (string, error) {
	target, err := c.resolveWindow(windowID)
	if err != nil {
		return "", err
	}

	title, err := ewmh.WmNameGet(c.XUtil, target)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title, nil
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, target)
	if err != nil {
		return "", fmt.Errorf("window 0x%x has no name: %w", target, err)
	}
	return strings.TrimSpace(title), nil
}
