package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// AllDesktops is reported for sticky windows.
const AllDesktops = -1

// CurrentDesktop reads _NET_CURRENT_DESKTOP.
func (c *Connection) CurrentDesktop() (int, error) {
	n, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("_NET_CURRENT_DESKTOP: %w", err)
	}
	return int(n), nil
}

// WindowDesktop reads _NET_WM_DESKTOP of window, or of the focused window
// when window is 0.
func (c *Connection) WindowDesktop(window xproto.Window) (int, error) {
	target, err := c.resolveWindow(window)
	if err != nil {
		return 0, err
	}
	n, err := ewmh.WmDesktopGet(c.XUtil, target)
	if err != nil {
		return 0, fmt.Errorf("_NET_WM_DESKTOP of window %d: %w", target, err)
	}
	if n == 0xFFFFFFFF {
		return AllDesktops, nil
	}
	return int(n), nil
}
