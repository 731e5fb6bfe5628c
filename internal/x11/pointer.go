package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/xproto"
)

// PointerLocation returns the pointer position in root coordinates and the
// number of the screen it is on.
func (c *Connection) PointerLocation() (x, y, screen int, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return int(reply.RootX), int(reply.RootY), c.screenOf(reply.Root), nil
}

// MovePointer warps the pointer to absolute coordinates on screen.
func (c *Connection) MovePointer(x, y, screen int) error {
	root, err := c.screenRoot(screen)
	if err != nil {
		return err
	}
	px, py, err := coords(x, y)
	if err != nil {
		return err
	}
	return xproto.WarpPointerChecked(c.XUtil.Conn(), 0, root, 0, 0, 0, 0, px, py).Check()
}

// MovePointerRelative moves the pointer by (dx, dy) from where it is.
func (c *Connection) MovePointerRelative(dx, dy int) error {
	px, py, err := coords(dx, dy)
	if err != nil {
		return err
	}
	return xproto.WarpPointerChecked(c.XUtil.Conn(), 0, 0, 0, 0, 0, 0, px, py).Check()
}

// MovePointerRelativeToWindow moves the pointer to (x, y) in window's
// coordinate space. window 0 resolves to the focused window.
func (c *Connection) MovePointerRelativeToWindow(window xproto.Window, x, y int) error {
	px, py, err := coords(x, y)
	if err != nil {
		return err
	}
	target, err := c.resolveWindow(window)
	if err != nil {
		return err
	}
	translated, err := xproto.TranslateCoordinates(c.XUtil.Conn(), target, c.Root, px, py).Reply()
	if err != nil {
		return fmt.Errorf("failed to translate coordinates: %w", err)
	}
	return xproto.WarpPointerChecked(c.XUtil.Conn(), 0, c.Root, 0, 0, 0, 0, translated.DstX, translated.DstY).Check()
}

// WaitForPointerMoveFrom blocks until the pointer is no longer at (x, y).
func (c *Connection) WaitForPointerMoveFrom(x, y int) error {
	return c.poll("pointer to move", func() (bool, error) {
		cx, cy, _, err := c.PointerLocation()
		if err != nil {
			return false, err
		}
		return cx != x || cy != y, nil
	})
}

// WindowAtPointer returns the top-level child of the root window under the pointer.
func (c *Connection) WindowAtPointer() (xproto.Window, error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return reply.Child, nil
}

// coords narrows a coordinate pair to the protocol's INT16 fields.
func coords(x, y int) (int16, int16, error) {
	for _, v := range [2]int{x, y} {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return 0, 0, fmt.Errorf("coordinate %d out of range [%d, %d]", v, math.MinInt16, math.MaxInt16)
		}
	}
	return int16(x), int16(y), nil
}
