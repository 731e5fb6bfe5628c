package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil/keybind"
)

// keyStroke is one resolved key of a chord.
type keyStroke struct {
	name string
	code xproto.Keycode
}

// SendKeySequence types a key sequence. window 0 injects through XTEST into
// whatever has focus; any other window receives synthetic events directly.
// down and up select which halves of each chord are sent.
func (c *Connection) SendKeySequence(window xproto.Window, sequence string, down, up bool, delay time.Duration) error {
	chords, err := ParseKeySequence(sequence)
	if err != nil {
		return err
	}

	resolved := make([][]keyStroke, 0, len(chords))
	for _, chord := range chords {
		strokes := make([]keyStroke, 0, len(chord))
		for _, name := range chord {
			codes := keybind.StrToKeycodes(c.XUtil, name)
			if len(codes) == 0 {
				return fmt.Errorf("no keycode for key %q", name)
			}
			strokes = append(strokes, keyStroke{name: name, code: codes[0]})
		}
		resolved = append(resolved, strokes)
	}

	for i, strokes := range resolved {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		if down {
			var state uint16
			for _, s := range strokes {
				if err := c.sendKey(window, s.code, state, true); err != nil {
					return err
				}
				state |= modifierMasks[s.name]
			}
		}
		if up {
			var state uint16
			for _, s := range strokes {
				state |= modifierMasks[s.name]
			}
			for j := len(strokes) - 1; j >= 0; j-- {
				s := strokes[j]
				state &^= modifierMasks[s.name]
				if err := c.sendKey(window, s.code, state, false); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Connection) sendKey(window xproto.Window, code xproto.Keycode, state uint16, press bool) error {
	if window == 0 {
		eventType := byte(xproto.KeyRelease)
		if press {
			eventType = xproto.KeyPress
		}
		return xtest.FakeInputChecked(c.XUtil.Conn(), eventType, byte(code), 0, c.Root, 0, 0, 0).Check()
	}

	ev := xproto.KeyPressEvent{
		Detail:     code,
		Time:       xproto.TimeCurrentTime,
		Root:       c.Root,
		Event:      window,
		State:      state,
		SameScreen: true,
	}
	if press {
		return c.sendEvent(window, xproto.EventMaskKeyPress, string(ev.Bytes()))
	}
	release := xproto.KeyReleaseEvent(ev)
	return c.sendEvent(window, xproto.EventMaskKeyRelease, string(release.Bytes()))
}

// MouseButton presses or releases a pointer button, through XTEST for window 0
// or as a synthetic event delivered to window at the current pointer position.
func (c *Connection) MouseButton(window xproto.Window, button int, press bool) error {
	if button <= 0 || button > 255 {
		return fmt.Errorf("invalid button %d", button)
	}

	if window == 0 {
		eventType := byte(xproto.ButtonRelease)
		if press {
			eventType = xproto.ButtonPress
		}
		return xtest.FakeInputChecked(c.XUtil.Conn(), eventType, byte(button), 0, c.Root, 0, 0, 0).Check()
	}

	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), window).Reply()
	if err != nil {
		return fmt.Errorf("failed to query pointer: %w", err)
	}
	ev := xproto.ButtonPressEvent{
		Detail:     xproto.Button(button),
		Time:       xproto.TimeCurrentTime,
		Root:       pointer.Root,
		Event:      window,
		RootX:      pointer.RootX,
		RootY:      pointer.RootY,
		EventX:     pointer.WinX,
		EventY:     pointer.WinY,
		State:      pointer.Mask,
		SameScreen: pointer.SameScreen,
	}
	if press {
		return c.sendEvent(window, xproto.EventMaskButtonPress, string(ev.Bytes()))
	}
	release := xproto.ButtonReleaseEvent(ev)
	return c.sendEvent(window, xproto.EventMaskButtonRelease, string(release.Bytes()))
}

// ClickWindow presses and releases button.
func (c *Connection) ClickWindow(window xproto.Window, button int) error {
	if err := c.MouseButton(window, button, true); err != nil {
		return err
	}
	return c.MouseButton(window, button, false)
}

func (c *Connection) sendEvent(window xproto.Window, mask int, event string) error {
	return xproto.SendEventChecked(c.XUtil.Conn(), true, window, uint32(mask), event).Check()
}
