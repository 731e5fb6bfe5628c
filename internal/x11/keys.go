package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

// keyAliases maps xdotool-style names to X keysym names.
var keyAliases = map[string]string{
	"ctrl":    "Control_L",
	"control": "Control_L",
	"alt":     "Alt_L",
	"shift":   "Shift_L",
	"super":   "Super_L",
	"meta":    "Super_L",
	"win":     "Super_L",
	"enter":   "Return",
	"return":  "Return",
	"esc":     "Escape",
	"escape":  "Escape",
	"tab":     "Tab",
	"space":   "space",
	"bksp":    "BackSpace",
}

// modifierMasks maps modifier keysyms to the state mask they contribute when
// events are sent straight to a window instead of through XTEST.
var modifierMasks = map[string]uint16{
	"Shift_L":   xproto.ModMaskShift,
	"Shift_R":   xproto.ModMaskShift,
	"Control_L": xproto.ModMaskControl,
	"Control_R": xproto.ModMaskControl,
	"Alt_L":     xproto.ModMask1,
	"Alt_R":     xproto.ModMask1,
	"Super_L":   xproto.ModMask4,
	"Super_R":   xproto.ModMask4,
}

// ParseKeySequence splits "ctrl+alt+t shift+a" into chords of keysym names:
// [[Control_L Alt_L t] [Shift_L a]].
func ParseKeySequence(sequence string) ([][]string, error) {
	fields := strings.Fields(sequence)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty key sequence")
	}

	chords := make([][]string, 0, len(fields))
	for _, field := range fields {
		parts := strings.Split(field, "+")
		chord := make([]string, 0, len(parts))
		for _, part := range parts {
			if part == "" {
				return nil, fmt.Errorf("empty key in %q", field)
			}
			chord = append(chord, keysymName(part))
		}
		chords = append(chords, chord)
	}
	return chords, nil
}

func keysymName(name string) string {
	if alias, ok := keyAliases[strings.ToLower(name)]; ok {
		return alias
	}
	return name
}
