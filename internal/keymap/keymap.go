// Package keymap maps configuration key and button names to evdev codes.
package keymap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/holoplot/go-evdev"
)

// ErrUnsupportedKey is returned when a key name or character has no evdev mapping.
var ErrUnsupportedKey = errors.New("unsupported key")

// charCodes maps single printable characters to key codes (US layout).
var charCodes = map[rune]evdev.EvCode{
	'a': evdev.KEY_A, 'b': evdev.KEY_B, 'c': evdev.KEY_C, 'd': evdev.KEY_D,
	'e': evdev.KEY_E, 'f': evdev.KEY_F, 'g': evdev.KEY_G, 'h': evdev.KEY_H,
	'i': evdev.KEY_I, 'j': evdev.KEY_J, 'k': evdev.KEY_K, 'l': evdev.KEY_L,
	'm': evdev.KEY_M, 'n': evdev.KEY_N, 'o': evdev.KEY_O, 'p': evdev.KEY_P,
	'q': evdev.KEY_Q, 'r': evdev.KEY_R, 's': evdev.KEY_S, 't': evdev.KEY_T,
	'u': evdev.KEY_U, 'v': evdev.KEY_V, 'w': evdev.KEY_W, 'x': evdev.KEY_X,
	'y': evdev.KEY_Y, 'z': evdev.KEY_Z,

	'0': evdev.KEY_0, '1': evdev.KEY_1, '2': evdev.KEY_2, '3': evdev.KEY_3,
	'4': evdev.KEY_4, '5': evdev.KEY_5, '6': evdev.KEY_6, '7': evdev.KEY_7,
	'8': evdev.KEY_8, '9': evdev.KEY_9,

	' ': evdev.KEY_SPACE,

	'`':  evdev.KEY_GRAVE,
	'-':  evdev.KEY_MINUS,
	'=':  evdev.KEY_EQUAL,
	'[':  evdev.KEY_LEFTBRACE,
	']':  evdev.KEY_RIGHTBRACE,
	'\\': evdev.KEY_BACKSLASH,
	';':  evdev.KEY_SEMICOLON,
	'\'': evdev.KEY_APOSTROPHE,
	',':  evdev.KEY_COMMA,
	'.':  evdev.KEY_DOT,
	'/':  evdev.KEY_SLASH,
}

// namedKeys maps "Key.<name>" suffixes to key codes.
var namedKeys = map[string]evdev.EvCode{
	"enter":     evdev.KEY_ENTER,
	"esc":       evdev.KEY_ESC,
	"tab":       evdev.KEY_TAB,
	"space":     evdev.KEY_SPACE,
	"backspace": evdev.KEY_BACKSPACE,
	"delete":    evdev.KEY_DELETE,
	"up":        evdev.KEY_UP,
	"down":      evdev.KEY_DOWN,
	"left":      evdev.KEY_LEFT,
	"right":     evdev.KEY_RIGHT,
	"shift":     evdev.KEY_LEFTSHIFT,
	"shift_l":   evdev.KEY_LEFTSHIFT,
	"shift_r":   evdev.KEY_RIGHTSHIFT,
	"ctrl":      evdev.KEY_LEFTCTRL,
	"ctrl_l":    evdev.KEY_LEFTCTRL,
	"ctrl_r":    evdev.KEY_RIGHTCTRL,
	"alt":       evdev.KEY_LEFTALT,
	"alt_l":     evdev.KEY_LEFTALT,
	"alt_r":     evdev.KEY_RIGHTALT,
}

// functionKeys holds KEY_F1..KEY_F12. The codes are not contiguous in the
// event-codes table, so the lookup goes through this slice.
var functionKeys = []evdev.EvCode{
	evdev.KEY_F1, evdev.KEY_F2, evdev.KEY_F3, evdev.KEY_F4,
	evdev.KEY_F5, evdev.KEY_F6, evdev.KEY_F7, evdev.KEY_F8,
	evdev.KEY_F9, evdev.KEY_F10, evdev.KEY_F11, evdev.KEY_F12,
}

// modifierPairs maps modifier token names to their left/right code pair.
var modifierPairs = map[string][]evdev.EvCode{
	"ctrl":  {evdev.KEY_LEFTCTRL, evdev.KEY_RIGHTCTRL},
	"shift": {evdev.KEY_LEFTSHIFT, evdev.KEY_RIGHTSHIFT},
	"alt":   {evdev.KEY_LEFTALT, evdev.KEY_RIGHTALT},
	"meta":  {evdev.KEY_LEFTMETA, evdev.KEY_RIGHTMETA},
}

// CharCode returns the key code for a single printable character.
func CharCode(ch rune) (evdev.EvCode, error) {
	if 'A' <= ch && ch <= 'Z' {
		ch = ch - 'A' + 'a'
	}
	code, ok := charCodes[ch]
	if !ok {
		return 0, fmt.Errorf("%w: char %q", ErrUnsupportedKey, ch)
	}
	return code, nil
}

// FunctionKey returns the key code for Fn (n in 1..12).
func FunctionKey(n int) (evdev.EvCode, error) {
	if n < 1 || n > len(functionKeys) {
		return 0, fmt.Errorf("%w: F%d", ErrUnsupportedKey, n)
	}
	return functionKeys[n-1], nil
}

// ModifierPair returns the left/right code pair for a modifier name
// ("ctrl", "shift", "alt", "meta").
func ModifierPair(name string) ([]evdev.EvCode, bool) {
	pair, ok := modifierPairs[name]
	return pair, ok
}

// KeyCode resolves a macro key reference. Accepted forms are "Key.<name>"
// (e.g. "Key.enter", "Key.f5") and single printable characters.
func KeyCode(raw string) (evdev.EvCode, error) {
	raw = strings.TrimSpace(raw)

	if name, ok := strings.CutPrefix(raw, "Key."); ok {
		if code, found := namedKeys[name]; found {
			return code, nil
		}
		if rest, isF := strings.CutPrefix(name, "f"); isF {
			if n, err := strconv.Atoi(rest); err == nil {
				return FunctionKey(n)
			}
		}
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedKey, raw)
	}

	runes := []rune(raw)
	if len(runes) == 1 {
		return CharCode(runes[0])
	}
	return 0, fmt.Errorf("%w: key format %q", ErrUnsupportedKey, raw)
}

// ButtonCode resolves a mouse button name. An empty name defaults to "left".
func ButtonCode(name string) (evdev.EvCode, error) {
	switch name {
	case "", "left":
		return evdev.BTN_LEFT, nil
	case "right":
		return evdev.BTN_RIGHT, nil
	case "middle":
		return evdev.BTN_MIDDLE, nil
	}
	return 0, fmt.Errorf("%w: mouse button %q", ErrUnsupportedKey, name)
}

// Capabilities returns the event capability set for the virtual output
// device: every key this package can resolve, the mouse buttons, and the
// relative mouse axes. Widening the set to the full keymap means a config
// that loads can never reference a key the device cannot emit.
func Capabilities() map[evdev.EvType][]evdev.EvCode {
	seen := make(map[evdev.EvCode]bool)
	for _, code := range charCodes {
		seen[code] = true
	}
	for _, code := range namedKeys {
		seen[code] = true
	}
	for _, code := range functionKeys {
		seen[code] = true
	}
	for _, pair := range modifierPairs {
		for _, code := range pair {
			seen[code] = true
		}
	}
	seen[evdev.BTN_LEFT] = true
	seen[evdev.BTN_RIGHT] = true
	seen[evdev.BTN_MIDDLE] = true

	keys := make([]evdev.EvCode, 0, len(seen))
	for code := range seen {
		keys = append(keys, code)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: keys,
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y, evdev.REL_WHEEL},
	}
}
