package keymap

import (
	"errors"
	"testing"

	"github.com/holoplot/go-evdev"
)

func TestCharCode(t *testing.T) {
	cases := []struct {
		ch   rune
		want evdev.EvCode
	}{
		{'a', evdev.KEY_A},
		{'Z', evdev.KEY_Z},
		{'0', evdev.KEY_0},
		{'9', evdev.KEY_9},
		{' ', evdev.KEY_SPACE},
		{';', evdev.KEY_SEMICOLON},
		{'\\', evdev.KEY_BACKSLASH},
		{'/', evdev.KEY_SLASH},
	}
	for _, tc := range cases {
		got, err := CharCode(tc.ch)
		if err != nil {
			t.Errorf("CharCode(%q) returned error: %v", tc.ch, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CharCode(%q) = %d, want %d", tc.ch, got, tc.want)
		}
	}
}

func TestCharCodeUnsupported(t *testing.T) {
	if _, err := CharCode('€'); !errors.Is(err, ErrUnsupportedKey) {
		t.Errorf("CharCode('€') error = %v, want ErrUnsupportedKey", err)
	}
}

func TestKeyCode(t *testing.T) {
	cases := []struct {
		raw  string
		want evdev.EvCode
	}{
		{"Key.enter", evdev.KEY_ENTER},
		{"Key.esc", evdev.KEY_ESC},
		{"Key.ctrl_r", evdev.KEY_RIGHTCTRL},
		{"Key.shift", evdev.KEY_LEFTSHIFT},
		{"Key.f1", evdev.KEY_F1},
		{"Key.f12", evdev.KEY_F12},
		{"a", evdev.KEY_A},
		{" x ", evdev.KEY_X},
	}
	for _, tc := range cases {
		got, err := KeyCode(tc.raw)
		if err != nil {
			t.Errorf("KeyCode(%q) returned error: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("KeyCode(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestKeyCodeErrors(t *testing.T) {
	for _, raw := range []string{"Key.bogus", "Key.f13", "Key.f0", "enter", "ab", ""} {
		if _, err := KeyCode(raw); !errors.Is(err, ErrUnsupportedKey) {
			t.Errorf("KeyCode(%q) error = %v, want ErrUnsupportedKey", raw, err)
		}
	}
}

func TestButtonCode(t *testing.T) {
	cases := []struct {
		name string
		want evdev.EvCode
	}{
		{"", evdev.BTN_LEFT},
		{"left", evdev.BTN_LEFT},
		{"right", evdev.BTN_RIGHT},
		{"middle", evdev.BTN_MIDDLE},
	}
	for _, tc := range cases {
		got, err := ButtonCode(tc.name)
		if err != nil {
			t.Errorf("ButtonCode(%q) returned error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ButtonCode(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}

	if _, err := ButtonCode("side"); !errors.Is(err, ErrUnsupportedKey) {
		t.Errorf("ButtonCode(\"side\") error = %v, want ErrUnsupportedKey", err)
	}
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities()

	keys := caps[evdev.EV_KEY]
	has := func(code evdev.EvCode) bool {
		for _, c := range keys {
			if c == code {
				return true
			}
		}
		return false
	}

	for _, code := range []evdev.EvCode{
		evdev.KEY_A, evdev.KEY_SPACE, evdev.KEY_F12, evdev.KEY_LEFTMETA,
		evdev.KEY_RIGHTCTRL, evdev.KEY_UP, evdev.BTN_LEFT, evdev.BTN_MIDDLE,
	} {
		if !has(code) {
			t.Errorf("Capabilities missing key code %d", code)
		}
	}

	rels := caps[evdev.EV_REL]
	if len(rels) != 3 {
		t.Fatalf("Expected 3 relative axes, got %d", len(rels))
	}
}
