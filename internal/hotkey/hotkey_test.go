package hotkey

import (
	"errors"
	"testing"

	"github.com/holoplot/go-evdev"
)

func TestParseModifierAlternatives(t *testing.T) {
	req, err := Parse("<ctrl>+<shift>+e")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(req) != 3 {
		t.Fatalf("Expected 3 alternative-sets, got %d", len(req))
	}
	if len(req[0]) != 2 || req[0][0] != evdev.KEY_LEFTCTRL || req[0][1] != evdev.KEY_RIGHTCTRL {
		t.Errorf("ctrl set = %v, want left/right ctrl pair", req[0])
	}
	if len(req[1]) != 2 || req[1][0] != evdev.KEY_LEFTSHIFT {
		t.Errorf("shift set = %v, want left/right shift pair", req[1])
	}
	if len(req[2]) != 1 || req[2][0] != evdev.KEY_E {
		t.Errorf("e set = %v, want [KEY_E]", req[2])
	}
}

func TestParseTokenForms(t *testing.T) {
	cases := []struct {
		spec string
		want evdev.EvCode
	}{
		{"<control>", evdev.KEY_LEFTCTRL},
		{"<meta>", evdev.KEY_LEFTMETA},
		{"<super>", evdev.KEY_LEFTMETA},
		{"<win>", evdev.KEY_LEFTMETA},
		{"<f5>", evdev.KEY_F5},
		{"<F5>", evdev.KEY_F5},
		{"q", evdev.KEY_Q},
		{"Q", evdev.KEY_Q},
		{"7", evdev.KEY_7},
		{";", evdev.KEY_SEMICOLON},
	}
	for _, tc := range cases {
		req, err := Parse(tc.spec)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tc.spec, err)
			continue
		}
		if req[0][0] != tc.want {
			t.Errorf("Parse(%q) first code = %d, want %d", tc.spec, req[0][0], tc.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, spec := range []string{"", "  ", "+", "<bogus>", "ctrl", "<f>", "<f99>", "ab+c", "<ctrl>+<nope>"} {
		if _, err := Parse(spec); !errors.Is(err, ErrInvalidSpec) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidSpec", spec, err)
		}
	}
}

func TestSatisfiedExactMembers(t *testing.T) {
	req, err := Parse("<ctrl>+<shift>+e")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	// One member of each alternative-set pressed: satisfied.
	pressed := PressedSet{
		evdev.KEY_RIGHTCTRL: true,
		evdev.KEY_LEFTSHIFT: true,
		evdev.KEY_E:         true,
	}
	if !Satisfied(pressed, req) {
		t.Fatal("Expected chord to be satisfied")
	}

	// Removing any single code makes it unsatisfied.
	for code := range pressed {
		delete(pressed, code)
		if Satisfied(pressed, req) {
			t.Errorf("Chord still satisfied without code %d", code)
		}
		pressed[code] = true
	}

	// Extra keys do not break a satisfied chord.
	pressed.Press(evdev.KEY_X)
	if !Satisfied(pressed, req) {
		t.Error("Extra pressed key should not unsatisfy the chord")
	}
}

func TestDetectorEdgeTriggering(t *testing.T) {
	req, err := Parse("<ctrl>+e")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	det := NewDetector(req)
	pressed := make(PressedSet)

	// Not satisfied yet.
	pressed.Press(evdev.KEY_LEFTCTRL)
	if det.Update(pressed) {
		t.Fatal("Detector fired before chord was satisfied")
	}

	// Chord completes: exactly one fire.
	pressed.Press(evdev.KEY_E)
	if !det.Update(pressed) {
		t.Fatal("Detector did not fire when chord became satisfied")
	}

	// Stays satisfied across repeat evaluations: no extra fires.
	for i := 0; i < 5; i++ {
		if det.Update(pressed) {
			t.Fatalf("Detector fired again on repeat evaluation %d", i)
		}
	}

	// Unsatisfied then satisfied again: fires once more.
	pressed.Release(evdev.KEY_E)
	if det.Update(pressed) {
		t.Fatal("Detector fired on release")
	}
	pressed.Press(evdev.KEY_E)
	if !det.Update(pressed) {
		t.Fatal("Detector did not re-arm after chord became unsatisfied")
	}
}
