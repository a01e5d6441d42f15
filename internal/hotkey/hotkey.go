// Package hotkey parses hotkey chord specifications and matches them
// against the set of currently pressed keys.
package hotkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/holoplot/go-evdev"

	"macrotoggle/internal/keymap"
)

// ErrInvalidSpec is returned for hotkey specifications that cannot be parsed.
var ErrInvalidSpec = errors.New("invalid hotkey spec")

// Requirement is an ordered sequence of alternative-sets. A chord is
// satisfied when, for every alternative-set, at least one of its codes is
// pressed. Alternative-sets let "<ctrl>" match either physical ctrl key.
type Requirement [][]evdev.EvCode

// PressedSet tracks the keys currently held down on the physical device.
type PressedSet map[evdev.EvCode]bool

// Press records a key-down edge.
func (p PressedSet) Press(code evdev.EvCode) { p[code] = true }

// Release records a key-up edge.
func (p PressedSet) Release(code evdev.EvCode) { delete(p, code) }

// Parse converts a specification like "<ctrl>+<shift>+e" into a Requirement.
// Recognized tokens are the modifier names <ctrl>/<control>, <shift>, <alt>,
// <meta>/<super>/<win>, function keys <fN>, and single printable characters.
func Parse(spec string) (Requirement, error) {
	var req Requirement

	for _, part := range strings.Split(spec, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		switch part {
		case "<ctrl>", "<control>":
			pair, _ := keymap.ModifierPair("ctrl")
			req = append(req, pair)
			continue
		case "<shift>":
			pair, _ := keymap.ModifierPair("shift")
			req = append(req, pair)
			continue
		case "<alt>":
			pair, _ := keymap.ModifierPair("alt")
			req = append(req, pair)
			continue
		case "<meta>", "<super>", "<win>":
			pair, _ := keymap.ModifierPair("meta")
			req = append(req, pair)
			continue
		}

		if inner, ok := cutAngle(part); ok {
			rest, isF := strings.CutPrefix(inner, "f")
			if !isF {
				return nil, fmt.Errorf("%w: token %q", ErrInvalidSpec, part)
			}
			n, err := strconv.Atoi(rest)
			if err != nil {
				return nil, fmt.Errorf("%w: token %q", ErrInvalidSpec, part)
			}
			code, err := keymap.FunctionKey(n)
			if err != nil {
				return nil, fmt.Errorf("%w: token %q", ErrInvalidSpec, part)
			}
			req = append(req, []evdev.EvCode{code})
			continue
		}

		runes := []rune(part)
		if len(runes) == 1 {
			code, err := keymap.CharCode(runes[0])
			if err != nil {
				return nil, fmt.Errorf("%w: token %q", ErrInvalidSpec, part)
			}
			req = append(req, []evdev.EvCode{code})
			continue
		}

		return nil, fmt.Errorf("%w: token %q", ErrInvalidSpec, part)
	}

	if len(req) == 0 {
		return nil, fmt.Errorf("%w: empty spec", ErrInvalidSpec)
	}
	return req, nil
}

func cutAngle(s string) (string, bool) {
	if len(s) >= 3 && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// Satisfied reports whether every alternative-set in req has at least one
// code present in pressed. Pure, no side effects.
func Satisfied(pressed PressedSet, req Requirement) bool {
	for _, alts := range req {
		ok := false
		for _, code := range alts {
			if pressed[code] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Detector is an edge-triggered match detector for one hotkey. It fires
// exactly once per physical press: after firing it re-arms only once the
// chord becomes unsatisfied again, so key-repeat events and held chords
// never fire twice.
type Detector struct {
	req   Requirement
	armed bool
}

// NewDetector creates an armed detector for req.
func NewDetector(req Requirement) *Detector {
	return &Detector{req: req, armed: true}
}

// Update evaluates the chord against pressed and reports whether the hotkey
// fires on this edge.
func (d *Detector) Update(pressed PressedSet) bool {
	sat := Satisfied(pressed, d.req)
	fire := sat && d.armed
	d.armed = !sat
	return fire
}
