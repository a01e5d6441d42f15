// Package macro holds the macro step model, the step interpreter, and the
// playback controller.
package macro

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holoplot/go-evdev"

	"macrotoggle/internal/keymap"
)

var (
	// ErrUnknownStepType is returned for a step the interpreter cannot dispatch.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrUnsupportedMode is returned for mouse_move modes other than relative.
	ErrUnsupportedMode = errors.New("unsupported mouse_move mode")

	// ErrInvalidStep is returned for malformed step definitions at load time.
	ErrInvalidStep = errors.New("invalid macro step")
)

// Action selects how a key or mouse button step drives its code.
type Action string

const (
	ActionTap     Action = "tap"
	ActionPress   Action = "press"
	ActionRelease Action = "release"
)

// Step is a closed sum over the macro step variants. Implementations are
// the *Step types in this package; nothing outside can add a variant.
type Step interface {
	step()
}

// WaitStep blocks for Seconds of running time. Time spent paused does not
// count against the wait.
type WaitStep struct {
	Seconds float64
}

// KeyStep taps, presses, or releases one keyboard key.
type KeyStep struct {
	Code   evdev.EvCode
	Action Action
}

// ComboStep presses Codes in order and releases them in reverse order as a
// single chord interaction.
type ComboStep struct {
	Codes []evdev.EvCode
}

// MouseClickStep emits Count independent tap cycles of Button.
type MouseClickStep struct {
	Button evdev.EvCode
	Count  int
}

// MouseButtonStep taps, presses, or releases one mouse button.
type MouseButtonStep struct {
	Button evdev.EvCode
	Action Action
}

// MouseMoveStep emits a relative pointer delta. Mode is kept so the
// interpreter can reject anything but relative positioning at playback.
type MouseMoveStep struct {
	Mode string
	DX   int32
	DY   int32
}

// MouseScrollStep emits a relative wheel delta; zero is a no-op.
type MouseScrollStep struct {
	DY int32
}

func (WaitStep) step()        {}
func (KeyStep) step()         {}
func (ComboStep) step()       {}
func (MouseClickStep) step()  {}
func (MouseButtonStep) step() {}
func (MouseMoveStep) step()   {}
func (MouseScrollStep) step() {}

// stepJSON is the wire shape of one configured step; the "type" tag selects
// which fields apply.
type stepJSON struct {
	Type    string   `json:"type"`
	Seconds float64  `json:"seconds"`
	Key     string   `json:"key"`
	Action  string   `json:"action"`
	Keys    []string `json:"keys"`
	Button  string   `json:"button"`
	Count   int      `json:"count"`
	Mode    string   `json:"mode"`
	X       int32    `json:"x"`
	Y       int32    `json:"y"`
	DY      int32    `json:"dy"`
}

func parseAction(raw string) (Action, error) {
	switch raw {
	case "":
		return ActionTap, nil
	case string(ActionTap), string(ActionPress), string(ActionRelease):
		return Action(raw), nil
	}
	return "", fmt.Errorf("%w: action must be tap/press/release, got %q", ErrInvalidStep, raw)
}

// DecodeSteps resolves a raw macro array into steps. Key names are resolved
// to evdev codes here so a bad key reference fails at load time, before any
// device is touched.
func DecodeSteps(raw []json.RawMessage) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for i, data := range raw {
		step, err := decodeStep(data)
		if err != nil {
			return nil, fmt.Errorf("macro step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeStep(data json.RawMessage) (Step, error) {
	var sj stepJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}

	switch sj.Type {
	case "wait":
		return WaitStep{Seconds: sj.Seconds}, nil

	case "key":
		code, err := keymap.KeyCode(sj.Key)
		if err != nil {
			return nil, err
		}
		action, err := parseAction(sj.Action)
		if err != nil {
			return nil, err
		}
		return KeyStep{Code: code, Action: action}, nil

	case "combo":
		if len(sj.Keys) == 0 {
			return nil, fmt.Errorf("%w: combo needs at least one key", ErrInvalidStep)
		}
		codes := make([]evdev.EvCode, 0, len(sj.Keys))
		for _, key := range sj.Keys {
			code, err := keymap.KeyCode(key)
			if err != nil {
				return nil, err
			}
			codes = append(codes, code)
		}
		return ComboStep{Codes: codes}, nil

	case "mouse_click":
		button, err := keymap.ButtonCode(sj.Button)
		if err != nil {
			return nil, err
		}
		return MouseClickStep{Button: button, Count: sj.Count}, nil

	case "mouse_button":
		button, err := keymap.ButtonCode(sj.Button)
		if err != nil {
			return nil, err
		}
		action, err := parseAction(sj.Action)
		if err != nil {
			return nil, err
		}
		return MouseButtonStep{Button: button, Action: action}, nil

	case "mouse_move":
		return MouseMoveStep{Mode: sj.Mode, DX: sj.X, DY: sj.Y}, nil

	case "mouse_scroll":
		return MouseScrollStep{DY: sj.DY}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownStepType, sj.Type)
}
