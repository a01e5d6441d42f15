package input

import (
	"log"
	"sync"

	"github.com/holoplot/go-evdev"

	"macrotoggle/internal/hotkey"
)

// Key event values on the raw stream.
const (
	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2
)

// EventSource supplies the raw event stream. Satisfied by
// *evdev.InputDevice and by scripted fakes in tests.
type EventSource interface {
	ReadOne() (*evdev.InputEvent, error)
}

// Controls is the playback surface the listener drives.
type Controls interface {
	Trigger()
}

// StopReason says why the listener's Run loop returned.
type StopReason int

const (
	// ReasonSourceClosed means the event stream ended or failed.
	ReasonSourceClosed StopReason = iota

	// ReasonQuitHotkey means the configured quit chord fired.
	ReasonQuitHotkey
)

// Listener consumes the raw key-event stream, maintains the pressed-key
// set, and fires edge-triggered hotkey actions.
type Listener struct {
	src     EventSource
	ctrl    Controls
	pressed hotkey.PressedSet

	mu      sync.Mutex
	trigger *hotkey.Detector
	quit    *hotkey.Detector // nil when no quit hotkey is configured
}

// NewListener creates a listener for src firing trigger (and quit, when
// non-nil) against ctrl.
func NewListener(src EventSource, ctrl Controls, trigger hotkey.Requirement, quit hotkey.Requirement) *Listener {
	l := &Listener{
		src:     src,
		ctrl:    ctrl,
		pressed: make(hotkey.PressedSet),
		trigger: hotkey.NewDetector(trigger),
	}
	if quit != nil {
		l.quit = hotkey.NewDetector(quit)
	}
	return l
}

// SetHotkeys swaps the trigger and quit chords, used when the config file
// is reloaded. Fresh detectors start armed.
func (l *Listener) SetHotkeys(trigger hotkey.Requirement, quit hotkey.Requirement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trigger = hotkey.NewDetector(trigger)
	l.quit = nil
	if quit != nil {
		l.quit = hotkey.NewDetector(quit)
	}
}

// Run blocks reading the event stream until the quit hotkey fires or the
// source fails. Repeat events never mutate the pressed set; the quit chord
// is evaluated before the trigger chord on every mutation.
func (l *Listener) Run() (StopReason, error) {
	for {
		ev, err := l.src.ReadOne()
		if err != nil {
			return ReasonSourceClosed, err
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}

		switch ev.Value {
		case keyDown:
			l.pressed.Press(ev.Code)
		case keyUp:
			l.pressed.Release(ev.Code)
		case keyRepeat:
			// held key, no state change
		}

		l.mu.Lock()
		trigger, quit := l.trigger, l.quit
		l.mu.Unlock()

		if quit != nil && quit.Update(l.pressed) {
			log.Printf("Listener: quit hotkey pressed")
			return ReasonQuitHotkey, nil
		}

		if trigger.Update(l.pressed) {
			l.ctrl.Trigger()
		}
	}
}
