package macro

import (
	"fmt"
	"sync"
	"time"

	"github.com/holoplot/go-evdev"

	"macrotoggle/internal/output"
)

// tick bounds how long a blocked wait takes to observe a pause or a stop.
const tick = 50 * time.Millisecond

// Gate is the pause gate shared between the controller and the worker.
// Open means running; closed means paused.
type Gate struct {
	mu   sync.RWMutex
	open bool
}

// NewGate returns a closed gate.
func NewGate() *Gate {
	return &Gate{}
}

// Open lets waits proceed.
func (g *Gate) Open() {
	g.mu.Lock()
	g.open = true
	g.mu.Unlock()
}

// Close blocks future waits.
func (g *Gate) Close() {
	g.mu.Lock()
	g.open = false
	g.mu.Unlock()
}

// IsOpen reports the gate state.
func (g *Gate) IsOpen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.open
}

// Interpreter executes single macro steps against the output sink and the
// held-key ledger.
type Interpreter struct {
	sink output.Sink
	held *output.HeldLedger
}

// NewInterpreter creates an interpreter bound to one sink and ledger.
func NewInterpreter(sink output.Sink, held *output.HeldLedger) *Interpreter {
	return &Interpreter{sink: sink, held: held}
}

func cancelled(cancel <-chan struct{}) bool {
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

// waitPausable blocks for the requested duration in tick-sized increments.
// While the gate is closed the remaining duration is not consumed, so the
// wait is measured in running time, not wall time. Cancellation returns
// immediately from either state.
func waitPausable(seconds float64, cancel <-chan struct{}, gate *Gate) {
	remaining := time.Duration(seconds * float64(time.Second))
	for remaining > 0 {
		if cancelled(cancel) {
			return
		}

		if !gate.IsOpen() {
			select {
			case <-cancel:
				return
			case <-time.After(tick):
			}
			continue
		}

		start := time.Now()
		d := tick
		if remaining < d {
			d = remaining
		}
		select {
		case <-cancel:
			return
		case <-time.After(d):
		}
		remaining -= time.Since(start)
	}
}

// Execute runs one step. Wait steps honor both the cancel channel and the
// pause gate; every other kind runs to completion once started but is
// skipped entirely if cancellation was already requested.
func (in *Interpreter) Execute(step Step, cancel <-chan struct{}, gate *Gate) error {
	if w, ok := step.(WaitStep); ok {
		waitPausable(w.Seconds, cancel, gate)
		return nil
	}

	if cancelled(cancel) {
		return nil
	}

	switch s := step.(type) {
	case KeyStep:
		return in.driveCode(s.Code, s.Action)

	case ComboStep:
		for _, code := range s.Codes {
			if err := in.sink.Emit(evdev.EV_KEY, code, 1); err != nil {
				return err
			}
		}
		for i := len(s.Codes) - 1; i >= 0; i-- {
			if err := in.sink.Emit(evdev.EV_KEY, s.Codes[i], 0); err != nil {
				return err
			}
		}
		return in.sink.Sync()

	case MouseClickStep:
		count := s.Count
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			if err := in.sink.Emit(evdev.EV_KEY, s.Button, 1); err != nil {
				return err
			}
			if err := in.sink.Emit(evdev.EV_KEY, s.Button, 0); err != nil {
				return err
			}
			if err := in.sink.Sync(); err != nil {
				return err
			}
		}
		return nil

	case MouseButtonStep:
		return in.driveCode(s.Button, s.Action)

	case MouseMoveStep:
		if s.Mode != "" && s.Mode != "relative" {
			return fmt.Errorf("%w: %q", ErrUnsupportedMode, s.Mode)
		}
		if s.DX != 0 {
			if err := in.sink.Emit(evdev.EV_REL, evdev.REL_X, s.DX); err != nil {
				return err
			}
		}
		if s.DY != 0 {
			if err := in.sink.Emit(evdev.EV_REL, evdev.REL_Y, s.DY); err != nil {
				return err
			}
		}
		return in.sink.Sync()

	case MouseScrollStep:
		if s.DY == 0 {
			return nil
		}
		if err := in.sink.Emit(evdev.EV_REL, evdev.REL_WHEEL, s.DY); err != nil {
			return err
		}
		return in.sink.Sync()
	}

	return fmt.Errorf("%w: %T", ErrUnknownStepType, step)
}

// driveCode is the shared tap/press/release behavior for keys and mouse
// buttons. Press records the code in the ledger; release removes it even if
// it was never recorded.
func (in *Interpreter) driveCode(code evdev.EvCode, action Action) error {
	switch action {
	case ActionTap:
		if err := in.sink.Emit(evdev.EV_KEY, code, 1); err != nil {
			return err
		}
		if err := in.sink.Emit(evdev.EV_KEY, code, 0); err != nil {
			return err
		}
		return in.sink.Sync()

	case ActionPress:
		if err := in.sink.Emit(evdev.EV_KEY, code, 1); err != nil {
			return err
		}
		if err := in.sink.Sync(); err != nil {
			return err
		}
		in.held.MarkDown(code)
		return nil

	case ActionRelease:
		if err := in.sink.Emit(evdev.EV_KEY, code, 0); err != nil {
			return err
		}
		if err := in.sink.Sync(); err != nil {
			return err
		}
		in.held.MarkUp(code)
		return nil
	}

	return fmt.Errorf("%w: action %q", ErrInvalidStep, action)
}
