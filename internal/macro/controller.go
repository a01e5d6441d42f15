package macro

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holoplot/go-evdev"

	"macrotoggle/internal/output"
)

// State is the playback lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Controller owns the macro lifecycle state machine and the single playback
// worker. All externally callable operations are serialized behind one lock
// and never block on the worker; they signal it through the cancel channel
// and the pause gate.
type Controller struct {
	mu      sync.Mutex
	steps   []Step
	loop    bool
	sink    output.Sink
	held    *output.HeldLedger
	interp  *Interpreter
	gate    *Gate
	cancel  chan struct{}
	stash   []evdev.EvCode
	running bool
	runID   string
	onState func(State, string)
}

// NewController creates an idle controller driving sink. The controller
// owns its held-key ledger; sink and ledger are not shared across
// controller instances.
func NewController(steps []Step, loop bool, sink output.Sink) *Controller {
	held := output.NewHeldLedger()
	return &Controller{
		steps:  steps,
		loop:   loop,
		sink:   sink,
		held:   held,
		interp: NewInterpreter(sink, held),
		gate:   NewGate(),
		cancel: make(chan struct{}),
	}
}

// SetOnState registers a callback fired on every state transition. The
// callback runs on the transitioning thread and must not call back into
// controller operations.
func (c *Controller) SetOnState(fn func(State, string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// State reports the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return StateIdle
	}
	if !c.gate.IsOpen() {
		return StatePaused
	}
	return StateRunning
}

// CurrentRun returns the identifier of the most recent run, or "" before
// the first start.
func (c *Controller) CurrentRun() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// HeldCodes returns the codes the ledger currently holds down.
func (c *Controller) HeldCodes() []evdev.EvCode {
	return c.held.Codes()
}

// SetMacro swaps the step sequence and loop flag. The swap is refused while
// a worker is alive so a running macro is never changed underneath it.
func (c *Controller) SetMacro(steps []Step, loop bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return false
	}
	c.steps = steps
	c.loop = loop
	return true
}

// Start spawns the playback worker. No-op if a worker is already alive;
// at most one worker ever exists per controller.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.cancel = make(chan struct{})
	c.gate.Open()
	c.stash = nil
	c.runID = uuid.NewString()
	c.running = true
	cancel, fn, id := c.cancel, c.onState, c.runID
	c.mu.Unlock()

	log.Printf("Macro: started run %s", id)
	if fn != nil {
		fn(StateRunning, id)
	}
	// Spawn after notifying so the Running transition is always observed
	// before the worker's Idle on completion. running is already set, so a
	// concurrent Start stays a no-op.
	go c.run(cancel, id)
}

// Pause closes the pause gate and force-releases everything the ledger
// holds, stashing the released codes for Resume. No-op unless running and
// not already paused. In-flight non-wait steps still finish; waits stop
// consuming time.
func (c *Controller) Pause() {
	c.mu.Lock()
	if !c.running || !c.gate.IsOpen() {
		c.mu.Unlock()
		return
	}
	c.gate.Close()
	c.stash = c.held.ReleaseAll(c.sink)
	fn, id, n := c.onState, c.runID, len(c.stash)
	c.mu.Unlock()

	log.Printf("Macro: paused run %s (released %d held codes)", id, n)
	if fn != nil {
		fn(StatePaused, id)
	}
}

// Resume re-presses the stashed codes, records them in the ledger again,
// and reopens the gate. No-op unless paused. An individual re-press failure
// is swallowed so the rest still resume.
func (c *Controller) Resume() {
	c.mu.Lock()
	if !c.running || c.gate.IsOpen() {
		c.mu.Unlock()
		return
	}
	for _, code := range c.stash {
		if err := c.sink.Emit(evdev.EV_KEY, code, 1); err != nil {
			continue
		}
		c.held.MarkDown(code)
	}
	_ = c.sink.Sync()
	c.stash = nil
	c.gate.Open()
	fn, id := c.onState, c.runID
	c.mu.Unlock()

	log.Printf("Macro: resumed run %s", id)
	if fn != nil {
		fn(StateRunning, id)
	}
}

// Stop signals cancellation, opens the gate so a worker blocked in a paused
// wait can observe it, and force-releases the ledger. Idempotent and
// fire-and-forget: it never waits for the worker, whose own cleanup
// performs a second, harmless release-all.
func (c *Controller) Stop() {
	c.mu.Lock()
	select {
	case <-c.cancel:
	default:
		close(c.cancel)
	}
	c.gate.Open()
	wasRunning := c.running
	id := c.runID
	c.mu.Unlock()

	c.held.ReleaseAll(c.sink)
	if wasRunning {
		log.Printf("Macro: stopping run %s...", id)
	}
}

// Trigger is the hotkey action with pause support: start when idle, resume
// when paused, pause otherwise.
func (c *Controller) Trigger() {
	switch c.State() {
	case StateIdle:
		c.Start()
	case StatePaused:
		c.Resume()
	default:
		c.Pause()
	}
}

// Toggle is the simpler hotkey action without pause support: stop when
// alive, start otherwise.
func (c *Controller) Toggle() {
	if c.State() == StateIdle {
		c.Start()
	} else {
		c.Stop()
	}
}

// waitWhilePaused blocks in tick-sized increments while the gate is closed,
// returning early on cancellation.
func waitWhilePaused(cancel <-chan struct{}, gate *Gate) {
	for !cancelled(cancel) && !gate.IsOpen() {
		select {
		case <-cancel:
			return
		case <-time.After(tick):
		}
	}
}

// run is the playback worker. It executes the sequence once, or repeatedly
// while loop is set, re-checking the gate before each iteration and each
// step so a pause takes effect between steps too. On any exit path it
// force-releases the ledger before reporting Idle.
func (c *Controller) run(cancel chan struct{}, runID string) {
	defer func() {
		c.held.ReleaseAll(c.sink)
		c.mu.Lock()
		c.running = false
		fn := c.onState
		c.mu.Unlock()

		log.Printf("Macro: run %s stopped", runID)
		if fn != nil {
			fn(StateIdle, runID)
		}
	}()

	for {
		waitWhilePaused(cancel, c.gate)

		for _, step := range c.steps {
			if cancelled(cancel) {
				return
			}
			waitWhilePaused(cancel, c.gate)
			if cancelled(cancel) {
				return
			}
			if err := c.interp.Execute(step, cancel, c.gate); err != nil {
				log.Printf("Macro: run %s aborted: %v", runID, err)
				return
			}
		}

		if !c.loop || cancelled(cancel) {
			return
		}
	}
}
