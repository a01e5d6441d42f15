package output

import (
	"sort"
	"sync"

	"github.com/holoplot/go-evdev"
)

// HeldLedger tracks the output codes (keys or mouse buttons) currently
// driven to the down state by a press action. The playback worker mutates
// it on press/release steps while the controller clears it on pause/stop
// from the listener's thread, so all access is mutex-guarded.
type HeldLedger struct {
	mu   sync.Mutex
	held map[evdev.EvCode]bool
}

// NewHeldLedger creates an empty ledger.
func NewHeldLedger() *HeldLedger {
	return &HeldLedger{held: make(map[evdev.EvCode]bool)}
}

// MarkDown records code as held.
func (l *HeldLedger) MarkDown(code evdev.EvCode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[code] = true
}

// MarkUp removes code from the ledger. Safe for codes never recorded.
func (l *HeldLedger) MarkUp(code evdev.EvCode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, code)
}

// Codes returns a sorted snapshot of the held codes.
func (l *HeldLedger) Codes() []evdev.EvCode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *HeldLedger) snapshotLocked() []evdev.EvCode {
	codes := make([]evdev.EvCode, 0, len(l.held))
	for code := range l.held {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ReleaseAll atomically snapshots and clears the ledger, then emits a
// release for every snapshotted code through sink, finishing with one sync.
// Individual write failures are swallowed so one stuck device write cannot
// prevent releasing the rest. The snapshot is returned so pause can stash
// what to restore on resume.
func (l *HeldLedger) ReleaseAll(sink Sink) []evdev.EvCode {
	l.mu.Lock()
	codes := l.snapshotLocked()
	l.held = make(map[evdev.EvCode]bool)
	l.mu.Unlock()

	for _, code := range codes {
		_ = sink.Emit(evdev.EV_KEY, code, 0)
	}
	_ = sink.Sync()
	return codes
}
