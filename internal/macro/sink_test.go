package macro

import (
	"errors"
	"sync"
	"testing"

	"github.com/holoplot/go-evdev"
)

// recEvent is one recorded sink call; sync frames are recorded as Type
// EV_SYN so tests can assert exact ordering.
type recEvent struct {
	Type  evdev.EvType
	Code  evdev.EvCode
	Value int32
}

// fakeSink records emitted events for assertions.
type fakeSink struct {
	mu      sync.Mutex
	events  []recEvent
	failAll bool
}

func (f *fakeSink) Emit(t evdev.EvType, code evdev.EvCode, value int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("device busy")
	}
	f.events = append(f.events, recEvent{Type: t, Code: code, Value: value})
	return nil
}

func (f *fakeSink) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT})
	return nil
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) recorded() []recEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeSink) countKey(code evdev.EvCode, value int32) int {
	n := 0
	for _, ev := range f.recorded() {
		if ev.Type == evdev.EV_KEY && ev.Code == code && ev.Value == value {
			n++
		}
	}
	return n
}

func assertSequence(t *testing.T, got []recEvent, want []recEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Recorded %d events, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
