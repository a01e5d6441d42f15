package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"macrotoggle/internal/macro"
)

func writeConfig(t *testing.T, content string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "macros.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return NewManager(path)
}

func TestLoadAndCompile(t *testing.T) {
	m := writeConfig(t, `{
		"trigger_hotkey": "<ctrl>+<shift>+e",
		"quit_hotkey": "<ctrl>+q",
		"loop": true,
		"macro": [
			{"type": "key", "key": "a", "action": "tap"},
			{"type": "wait", "seconds": 0.5},
			{"type": "combo", "keys": ["Key.ctrl", "c"]}
		]
	}`)

	if err := m.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	compiled, err := m.Get().Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if len(compiled.Trigger) != 3 {
		t.Errorf("Trigger has %d alternative-sets, want 3", len(compiled.Trigger))
	}
	if compiled.Quit == nil {
		t.Error("Expected a quit requirement")
	}
	if !compiled.Loop {
		t.Error("Expected loop to be true")
	}
	if len(compiled.Steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(compiled.Steps))
	}
	if _, ok := compiled.Steps[0].(macro.KeyStep); !ok {
		t.Errorf("Step 0 is %T, want KeyStep", compiled.Steps[0])
	}
}

func TestMissingTriggerHotkey(t *testing.T) {
	m := writeConfig(t, `{"macro": []}`)
	if err := m.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := m.Get().Compile(); !errors.Is(err, ErrMissingTrigger) {
		t.Errorf("Compile error = %v, want ErrMissingTrigger", err)
	}
}

func TestQuitHotkeyOptional(t *testing.T) {
	m := writeConfig(t, `{"trigger_hotkey": "<f6>", "macro": []}`)
	if err := m.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	compiled, err := m.Get().Compile()
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if compiled.Quit != nil {
		t.Error("Quit should be nil when unset")
	}
}

func TestCompileBadStep(t *testing.T) {
	m := writeConfig(t, `{
		"trigger_hotkey": "<f6>",
		"macro": [{"type": "teleport"}]
	}`)
	if err := m.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := m.Get().Compile(); !errors.Is(err, macro.ErrUnknownStepType) {
		t.Errorf("Compile error = %v, want ErrUnknownStepType", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope.json"))
	if err := m.Load(); err == nil {
		t.Error("Load of a missing file must fail")
	}
}

func TestLoadMalformedJSONKeepsNothing(t *testing.T) {
	m := writeConfig(t, `{not json`)
	if err := m.Load(); err == nil {
		t.Error("Load of malformed JSON must fail")
	}
	if m.Get() != nil {
		t.Error("Failed load must not install a config")
	}
}

func TestChangeCallbackFiresOnLoad(t *testing.T) {
	m := writeConfig(t, `{"trigger_hotkey": "<f6>", "macro": []}`)
	fired := 0
	m.RegisterChangeCallback(func() { fired++ })

	if err := m.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if fired != 1 {
		t.Errorf("Callback fired %d times, want 1", fired)
	}
}

func TestAPIPortDefault(t *testing.T) {
	m := writeConfig(t, `{"trigger_hotkey": "<f6>", "api_enabled": true, "macro": []}`)
	if err := m.Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if port := m.Get().APIPort; port != 18080 {
		t.Errorf("APIPort = %d, want default 18080", port)
	}
}
