// Package config provides configuration management for the macro daemon.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"macrotoggle/internal/hotkey"
	"macrotoggle/internal/macro"
)

// ErrMissingTrigger is returned when trigger_hotkey is absent.
var ErrMissingTrigger = errors.New(`config: "trigger_hotkey" is required`)

// Config is the macro configuration file schema.
type Config struct {
	// TriggerHotkey starts, pauses, and resumes playback (required).
	TriggerHotkey string `json:"trigger_hotkey"`

	// QuitHotkey shuts the daemon down (optional).
	QuitHotkey string `json:"quit_hotkey,omitempty"`

	// Loop repeats the macro sequence until stopped.
	Loop bool `json:"loop"`

	// InputDevice is an explicit keyboard device path; empty auto-picks.
	InputDevice string `json:"input_device,omitempty"`

	// Macro is the ordered step sequence. Steps stay raw here and are
	// resolved by Compile so load and validation are separate phases.
	Macro []json.RawMessage `json:"macro"`

	// APIEnabled starts the HTTP/WebSocket control server.
	APIEnabled bool `json:"api_enabled,omitempty"`

	// APIPort is the control server port (default 18080).
	APIPort int `json:"api_port,omitempty"`

	// APIToken is an optional bearer token for control requests.
	APIToken string `json:"api_token,omitempty"`
}

// Compiled holds the validated, resolved artifacts of a Config.
type Compiled struct {
	Trigger hotkey.Requirement
	Quit    hotkey.Requirement // nil when no quit hotkey is configured
	Steps   []macro.Step
	Loop    bool
}

// Compile validates the hotkey specs and resolves every macro step to evdev
// codes. All failures here are fatal configuration errors, surfaced before
// any device is opened.
func (c *Config) Compile() (*Compiled, error) {
	if strings.TrimSpace(c.TriggerHotkey) == "" {
		return nil, ErrMissingTrigger
	}

	trigger, err := hotkey.Parse(c.TriggerHotkey)
	if err != nil {
		return nil, fmt.Errorf("config: trigger_hotkey: %w", err)
	}

	var quit hotkey.Requirement
	if strings.TrimSpace(c.QuitHotkey) != "" {
		quit, err = hotkey.Parse(c.QuitHotkey)
		if err != nil {
			return nil, fmt.Errorf("config: quit_hotkey: %w", err)
		}
	}

	steps, err := macro.DecodeSteps(c.Macro)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &Compiled{Trigger: trigger, Quit: quit, Steps: steps, Loop: c.Loop}, nil
}

// Manager handles loading and watching the configuration file.
type Manager struct {
	mu        sync.Mutex
	path      string
	config    *Config
	onChanged func()
}

// NewManager creates a manager for the config file at path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the config file path.
func (m *Manager) Path() string {
	return m.path
}

// Load reads and decodes the configuration from disk. Unlike a settings
// file with defaults, a missing or malformed macro config is an error: the
// daemon is useless without a trigger hotkey and a macro.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cfg := &Config{APIPort: 18080}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.config = cfg
	fn := m.onChanged
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// RegisterChangeCallback registers a function called after every
// successful (re)load.
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
