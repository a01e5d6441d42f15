// Package input reads raw key events from the physical keyboard device,
// maintains the pressed-key set, and dispatches hotkey actions.
package input

import (
	"errors"
	"fmt"

	"github.com/holoplot/go-evdev"
)

// ErrNoKeyboard is returned when no suitable keyboard device is found.
var ErrNoKeyboard = errors.New("keyboard device not found")

// DeviceInfo describes one enumerated input device.
type DeviceInfo struct {
	Path     string
	Name     string
	Keyboard bool
}

// looksLikeKeyboard reports whether the device exposes at least one letter
// key and a ctrl key, the capability check used for auto-picking.
func looksLikeKeyboard(dev *evdev.InputDevice) bool {
	hasLetter, hasCtrl := false, false
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		switch code {
		case evdev.KEY_A:
			hasLetter = true
		case evdev.KEY_LEFTCTRL:
			hasCtrl = true
		}
		if hasLetter && hasCtrl {
			return true
		}
	}
	return false
}

// ListDevices enumerates the input devices and marks which pass the
// keyboard capability check.
func ListDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate input devices: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(paths))
	for _, p := range paths {
		info := DeviceInfo{Path: p.Path, Name: p.Name}
		if dev, err := evdev.Open(p.Path); err == nil {
			info.Keyboard = looksLikeKeyboard(dev)
			dev.Close()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// OpenKeyboard opens the configured device path, or auto-picks the first
// device that passes the keyboard capability check when path is empty.
func OpenKeyboard(path string) (*evdev.InputDevice, error) {
	if path != "" {
		dev, err := evdev.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input device %s: %w", path, err)
		}
		return dev, nil
	}

	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate input devices: %w", err)
	}
	for _, p := range paths {
		dev, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		if looksLikeKeyboard(dev) {
			return dev, nil
		}
		dev.Close()
	}

	return nil, fmt.Errorf("%w: set input_device to /dev/input/by-id/...-event-kbd", ErrNoKeyboard)
}
