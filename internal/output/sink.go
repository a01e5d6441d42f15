// Package output drives the virtual input device that emits synthetic key
// and mouse events, and tracks which codes it is currently holding down.
package output

import (
	"errors"
	"fmt"

	"github.com/holoplot/go-evdev"

	"macrotoggle/internal/keymap"
)

// ErrDeviceWrite is returned when a write to the virtual device fails.
var ErrDeviceWrite = errors.New("device write failed")

// Sink abstracts the virtual output device. It is satisfied by UinputSink
// and enables tests to substitute lightweight fakes.
type Sink interface {
	Emit(t evdev.EvType, code evdev.EvCode, value int32) error
	Sync() error
	Close() error
}

// busUSB is the input subsystem bus type reported by the virtual device.
const busUSB = 0x03

// UinputSink emits events through a uinput device.
type UinputSink struct {
	dev *evdev.InputDevice
}

var _ Sink = (*UinputSink)(nil)

// NewUinputSink creates the virtual device with the full keymap capability
// set plus mouse buttons and relative axes.
func NewUinputSink(name string) (*UinputSink, error) {
	dev, err := evdev.CreateDevice(name, evdev.InputID{
		BusType: busUSB,
		Vendor:  0x1234,
		Product: 0x5678,
		Version: 1,
	}, keymap.Capabilities())
	if err != nil {
		return nil, fmt.Errorf("failed to create uinput device: %w", err)
	}
	return &UinputSink{dev: dev}, nil
}

// Emit writes one event frame to the device.
func (s *UinputSink) Emit(t evdev.EvType, code evdev.EvCode, value int32) error {
	err := s.dev.WriteOne(&evdev.InputEvent{Type: t, Code: code, Value: value})
	if err != nil {
		return fmt.Errorf("%w: type=%d code=%d value=%d: %v", ErrDeviceWrite, t, code, value, err)
	}
	return nil
}

// Sync flushes the pending event frames with a SYN_REPORT.
func (s *UinputSink) Sync() error {
	err := s.dev.WriteOne(&evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0})
	if err != nil {
		return fmt.Errorf("%w: syn: %v", ErrDeviceWrite, err)
	}
	return nil
}

// Close destroys the virtual device.
func (s *UinputSink) Close() error {
	return s.dev.Close()
}
