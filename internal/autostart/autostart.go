// Package autostart installs the daemon as a systemd service.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

const unitPath = "/etc/systemd/system/macrotoggle.service"

// The daemon reads /dev/input and creates a uinput device, so it installs
// as a system unit rather than a user unit.
const systemdUnit = `[Unit]
Description=macrotoggle hotkey macro daemon
After=systemd-udevd.service

[Service]
ExecStart={{.ExecutablePath}} -config {{.ConfigPath}}
Restart=on-failure
RestartSec=2

[Install]
WantedBy=multi-user.target
`

// Enable writes the systemd unit pointing at the current executable and
// the given config path. The caller still runs systemctl enable/start.
func Enable(configPath string) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	tmpl, err := template.New("unit").Parse(systemdUnit)
	if err != nil {
		return err
	}

	f, err := os.Create(unitPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, struct {
		ExecutablePath string
		ConfigPath     string
	}{execPath, absConfig})
}

// Disable removes the systemd unit.
func Disable() error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled checks whether the systemd unit is installed.
func IsEnabled() bool {
	_, err := os.Stat(unitPath)
	return err == nil
}
