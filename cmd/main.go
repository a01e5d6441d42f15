// macrotoggle - evdev/uinput hotkey macro daemon
// Listens for a hotkey chord on the physical keyboard and replays a
// configured key/mouse macro through a virtual input device.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"macrotoggle/internal/api"
	"macrotoggle/internal/autostart"
	"macrotoggle/internal/config"
	"macrotoggle/internal/input"
	"macrotoggle/internal/macro"
	"macrotoggle/internal/output"
)

var (
	version     = "0.1.0"
	configPath  = flag.String("config", "macros.json", "Path to the macro config JSON")
	listDevices = flag.Bool("list-devices", false, "List input devices and exit")
	checkOnly   = flag.Bool("check", false, "Validate the config and exit")
	installSvc  = flag.Bool("install-service", false, "Install the systemd unit")
	removeSvc   = flag.Bool("uninstall-service", false, "Remove the systemd unit")
	showVer     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("macrotoggle version %s\n", version)
		return
	}

	if *listDevices {
		listInputDevices()
		return
	}

	if *installSvc {
		if err := autostart.Enable(*configPath); err != nil {
			log.Fatalf("Failed to install service: %v", err)
		}
		fmt.Println("Installed systemd unit. Run: systemctl enable --now macrotoggle")
		return
	}

	if *removeSvc {
		if err := autostart.Disable(); err != nil {
			log.Fatalf("Failed to remove service: %v", err)
		}
		fmt.Println("Removed systemd unit")
		return
	}

	cfgMgr := config.NewManager(*configPath)
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	compiled, err := cfgMgr.Get().Compile()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if *checkOnly {
		fmt.Printf("%s: OK (%d steps)\n", *configPath, len(compiled.Steps))
		return
	}

	runService(cfgMgr, compiled)
}

func listInputDevices() {
	devices, err := input.ListDevices()
	if err != nil {
		log.Fatalf("Failed to list input devices: %v", err)
	}

	fmt.Println("Input Devices:")
	fmt.Println("--------------")
	for _, dev := range devices {
		marker := " "
		if dev.Keyboard {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, dev.Path, dev.Name)
	}
	fmt.Println("\n* = passes the keyboard capability check")
}

func runService(cfgMgr *config.Manager, compiled *config.Compiled) {
	log.Println("macrotoggle starting...")
	cfg := cfgMgr.Get()

	// Config validated; now touch the devices.
	sink, err := output.NewUinputSink("macrotoggle-uinput")
	if err != nil {
		log.Fatalf("Failed to create virtual output device: %v", err)
	}
	defer sink.Close()

	kbd, err := input.OpenKeyboard(cfg.InputDevice)
	if err != nil {
		log.Fatalf("Failed to open keyboard: %v", err)
	}
	defer kbd.Close()

	if name, err := kbd.Name(); err == nil {
		log.Printf("Listener: device=%s name=%q", kbd.Path(), name)
	}
	log.Printf("Listener: trigger=%q quit=%q loop=%v", cfg.TriggerHotkey, cfg.QuitHotkey, cfg.Loop)

	ctrl := macro.NewController(compiled.Steps, compiled.Loop, sink)
	listener := input.NewListener(kbd, ctrl, compiled.Trigger, compiled.Quit)

	// A config reload arriving mid-run is deferred until the controller
	// returns to Idle so a running macro is never swapped underneath the
	// worker.
	var (
		pendingMu sync.Mutex
		pending   *config.Compiled
	)
	applyPending := func() {
		pendingMu.Lock()
		next := pending
		pending = nil
		pendingMu.Unlock()
		if next == nil {
			return
		}
		if !ctrl.SetMacro(next.Steps, next.Loop) {
			pendingMu.Lock()
			pending = next
			pendingMu.Unlock()
			return
		}
		listener.SetHotkeys(next.Trigger, next.Quit)
		log.Printf("Config: reload applied (%d steps)", len(next.Steps))
	}

	// API server
	var apiServer *api.Server
	if cfg.APIEnabled {
		apiServer = api.NewServer(ctrl, cfg.APIToken)
		go func() {
			if err := apiServer.Start(cfg.APIPort); err != nil {
				log.Printf("API: server error: %v", err)
			}
		}()
	}

	ctrl.SetOnState(func(state macro.State, runID string) {
		if apiServer != nil {
			apiServer.BroadcastState(state, runID, "hotkey")
		}
		if state == macro.StateIdle {
			go applyPending()
		}
	})

	// Config watching
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	cfgMgr.RegisterChangeCallback(func() {
		next, err := cfgMgr.Get().Compile()
		if err != nil {
			log.Printf("Config: reloaded config invalid, keeping previous: %v", err)
			return
		}
		pendingMu.Lock()
		pending = next
		pendingMu.Unlock()
		applyPending()
	})
	if err := cfgMgr.Watch(stopWatch); err != nil {
		log.Printf("Warning: config watching disabled: %v", err)
	}

	// Signals: stop playback and close the keyboard so the listener loop
	// unblocks and returns.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		ctrl.Stop()
		kbd.Close()
	}()

	log.Println("macrotoggle running. Press the trigger hotkey to start playback.")
	reason, err := listener.Run()

	switch reason {
	case input.ReasonQuitHotkey:
		log.Println("Quit hotkey pressed, shutting down")
		ctrl.Stop()
		sink.Close()
		os.Exit(0)
	default:
		ctrl.Stop()
		if err != nil {
			log.Printf("Listener stopped: %v", err)
		}
	}
}
