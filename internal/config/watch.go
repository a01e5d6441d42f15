package config

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration whenever the file changes on disk,
// firing the change callback on success. A reload that fails to read or
// decode is logged and the previous configuration stays active, so an
// editor mid-save can never kill a running daemon. Watch returns once the
// watcher is installed; it stops when stop is closed.
func (m *Manager) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, not the file: most editors replace the file,
	// which would drop a direct watch.
	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	name := filepath.Base(m.path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Printf("Config: %s changed, reloading", m.path)
				if err := m.Load(); err != nil {
					log.Printf("Config: reload failed, keeping previous config: %v", err)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Config: watch error: %v", err)
			}
		}
	}()

	return nil
}
