// This file implements a file system watcher for the uploads directory.
// It uses OS-level file system events so the UI's file list refreshes
// without polling.

package uploads

import (
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the uploads directory and invokes a callback, debounced,
// whenever files are added, modified, or removed.
type Watcher struct {
	service       *Service
	onChange      func()
	watcher       *fsnotify.Watcher
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

// NewWatcher creates a watcher for the service's directory. onChange runs
// on the watcher goroutine after events settle.
func NewWatcher(service *Service, onChange func()) *Watcher {
	return &Watcher{
		service:       service,
		onChange:      onChange,
		debounceDelay: 500 * time.Millisecond,
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching the uploads directory for changes.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	if err := watcher.Add(w.service.Dir()); err != nil {
		watcher.Close()
		return err
	}

	log.Printf("File watcher started for uploads: %s", w.service.Dir())
	go w.processEvents()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.stopChan)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleNotify()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Uploads watcher error: %v", err)
		case <-w.stopChan:
			return
		}
	}
}

// scheduleNotify resets the debounce timer; the callback fires once after
// a burst of events settles.
func (w *Watcher) scheduleNotify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.onChange)
}
