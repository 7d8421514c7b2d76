package config

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a config file for external edits and invokes onChanged,
// debounced, so a long-lived host can re-resolve its layered configuration
// without restarting. Falls back to polling if fsnotify cannot be started,
// matching the degrade-rather-than-fail posture of the store's own file
// watching.
type Watcher struct {
	path      string
	onChanged func()
	watcher   *fsnotify.Watcher
	polling   bool
	interval  time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	debounce  time.Duration
	lastMod   time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for path. onChanged fires at most once per
// debounce window after the file is created, written, or replaced.
func NewWatcher(path string, onChanged func()) *Watcher {
	w := &Watcher{
		path:      path,
		onChanged: onChanged,
		debounce:  300 * time.Millisecond,
		interval:  2 * time.Second,
	}
	if stat, err := os.Stat(path); err == nil {
		w.lastMod = stat.ModTime()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.polling = true
		return w
	}
	if err := fsw.Add(path); err != nil {
		// File may not exist yet; watch its directory instead, same as
		// the store's file watcher does for a not-yet-created JSONL file.
		if dir := dirOf(path); dir != "" {
			_ = fsw.Add(dir)
		}
	}
	w.watcher = fsw
	return w
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

// Start begins monitoring in the background until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if w.polling {
		w.startPolling(ctx)
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Rename) != 0 {
					w.trigger()
				}
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Watcher) startPolling(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stat, err := os.Stat(w.path)
				if err != nil {
					continue
				}
				if !stat.ModTime().Equal(w.lastMod) {
					w.lastMod = stat.ModTime()
					w.trigger()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChanged)
}

// Close stops monitoring and releases the underlying fsnotify handle, if any.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
