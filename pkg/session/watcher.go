package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads the session when the state file is changed by another
// ftrack process. fsnotify doesn't report changes to a file that is replaced
// by rename, so the parent directory is watched and events are filtered by
// name.
type Watcher struct {
	watcher  *fsnotify.Watcher
	manager  *Manager
	path     string
	debounce time.Duration
	logger   *logrus.Entry

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches the state file at path. The parent directory is created
// if needed. A non-positive debounce uses DefaultDebounce.
func NewWatcher(m *Manager, path string, debounce time.Duration) (*Watcher, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  fw,
		manager:  m,
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   m.logger.WithField("worker", "watcher"),
	}, nil
}

// Name implements engine.Worker.
func (w *Watcher) Name() string { return "session-watcher" }

// Run processes events until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule(ctx)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}

// schedule runs a sync once no further events arrive within the debounce
// window. Each event restarts the window, so the last write always wins.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if w.manager.Sync(ctx) {
			w.logger.Debug("Session re-synced from disk")
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.watcher.Close()
}

// Close releases the watcher without waiting for Run.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
