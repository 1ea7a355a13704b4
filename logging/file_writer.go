package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// dailyFileWriter appends to the component's log file for the current day.
// When the day changes the next write closes the old file and opens the new
// one, so a long-running dashboard does not keep writing to yesterday's log.
type dailyFileWriter struct {
	mu        sync.Mutex
	cfg       Config
	component string
	now       func() time.Time
	path      string
	file      io.WriteCloser
}

func newDailyFileWriter(cfg Config, component string) *dailyFileWriter {
	return &dailyFileWriter{cfg: cfg, component: component, now: time.Now}
}

// Write implements the io.Writer interface.
func (w *dailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := w.writer()
	if err != nil {
		return 0, err
	}
	return file.Write(p)
}

// Close implements the io.Closer interface.
func (w *dailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.path = ""
	return err
}

// Path returns the file the last write went to.
func (w *dailyFileWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *dailyFileWriter) writer() (io.WriteCloser, error) {
	path := FilePath(w.cfg, w.component, w.now())
	if path == "" {
		return nil, fmt.Errorf("no log directory for component %s", w.component)
	}
	if w.file != nil && path == w.path {
		return w.file, nil
	}
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	w.file = file
	w.path = path
	return file, nil
}
