// Package engine runs the background workers of an interactive session:
// the token refresh monitor and the state file watcher.
package engine

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Worker is a background loop owned by the engine.
type Worker interface {
	// Name returns the worker's name for logging.
	Name() string

	// Run blocks until ctx is canceled or the worker gives up.
	Run(ctx context.Context) error
}

// Engine manages and runs all workers.
type Engine struct {
	workers []Worker
	logger  *logrus.Entry

	mu      sync.Mutex
	running bool
}

// New creates a new Engine instance.
func New(logger *logrus.Entry) *Engine {
	return &Engine{logger: logger}
}

// Register adds a worker. Workers registered after Start are ignored.
func (e *Engine) Register(w Worker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.logger.WithField("worker", w.Name()).Warn("Engine already started, worker not registered")
		return
	}
	e.workers = append(e.workers, w)
}

// Start runs all workers and blocks until every one has returned.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.running = true
	workers := append([]Worker(nil), e.workers...)
	e.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			log := e.logger.WithField("worker", w.Name())
			log.Debug("Starting worker")
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("Worker failed")
				return
			}
			log.Debug("Worker stopped")
		}(w)
	}
	wg.Wait()
}

// Workers returns the names of registered workers.
func (e *Engine) Workers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.workers))
	for i, w := range e.workers {
		names[i] = w.Name()
	}
	return names
}
