package session

import (
	"context"
	"time"

	"github.com/grovetools/ftrack/errors"
	"github.com/sirupsen/logrus"
)

// Monitor checks the access token on a fixed interval and refreshes it when
// it nears expiry. A failed refresh is not retried within the same tick.
type Monitor struct {
	manager  *Manager
	interval time.Duration
	logger   *logrus.Entry
}

// NewMonitor creates the refresh worker. A non-positive interval uses
// DefaultRefreshInterval.
func NewMonitor(m *Manager, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Monitor{
		manager:  m,
		interval: interval,
		logger:   m.logger.WithField("worker", "refresh"),
	}
}

// Name implements engine.Worker.
func (mon *Monitor) Name() string { return "refresh-monitor" }

// Run ticks until ctx is canceled.
func (mon *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(mon.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			mon.tick(ctx)
		}
	}
}

func (mon *Monitor) tick(ctx context.Context) {
	refreshed, err := mon.manager.RefreshIfNeeded(ctx)
	switch {
	case errors.Is(err, errors.ErrCodeSessionExpired):
		mon.logger.Warn("Session expired")
	case err != nil && ctx.Err() == nil:
		mon.logger.WithError(err).Error("Refresh check failed")
	case refreshed:
		mon.logger.Debug("Token refreshed on tick")
	}
}
