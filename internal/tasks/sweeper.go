package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/checklists/internal/shared"
)

// DefaultSweepInterval is how often expired sessions are purged while serving.
const DefaultSweepInterval = 15 * time.Minute

// SessionPurger deletes sessions that expired at or before a given time.
type SessionPurger interface {
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}

// SessionSweeper periodically removes expired sessions.
type SessionSweeper struct {
	sessions SessionPurger
	interval time.Duration
	logger   *log.Logger
	progress chan<- ProgressUpdate
	now      func() time.Time
}

// NewSessionSweeper creates a sweeper. A non-positive interval uses [DefaultSweepInterval].
func NewSessionSweeper(sessions SessionPurger, interval time.Duration, logger *log.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// WithProgress reports each sweep on ch.
func (s *SessionSweeper) WithProgress(ch chan<- ProgressUpdate) *SessionSweeper {
	s.progress = ch
	return s
}

// Sweep deletes every session expired now.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	sendProgress(s.progress, sweepUpdate(removed))
	return removed, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Sweep failures are logged and do not stop the loop.
func (s *SessionSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		removed, err := s.Sweep(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			shared.LogError(s.logger, "session sweep failed", err)
		case removed > 0:
			s.logger.Info("removed expired sessions", "count", removed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
