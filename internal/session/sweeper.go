package session

import (
	"context"
	"log/slog"
	"time"
)

const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired records from a Store.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewSweeper(store Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, logger: logger, now: time.Now}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes expired records and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("sweep expired sessions", "error", err)
		return 0, err
	}
	if n > 0 {
		s.logger.Info("swept expired sessions", "count", n)
	}
	return n, nil
}
