package snapshot

import (
	"context"
	"log/slog"
	"time"
)

// Janitor sweeps expired records on a fixed interval. Sweeps run on the
// Run goroutine, so one finishes before the next tick is handled.
type Janitor struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	onSweep  func(removed int)
}

func NewJanitor(store *Store, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Janitor{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// OnSweep registers fn to be called with the count removed by each sweep.
func (j *Janitor) OnSweep(fn func(removed int)) { j.onSweep = fn }

// Run blocks until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed := j.store.SweepExpired(j.now())
			if removed > 0 {
				j.logger.Debug("swept expired snapshots", "removed", removed, "remaining", j.store.Len())
			}
			if j.onSweep != nil {
				j.onSweep(removed)
			}
		}
	}
}
