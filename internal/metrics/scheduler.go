package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives the aggregator on a fixed period and publishes each
// complete snapshot to the store. time.Ticker keeps the cycle aligned
// to the tick boundary and drops ticks when a cycle overruns, so a slow
// provider cannot accumulate drift across cycles.
type Scheduler struct {
	agg      *Aggregator
	store    *Store
	interval time.Duration
}

// NewScheduler wires an aggregator to a store. The interval also bounds
// every provider call inside the aggregator.
func NewScheduler(agg *Aggregator, store *Store, interval time.Duration) *Scheduler {
	agg.Interval = interval
	return &Scheduler{agg: agg, store: store, interval: interval}
}

// Run samples immediately, then once per tick, until ctx is cancelled.
// Always returns nil: cancellation is the normal way to stop and no
// sampling failure is fatal.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Debug("scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		snap := s.agg.Collect(ctx)
		if ctx.Err() != nil {
			// Cancelled mid-cycle; the degraded snapshot stays unpublished.
			slog.Debug("scheduler stopped")
			return nil
		}
		s.store.Publish(snap)

		select {
		case <-ctx.Done():
			slog.Debug("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
