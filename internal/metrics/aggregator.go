package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Source interfaces are deliberately small: each provider reports its
// own availability, decided at construction, and callers branch on it
// instead of probing again every cycle.

// CPUSource samples processor usage and frequency. Static returns the
// identity fields probed at construction so they survive cycles where
// the sample itself never lands.
type CPUSource interface {
	Available() bool
	Static() CPUStats
	Sample(ctx context.Context) (CPUStats, error)
}

// MemorySource samples RAM usage.
type MemorySource interface {
	Available() bool
	Sample(ctx context.Context) (MemoryStats, error)
}

// IntelGPUSource samples the integrated-graphics estimate.
type IntelGPUSource interface {
	Available() bool
	Sample(ctx context.Context) (IntelGPUStats, error)
}

// NvidiaGPUSource samples the NVML-backed device.
type NvidiaGPUSource interface {
	Available() bool
	Sample(ctx context.Context) (NvidiaGPUStats, error)
}

// Aggregator merges the provider fragments into one Snapshot per cycle.
// Provider failures are isolated: a failing GPU source leaves that
// field nil without affecting the CPU or memory fragments, and no
// provider call may outlive one sampling interval.
type Aggregator struct {
	CPU    CPUSource
	Memory MemorySource
	Intel  IntelGPUSource
	Nvidia NvidiaGPUSource

	// Interval bounds every provider call within a cycle.
	Interval time.Duration
}

// cycle accumulates fragments as the source goroutines finish. Once
// sealed (deadline hit or all sources done) late writers are dropped so
// the snapshot handed out never changes underneath a reader.
type cycle struct {
	mu     sync.Mutex
	sealed bool
	snap   *Snapshot
}

func (c *cycle) merge(apply func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sealed {
		apply(c.snap)
	}
}

func (c *cycle) seal() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
	c.snap.normalize()
	return c.snap
}

// Collect runs all available sources concurrently under a shared
// deadline and always returns a complete snapshot; fragments whose
// source is unavailable, failed or timed out this cycle are left at
// their absent value.
func (a *Aggregator) Collect(ctx context.Context) *Snapshot {
	ctx, cancel := context.WithTimeout(ctx, a.Interval)
	defer cancel()

	c := &cycle{snap: &Snapshot{Taken: time.Now()}}

	var wg sync.WaitGroup

	if a.CPU != nil && a.CPU.Available() {
		// Seed the identity fields up front so they survive even when
		// the usage sample misses the deadline and its merge is
		// dropped.
		c.snap.CPU = a.CPU.Static()

		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := a.CPU.Sample(ctx)
			if err != nil {
				slog.Debug("cpu sample failed", "error", err)
			}
			// Identity fields are valid even when the usage read
			// failed mid-cycle.
			c.merge(func(s *Snapshot) { s.CPU = stats })
		}()
	}

	if a.Memory != nil && a.Memory.Available() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := a.Memory.Sample(ctx)
			if err != nil {
				slog.Debug("memory sample failed", "error", err)
				return
			}
			c.merge(func(s *Snapshot) { s.Memory = stats })
		}()
	}

	if a.Intel != nil && a.Intel.Available() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := a.Intel.Sample(ctx)
			if err != nil {
				slog.Debug("intel gpu sample failed", "error", err)
				return
			}
			c.merge(func(s *Snapshot) { s.Intel = &stats })
		}()
	}

	if a.Nvidia != nil && a.Nvidia.Available() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := a.Nvidia.Sample(ctx)
			if err != nil {
				slog.Debug("nvidia gpu sample failed", "error", err)
				return
			}
			c.merge(func(s *Snapshot) { s.Nvidia = &stats })
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// A source that ignores its context must not block the cycle;
	// whatever fragments landed by the deadline make up the snapshot.
	select {
	case <-done:
	case <-ctx.Done():
	}

	return c.seal()
}
