package metrics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCPU struct {
	stats     CPUStats
	err       error
	available bool

	// sleep simulates a provider that ignores its context.
	sleep time.Duration
}

func (f *fakeCPU) Available() bool { return f.available }
func (f *fakeCPU) Static() CPUStats {
	return CPUStats{
		Name:          f.stats.Name,
		PhysicalCores: f.stats.PhysicalCores,
		LogicalCores:  f.stats.LogicalCores,
	}
}
func (f *fakeCPU) Sample(ctx context.Context) (CPUStats, error) {
	if f.sleep > 0 {
		time.Sleep(f.sleep)
	}
	return f.stats, f.err
}

type fakeMemory struct {
	stats     MemoryStats
	err       error
	available bool
}

func (f *fakeMemory) Available() bool { return f.available }
func (f *fakeMemory) Sample(ctx context.Context) (MemoryStats, error) {
	return f.stats, f.err
}

type fakeIntel struct {
	stats     IntelGPUStats
	err       error
	available bool

	// sleep simulates a provider that ignores its context.
	sleep time.Duration
}

func (f *fakeIntel) Available() bool { return f.available }
func (f *fakeIntel) Sample(ctx context.Context) (IntelGPUStats, error) {
	if f.sleep > 0 {
		time.Sleep(f.sleep)
	}
	return f.stats, f.err
}

type fakeNvidia struct {
	stats     NvidiaGPUStats
	err       error
	available bool
	calls     atomic.Int32
}

func (f *fakeNvidia) Available() bool { return f.available }
func (f *fakeNvidia) Sample(ctx context.Context) (NvidiaGPUStats, error) {
	f.calls.Add(1)
	return f.stats, f.err
}

func testAggregator() *Aggregator {
	return &Aggregator{
		CPU: &fakeCPU{
			available: true,
			stats:     CPUStats{Name: "TestCPU", PhysicalCores: 4, LogicalCores: 8, UsagePercent: 42.5, FrequencyMHz: 2400},
		},
		Memory: &fakeMemory{
			available: true,
			stats:     MemoryStats{TotalGB: 16, UsedGB: 8, UsagePercent: 50},
		},
		Intel: &fakeIntel{
			available: true,
			stats:     IntelGPUStats{Name: "TestIntel", UsagePercent: 30},
		},
		Nvidia: &fakeNvidia{
			available: true,
			stats:     NvidiaGPUStats{Name: "TestNvidia", UsagePercent: 60, MemUsedGB: 2, MemTotalGB: 8, TemperatureC: 55},
		},
		Interval: time.Second,
	}
}

func TestCollectMergesAllFragments(t *testing.T) {
	agg := testAggregator()

	snap := agg.Collect(context.Background())

	assert.Equal(t, "TestCPU", snap.CPU.Name)
	assert.Equal(t, 42.5, snap.CPU.UsagePercent)
	assert.Equal(t, 16.0, snap.Memory.TotalGB)
	if assert.NotNil(t, snap.Intel) {
		assert.Equal(t, 30.0, snap.Intel.UsagePercent)
	}
	if assert.NotNil(t, snap.Nvidia) {
		assert.Equal(t, "TestNvidia", snap.Nvidia.Name)
		assert.Equal(t, 55.0, snap.Nvidia.TemperatureC)
	}
	assert.False(t, snap.Taken.IsZero())
}

func TestCollectIsolatesProviderFailure(t *testing.T) {
	agg := testAggregator()
	agg.Nvidia = &fakeNvidia{available: true, err: assert.AnError}

	snap := agg.Collect(context.Background())

	assert.Nil(t, snap.Nvidia, "failing gpu source must leave the field absent")
	assert.Equal(t, "TestCPU", snap.CPU.Name, "cpu fragment must survive a gpu failure")
	assert.Equal(t, 8.0, snap.Memory.UsedGB)
	assert.NotNil(t, snap.Intel)
}

func TestCollectSkipsUnavailableSource(t *testing.T) {
	nvidia := &fakeNvidia{available: false}
	agg := testAggregator()
	agg.Nvidia = nvidia

	// Unavailability is decided at construction; later cycles must not
	// probe the source again.
	for i := 0; i < 3; i++ {
		snap := agg.Collect(context.Background())
		assert.Nil(t, snap.Nvidia)
	}
	assert.Equal(t, int32(0), nvidia.calls.Load())
}

func TestCollectEnforcesInvariants(t *testing.T) {
	agg := testAggregator()
	agg.CPU = &fakeCPU{available: true, stats: CPUStats{UsagePercent: 104.2}}
	agg.Memory = &fakeMemory{available: true, stats: MemoryStats{TotalGB: 16, UsedGB: 20, UsagePercent: 125}}
	agg.Intel = &fakeIntel{available: true, stats: IntelGPUStats{UsagePercent: -3}}
	agg.Nvidia = &fakeNvidia{available: true, stats: NvidiaGPUStats{UsagePercent: 150, MemUsedGB: 9, MemTotalGB: 8}}

	snap := agg.Collect(context.Background())

	assert.Equal(t, 100.0, snap.CPU.UsagePercent)
	assert.Equal(t, 100.0, snap.Memory.UsagePercent)
	assert.Equal(t, snap.Memory.TotalGB, snap.Memory.UsedGB)
	assert.Equal(t, 0.0, snap.Intel.UsagePercent)
	assert.Equal(t, 100.0, snap.Nvidia.UsagePercent)
	assert.LessOrEqual(t, snap.Nvidia.MemUsedGB, snap.Nvidia.MemTotalGB)
}

func TestCollectCarriesIdentityWhenCPUStalls(t *testing.T) {
	agg := testAggregator()
	agg.Interval = 50 * time.Millisecond
	agg.CPU = &fakeCPU{
		available: true,
		sleep:     500 * time.Millisecond,
		stats:     CPUStats{Name: "TestCPU", PhysicalCores: 4, LogicalCores: 8, UsagePercent: 42.5},
	}

	snap := agg.Collect(context.Background())

	assert.Equal(t, "TestCPU", snap.CPU.Name, "identity comes from the startup probe, not the sample")
	assert.Equal(t, 4, snap.CPU.PhysicalCores)
	assert.Equal(t, 8, snap.CPU.LogicalCores)
	assert.Equal(t, 0.0, snap.CPU.UsagePercent, "timed-out usage stays at its absent value")
	assert.Equal(t, 8.0, snap.Memory.UsedGB)
}

func TestCollectBoundsSlowProvider(t *testing.T) {
	agg := testAggregator()
	agg.Interval = 50 * time.Millisecond
	agg.Intel = &fakeIntel{
		available: true,
		sleep:     500 * time.Millisecond,
		stats:     IntelGPUStats{UsagePercent: 30},
	}

	start := time.Now()
	snap := agg.Collect(context.Background())
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 250*time.Millisecond, "a stuck provider must not block the cycle")
	assert.Nil(t, snap.Intel, "timed-out fragment stays absent this cycle")
	assert.Equal(t, "TestCPU", snap.CPU.Name)
	assert.NotNil(t, snap.Nvidia)
}
