package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// cpuSampleWindow is the interval-averaging window for usage readings.
// Short enough to fit comfortably inside one sampling cycle, long
// enough to avoid the instantaneous-zero reading a zero interval gives.
const cpuSampleWindow = 200 * time.Millisecond

// HostCPU samples processor usage and frequency through gopsutil.
type HostCPU struct {
	name          string
	physicalCores int
	logicalCores  int
	available     bool
}

// NewHostCPU probes the processor identity once. A failed probe leaves
// the name empty and the source unavailable; it does not abort startup.
func NewHostCPU(ctx context.Context) *HostCPU {
	c := &HostCPU{}

	info, err := cpu.InfoWithContext(ctx)
	if err != nil || len(info) == 0 {
		return c
	}
	c.name = info[0].ModelName

	if physical, err := cpu.CountsWithContext(ctx, false); err == nil {
		c.physicalCores = physical
	}
	if logical, err := cpu.CountsWithContext(ctx, true); err == nil {
		c.logicalCores = logical
	}

	c.available = true
	return c
}

// Available reports whether the construction-time probe succeeded.
func (c *HostCPU) Available() bool {
	return c.available
}

// Static returns the identity fields probed at construction. They are
// valid even on cycles where the usage sample never lands.
func (c *HostCPU) Static() CPUStats {
	return CPUStats{
		Name:          c.name,
		PhysicalCores: c.physicalCores,
		LogicalCores:  c.logicalCores,
	}
}

// Sample returns the interval-averaged usage over a short window plus
// the current core frequency. Static identity fields are carried from
// the startup probe.
func (c *HostCPU) Sample(ctx context.Context) (CPUStats, error) {
	stats := CPUStats{
		Name:          c.name,
		PhysicalCores: c.physicalCores,
		LogicalCores:  c.logicalCores,
	}

	percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil {
		return stats, fmt.Errorf("failed to sample cpu usage: %w", err)
	}
	if len(percents) > 0 {
		stats.UsagePercent = percents[0]
	}

	// cpu.Info re-reads /proc/cpuinfo on Linux, which tracks the
	// current scaling frequency per core.
	info, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read cpu frequency: %w", err)
	}
	if len(info) > 0 && info[0].Mhz > 0 {
		stats.FrequencyMHz = info[0].Mhz
	}

	return stats, nil
}
