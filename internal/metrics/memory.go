package metrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// HostMemory samples RAM usage through gopsutil.
type HostMemory struct{}

// NewHostMemory returns the memory source. Virtual memory stats are
// readable on every supported OS, so there is nothing to probe.
func NewHostMemory() *HostMemory {
	return &HostMemory{}
}

// Available always reports true; a per-cycle read failure is handled as
// a transient sample error instead.
func (m *HostMemory) Available() bool {
	return true
}

// Sample returns current RAM totals converted to GB.
func (m *HostMemory) Sample(ctx context.Context) (MemoryStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStats{}, fmt.Errorf("failed to get memory info: %w", err)
	}

	return MemoryStats{
		TotalGB:      toGB(vm.Total),
		UsedGB:       toGB(vm.Used),
		UsagePercent: vm.UsedPercent,
	}, nil
}
