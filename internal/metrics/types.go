package metrics

import "time"

// CPUStats holds processor identity and the latest usage reading.
// Name and core counts are probed once at startup and carried into
// every snapshot unchanged.
type CPUStats struct {
	Name          string  `json:"name"`
	PhysicalCores int     `json:"physical_cores"`
	LogicalCores  int     `json:"logical_cores"`
	UsagePercent  float64 `json:"usage_percent"`
	FrequencyMHz  float64 `json:"frequency_mhz"`
}

// MemoryStats holds RAM totals in decimal-formatted GB (bytes / 1024^3).
type MemoryStats struct {
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	UsagePercent float64 `json:"usage_percent"`
}

// IntelGPUStats is a best-effort estimate derived from the i915 sysfs
// frequency files. UsagePercent is a clock-ratio heuristic, not a true
// utilization metric.
type IntelGPUStats struct {
	Name         string  `json:"name"`
	UsagePercent float64 `json:"usage_percent"`
}

// NvidiaGPUStats holds the NVML readings for device 0.
type NvidiaGPUStats struct {
	Name         string  `json:"name"`
	UsagePercent float64 `json:"usage_percent"`
	MemUsedGB    float64 `json:"mem_used_gb"`
	MemTotalGB   float64 `json:"mem_total_gb"`
	TemperatureC float64 `json:"temperature_c"`
}

// Snapshot is an immutable point-in-time bundle of all sampled metrics.
// A nil GPU pointer means the device is absent or could not report this
// cycle, which is distinct from a device reporting zero. Snapshots are
// built wholesale each cycle and must not be mutated after publishing.
type Snapshot struct {
	CPU    CPUStats        `json:"cpu"`
	Memory MemoryStats     `json:"memory"`
	Intel  *IntelGPUStats  `json:"gpu_intel,omitempty"`
	Nvidia *NvidiaGPUStats `json:"gpu_nvidia,omitempty"`
	Taken  time.Time       `json:"taken"`
}

const bytesPerGB = 1 << 30

// toGB converts a byte count to GB the way the rest of the snapshot
// reports memory.
func toGB(b uint64) float64 {
	return float64(b) / bytesPerGB
}

// clampPercent bounds a percentage reading to [0,100]. Sources can
// report slightly out-of-range values (rounding in OS counters, sysfs
// boost clocks above the nominal ceiling).
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// normalize enforces the snapshot invariants regardless of what the
// providers returned: percentages stay in [0,100] and used memory never
// exceeds the total.
func (s *Snapshot) normalize() {
	s.CPU.UsagePercent = clampPercent(s.CPU.UsagePercent)

	s.Memory.UsagePercent = clampPercent(s.Memory.UsagePercent)
	if s.Memory.UsedGB > s.Memory.TotalGB {
		s.Memory.UsedGB = s.Memory.TotalGB
	}

	if s.Intel != nil {
		s.Intel.UsagePercent = clampPercent(s.Intel.UsagePercent)
	}
	if s.Nvidia != nil {
		s.Nvidia.UsagePercent = clampPercent(s.Nvidia.UsagePercent)
		if s.Nvidia.MemUsedGB > s.Nvidia.MemTotalGB {
			s.Nvidia.MemUsedGB = s.Nvidia.MemTotalGB
		}
	}
}
