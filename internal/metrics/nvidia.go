package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NvidiaGPU samples the first NVIDIA device through NVML. Availability
// is decided once at construction: if the driver library or a device is
// missing the source stays unavailable for the life of the process and
// no cycle re-probes it.
type NvidiaGPU struct {
	name      string
	device    nvml.Device
	available bool
}

// NewNvidiaGPU initializes NVML and grabs a long-lived handle for
// device 0. Any failure leaves the source unavailable without aborting
// startup; Close releases the library when the source was usable.
func NewNvidiaGPU() *NvidiaGPU {
	g := &NvidiaGPU{}

	if ret := nvml.Init(); ret != nvml.SUCCESS {
		slog.Debug("nvml unavailable", "reason", nvml.ErrorString(ret))
		return g
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS || count == 0 {
		nvml.Shutdown()
		return g
	}

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		nvml.Shutdown()
		return g
	}
	g.device = device

	// Probe failure keeps the name empty but the device usable.
	if name, ret := device.GetName(); ret == nvml.SUCCESS {
		g.name = name
	}

	g.available = true
	return g
}

// Available reports whether an NVIDIA device was found at startup.
func (g *NvidiaGPU) Available() bool {
	return g.available
}

// Sample queries utilization, memory and temperature for the held
// device. The context is accepted for interface symmetry; NVML queries
// are local ioctls and return promptly.
func (g *NvidiaGPU) Sample(_ context.Context) (NvidiaGPUStats, error) {
	stats := NvidiaGPUStats{Name: g.name}

	util, ret := g.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return stats, fmt.Errorf("failed to get gpu utilization: %s", nvml.ErrorString(ret))
	}
	stats.UsagePercent = float64(util.Gpu)

	memory, ret := g.device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return stats, fmt.Errorf("failed to get gpu memory info: %s", nvml.ErrorString(ret))
	}
	stats.MemUsedGB = toGB(memory.Used)
	stats.MemTotalGB = toGB(memory.Total)

	// Some boards refuse the temperature query; report the rest.
	if temp, ret := g.device.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		stats.TemperatureC = float64(temp)
	}

	return stats, nil
}

// Close shuts NVML down. Call once when the process is done sampling.
func (g *NvidiaGPU) Close() {
	if g.available {
		nvml.Shutdown()
		g.available = false
	}
}
