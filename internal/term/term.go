// Package term renders the current snapshot as a fixed-format text
// report, redrawn once per refresh period until the context is
// cancelled.
package term

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"sysmon/internal/metrics"
)

const clearScreen = "\033[2J\033[H"

// Printer redraws the snapshot report on each tick.
type Printer struct {
	Out      io.Writer
	Store    *metrics.Store
	Interval time.Duration
}

// Banner prints the one-time identity header from the first available
// snapshot fields. Missing GPU sections are simply omitted.
func (p *Printer) Banner() {
	snap := p.Store.Read()

	fmt.Fprintln(p.Out, "System Monitor")
	fmt.Fprintln(p.Out, strings.Repeat("=", 50))
	if snap.CPU.Name != "" {
		fmt.Fprintf(p.Out, "CPU: %s\n", snap.CPU.Name)
		fmt.Fprintf(p.Out, "Cores/Threads: %d/%d\n", snap.CPU.PhysicalCores, snap.CPU.LogicalCores)
	}
	if snap.Intel != nil && snap.Intel.Name != "" {
		fmt.Fprintf(p.Out, "Intel GPU: %s\n", snap.Intel.Name)
	}
	if snap.Nvidia != nil && snap.Nvidia.Name != "" {
		fmt.Fprintf(p.Out, "NVIDIA GPU: %s\n", snap.Nvidia.Name)
	}
	fmt.Fprintln(p.Out, strings.Repeat("=", 50))
	fmt.Fprintln(p.Out, "Press Ctrl+C to exit")
}

// Render writes one full report for the given snapshot.
func (p *Printer) Render(snap *metrics.Snapshot) {
	fmt.Fprint(p.Out, clearScreen)

	fmt.Fprintf(p.Out, "CPU:  %5.1f%% | %.0f MHz\n",
		snap.CPU.UsagePercent, snap.CPU.FrequencyMHz)
	fmt.Fprintf(p.Out, "RAM:  %.2f GB / %.2f GB (%.1f%%)\n",
		snap.Memory.UsedGB, snap.Memory.TotalGB, snap.Memory.UsagePercent)

	if snap.Intel != nil {
		fmt.Fprintf(p.Out, "Intel GPU:  %5.1f%% (clock-based estimate)\n",
			snap.Intel.UsagePercent)
	}
	if snap.Nvidia != nil {
		fmt.Fprintf(p.Out, "NVIDIA GPU: %5.1f%% | Memory: %.2f GB / %.2f GB | Temp: %.0f°C\n",
			snap.Nvidia.UsagePercent, snap.Nvidia.MemUsedGB,
			snap.Nvidia.MemTotalGB, snap.Nvidia.TemperatureC)
	}

	fmt.Fprintln(p.Out, strings.Repeat("-", 50))
	fmt.Fprintf(p.Out, "Refreshing every %s\n", p.Interval)
}

// Run prints the banner, then redraws each period until cancellation.
// Returns nil on a clean interrupt.
func (p *Printer) Run(ctx context.Context) error {
	p.Banner()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.Out, "\nShutting down monitor...")
			return nil
		case <-ticker.C:
			p.Render(p.Store.Read())
		}
	}
}
