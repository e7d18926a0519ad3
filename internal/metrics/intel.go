package metrics

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	intelVendorID = "0x8086"

	// Fallback ceiling when the card does not expose its max frequency.
	// Matches the nominal 1 GHz assumption the clock heuristic was
	// originally built around.
	nominalMaxFreqMHz = 1000.0
)

// IntelGPU estimates integrated-graphics load from the i915 sysfs
// frequency files. The reading is a clock-ratio heuristic, not true
// utilization: the driver exposes no busy counter without perf
// privileges, so current/max clock is the best unprivileged signal.
// Renderers should label it as an estimate.
type IntelGPU struct {
	name      string
	cardDir   string
	available bool
}

// NewIntelGPU scans the DRM class directory for an Intel card and
// resolves its marketing name from the PCI listing once. sysfsRoot is
// normally "/sys/class/drm"; tests inject a fixture directory.
func NewIntelGPU(ctx context.Context, sysfsRoot string) *IntelGPU {
	g := &IntelGPU{}

	cards, err := filepath.Glob(filepath.Join(sysfsRoot, "card[0-9]*"))
	if err != nil {
		return g
	}
	for _, card := range cards {
		vendor, err := os.ReadFile(filepath.Join(card, "device", "vendor"))
		if err != nil || strings.TrimSpace(string(vendor)) != intelVendorID {
			continue
		}
		if _, err := os.Stat(filepath.Join(card, "gt_cur_freq_mhz")); err != nil {
			continue
		}
		g.cardDir = card
		g.available = true
		break
	}
	if !g.available {
		return g
	}

	g.name = intelDeviceName(ctx)
	return g
}

// intelDeviceName matches the Intel VGA line in the lspci output. An
// empty string means the probe failed; the source keeps sampling.
func intelDeviceName(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "lspci").Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "Intel") {
			continue
		}
		if !strings.Contains(line, "VGA") && !strings.Contains(line, "Display controller") {
			continue
		}
		// "00:02.0 VGA compatible controller: Intel Corporation ..."
		if i := strings.Index(line, ": "); i >= 0 {
			return strings.TrimSpace(line[i+2:])
		}
	}
	return ""
}

// Available reports whether an Intel card with frequency files was
// found at startup.
func (g *IntelGPU) Available() bool {
	return g.available
}

// Sample reads the current and maximum GT frequency and reports their
// ratio as a usage percentage.
func (g *IntelGPU) Sample(_ context.Context) (IntelGPUStats, error) {
	stats := IntelGPUStats{Name: g.name}

	cur, err := readFreqMHz(filepath.Join(g.cardDir, "gt_cur_freq_mhz"))
	if err != nil {
		return stats, fmt.Errorf("failed to read gpu frequency: %w", err)
	}

	max, err := readFreqMHz(filepath.Join(g.cardDir, "gt_max_freq_mhz"))
	if err != nil || max <= 0 {
		max = nominalMaxFreqMHz
	}

	stats.UsagePercent = clampPercent(cur / max * 100)
	return stats, nil
}

func readFreqMHz(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
}
