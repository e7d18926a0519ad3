package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCard lays out a DRM card directory the way the i915 driver does.
func writeCard(t *testing.T, root, card, vendor string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, card)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "device"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "device", "vendor"), []byte(vendor+"\n"), 0o644))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644))
	}
}

func TestNewIntelGPUDetectsCard(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x8086", map[string]string{
		"gt_cur_freq_mhz": "300",
		"gt_max_freq_mhz": "1200",
	})

	g := NewIntelGPU(context.Background(), root)
	assert.True(t, g.Available())
}

func TestNewIntelGPUIgnoresOtherVendors(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x10de", map[string]string{
		"gt_cur_freq_mhz": "300",
	})

	g := NewIntelGPU(context.Background(), root)
	assert.False(t, g.Available())
}

func TestNewIntelGPUNeedsFreqFiles(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x8086", nil)

	g := NewIntelGPU(context.Background(), root)
	assert.False(t, g.Available())
}

func TestIntelSampleClockRatio(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x8086", map[string]string{
		"gt_cur_freq_mhz": "300",
		"gt_max_freq_mhz": "1200",
	})

	g := NewIntelGPU(context.Background(), root)
	require.True(t, g.Available())

	stats, err := g.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 25.0, stats.UsagePercent, 0.001)
}

func TestIntelSampleFallsBackToNominalCeiling(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x8086", map[string]string{
		"gt_cur_freq_mhz": "500",
	})

	g := NewIntelGPU(context.Background(), root)
	require.True(t, g.Available())

	stats, err := g.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 50.0, stats.UsagePercent, 0.001)
}

func TestIntelSampleClampsBoostClock(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x8086", map[string]string{
		"gt_cur_freq_mhz": "1500",
		"gt_max_freq_mhz": "1200",
	})

	g := NewIntelGPU(context.Background(), root)
	require.True(t, g.Available())

	stats, err := g.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, stats.UsagePercent)
}

func TestIntelSamplePicksIntelCardAmongOthers(t *testing.T) {
	root := t.TempDir()
	writeCard(t, root, "card0", "0x10de", map[string]string{
		"gt_cur_freq_mhz": "999",
	})
	writeCard(t, root, "card1", "0x8086", map[string]string{
		"gt_cur_freq_mhz": "600",
		"gt_max_freq_mhz": "1200",
	})

	g := NewIntelGPU(context.Background(), root)
	require.True(t, g.Available())

	stats, err := g.Sample(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 50.0, stats.UsagePercent, 0.001)
}
