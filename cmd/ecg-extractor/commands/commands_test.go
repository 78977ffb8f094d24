package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ecg-extractor/internal/ecg/ecgtest"
)

func resetFlags(t *testing.T) {
	t.Helper()
	cfgFile, verbose, noColor = "", false, true
	modeFlag, upsampleFlag, workersFlag = "", -1, 0
	noSidecar, noStore = false, false
	batchRecursive, batchFailFast = false, false
	t.Setenv("LOG_LEVEL", "disabled")
}

func TestLoadConfig_Overrides(t *testing.T) {
	resetFlags(t)
	modeFlag = "h"
	upsampleFlag = 0
	workersFlag = 7
	noSidecar = true
	noStore = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "h", cfg.Extraction.Mode)
	assert.Equal(t, 0, cfg.Extraction.UpsampleTo)
	assert.Equal(t, 7, cfg.Extraction.Workers)
	assert.False(t, cfg.Extraction.WriteSidecar)
	assert.Equal(t, "none", cfg.Database.Driver)
}

func TestLoadConfig_InvalidMode(t *testing.T) {
	resetFlags(t)
	modeFlag = "Q"
	_, err := loadConfig()
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.svg"),
		ecgtest.SVG(ecgtest.LeadLength500, ecgtest.RhythmLength500), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.svg"), ecgtest.SVG(1000, 4000), 0o644))

	rootCmd.SetArgs([]string{"batch", dir, "--no-store", "--no-color"})
	require.NoError(t, Execute(), "failed pages are skipped")
	assert.FileExists(t, filepath.Join(dir, "a.json"))
	assert.NoFileExists(t, filepath.Join(dir, "b.json"))

	resetFlags(t)
	rootCmd.SetArgs([]string{"batch", dir, "--no-store", "--no-sidecar", "--fail-fast", "--workers", "1"})
	assert.Error(t, Execute())
}

func TestExtractCommand(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "page.svg")
	require.NoError(t, os.WriteFile(path,
		ecgtest.SVG(ecgtest.LeadLength250, ecgtest.RhythmLength250, ecgtest.Texts()...), 0o644))

	rootCmd.SetArgs([]string{"extract", path, "--no-store", "--no-sidecar"})
	require.NoError(t, Execute())

	resetFlags(t)
	rootCmd.SetArgs([]string{"extract", filepath.Join(dir, "missing.svg"), "--no-store"})
	assert.Error(t, Execute())
}

func TestCachePurgeCommand(t *testing.T) {
	resetFlags(t)
	rootCmd.SetArgs([]string{"cache", "purge", "--no-store"})
	assert.NoError(t, Execute())

	resetFlags(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache:\n  driver: none\n"), 0o644))
	rootCmd.SetArgs([]string{"cache", "purge", "--no-store", "--config", cfgPath})
	assert.NoError(t, Execute())
}

func TestMinMax(t *testing.T) {
	lo, hi := minMax([]float64{3, -1, 2})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 3.0, hi)

	lo, hi = minMax(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
