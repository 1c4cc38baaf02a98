package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 20000, cfg.Tiling.PolygonBudget)
	assert.Equal(t, 32, cfg.Tiling.MaxDepth)
	assert.True(t, cfg.Tiling.LOD)
	assert.Equal(t, [3]int{32, 32, 32}, cfg.Voxel.Resolution)
	assert.True(t, cfg.Voxel.AverageNormals)
	assert.Equal(t, 8, cfg.Voxel.TextureScale)
	assert.Equal(t, 4, cfg.Scheduler.Slots)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "tileset.json", cfg.Output.Tileset)
	assert.True(t, cfg.Output.ZUp)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshtile.yaml")
	content := `
tiling:
  polygon_budget: 5000
  lod: false
voxel:
  resolution: [16, 8, 16]
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, path))

	assert.Equal(t, 5000, cfg.Tiling.PolygonBudget)
	assert.False(t, cfg.Tiling.LOD)
	assert.Equal(t, [3]int{16, 8, 16}, cfg.Voxel.Resolution)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 32, cfg.Tiling.MaxDepth)
	assert.Equal(t, 4, cfg.Scheduler.Slots)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiling:\n  polygon_budget: 100\nscheduler:\n  slots: 2\n"), 0644))

	f, err := ParseFlags("meshtile", []string{"-config", path, "-budget", "50", "-debug", "model.glb"}, io.Discard)
	require.NoError(t, err)

	cfg, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Tiling.PolygonBudget)
	assert.Equal(t, 2, cfg.Scheduler.Slots)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "model.glb", cfg.Output.Input)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	f := &Flags{Config: filepath.Join(t.TempDir(), "nope.yaml")}
	_, err := Load(f)
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiling: [1, 2]\n"), 0644))
	_, err := Load(&Flags{Config: path})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"budget", func(c *Config) { c.Tiling.PolygonBudget = 0 }},
		{"depth", func(c *Config) { c.Tiling.MaxDepth = -1 }},
		{"resolution", func(c *Config) { c.Voxel.Resolution[1] = 0 }},
		{"texture scale", func(c *Config) { c.Voxel.TextureScale = 0 }},
		{"slots", func(c *Config) { c.Scheduler.Slots = 0 }},
		{"output", func(c *Config) { c.Output.Dir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meshtile.yaml")
	cfg := Default()
	cfg.Tiling.PolygonBudget = 1234
	cfg.Voxel.Resolution = [3]int{8, 16, 24}
	require.NoError(t, cfg.SaveTo(path))

	loaded := Default()
	require.NoError(t, loadFromFile(loaded, path))
	assert.Equal(t, cfg, loaded)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Tiling.LOD = false
	cfg.Scheduler.Slots = 3
	opts := cfg.Options()

	assert.Equal(t, cfg.Tiling.PolygonBudget, opts.PolygonBudget)
	assert.Equal(t, cfg.Tiling.MaxDepth, opts.MaxDepth)
	assert.False(t, opts.LOD)
	assert.Equal(t, 3, opts.Slots)
	assert.True(t, opts.ZUp)
	assert.Equal(t, cfg.Voxel.Resolution, opts.Decimator.Resolution)
	assert.Equal(t, cfg.Voxel.TextureScale, opts.Decimator.TextureScale)
}

func TestParseFlagsUnknown(t *testing.T) {
	_, err := ParseFlags("meshtile", []string{"-nope"}, io.Discard)
	assert.Error(t, err)
}
