// Package config loads meshtile settings from defaults, a YAML file and flags.
package config

import (
	"fmt"

	meshtile "github.com/flywave/go-meshtile"
)

// Config holds all tiling settings.
type Config struct {
	Tiling    TilingConfig    `yaml:"tiling"`
	Voxel     VoxelConfig     `yaml:"voxel"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"log"`
}

// TilingConfig controls the recursive split.
type TilingConfig struct {
	PolygonBudget int  `yaml:"polygon_budget"`
	MaxDepth      int  `yaml:"max_depth"`
	LOD           bool `yaml:"lod"`
}

// VoxelConfig controls the LOD decimator.
type VoxelConfig struct {
	Resolution     [3]int `yaml:"resolution,flow"`
	AverageNormals bool   `yaml:"average_normals"`
	TextureScale   int    `yaml:"texture_scale"`
}

// SchedulerConfig bounds concurrent LOD work.
type SchedulerConfig struct {
	Slots int `yaml:"slots"`
}

// OutputConfig describes where tiles are written.
type OutputConfig struct {
	Input   string `yaml:"input,omitempty"`
	Dir     string `yaml:"dir"`
	Tileset string `yaml:"tileset"`
	ZUp     bool   `yaml:"z_up"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Tiling: TilingConfig{
			PolygonBudget: meshtile.DEFAULT_POLYGON_BUDGET,
			MaxDepth:      meshtile.DEFAULT_MAX_DEPTH,
			LOD:           true,
		},
		Voxel: VoxelConfig{
			Resolution:     [3]int{meshtile.DEFAULT_GRID_RESOLUTION, meshtile.DEFAULT_GRID_RESOLUTION, meshtile.DEFAULT_GRID_RESOLUTION},
			AverageNormals: true,
			TextureScale:   meshtile.DEFAULT_TEXTURE_SCALE,
		},
		Scheduler: SchedulerConfig{
			Slots: meshtile.DEFAULT_SLOTS,
		},
		Output: OutputConfig{
			Dir:     "out",
			Tileset: "tileset.json",
			ZUp:     true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Tiling.PolygonBudget < 1 {
		return fmt.Errorf("tiling.polygon_budget must be positive, got %d", c.Tiling.PolygonBudget)
	}
	if c.Tiling.MaxDepth < 0 {
		return fmt.Errorf("tiling.max_depth must not be negative, got %d", c.Tiling.MaxDepth)
	}
	for i, r := range c.Voxel.Resolution {
		if r < 1 {
			return fmt.Errorf("voxel.resolution[%d] must be positive, got %d", i, r)
		}
	}
	if c.Voxel.TextureScale < 1 {
		return fmt.Errorf("voxel.texture_scale must be positive, got %d", c.Voxel.TextureScale)
	}
	if c.Scheduler.Slots < 1 {
		return fmt.Errorf("scheduler.slots must be positive, got %d", c.Scheduler.Slots)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	return nil
}

// Options converts the settings to pipeline options.
func (c *Config) Options() meshtile.Options {
	return meshtile.Options{
		PolygonBudget: c.Tiling.PolygonBudget,
		MaxDepth:      c.Tiling.MaxDepth,
		LOD:           c.Tiling.LOD,
		Slots:         c.Scheduler.Slots,
		ZUp:           c.Output.ZUp,
		Decimator: meshtile.DecimatorOptions{
			Resolution:     c.Voxel.Resolution,
			AverageNormals: c.Voxel.AverageNormals,
			TextureScale:   c.Voxel.TextureScale,
		},
	}
}
