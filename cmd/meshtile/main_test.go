package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	meshtile "github.com/flywave/go-meshtile"
	"github.com/flywave/go-meshtile/internal/config"
)

// writeModel writes n separated unit quads on the y=0 plane as a GLB.
func writeModel(t *testing.T, path string, n int) {
	t.Helper()
	g := meshtile.NewGroup("model")
	for i := 0; i < n; i++ {
		x := float32(2 * i)
		m := meshtile.NewMesh(fmt.Sprintf("quad_%d", i))
		m.Positions = []vec3.T{{x, 0, 0}, {x + 1, 0, 0}, {x + 1, 0, 1}, {x, 0, 1}}
		m.Faces = []meshtile.Face{
			{Position: [3]uint32{0, 2, 1}},
			{Position: [3]uint32{0, 3, 2}},
		}
		m.Finish()
		m.RecomputeNormals()
		m.ComputeBoundingBox()
		g.AddMesh(m)
	}
	g.ComputeBoundingBox()

	doc, err := meshtile.GroupToGltf(g)
	require.NoError(t, err)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc := gltf.NewEncoder(f)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.Default()
	cfg.Voxel.Resolution = [3]int{4, 4, 4}
	cfg.Scheduler.Slots = 2
	cfg.Logging.Level = "error"
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, cfg.SaveTo(path))
	return path
}

func TestRunTilesModel(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.glb")
	writeModel(t, model, 4)
	out := filepath.Join(dir, "out")

	code := run([]string{"-config", writeConfig(t, dir), "-output", out, "-budget", "2", model})
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(out, "tileset.json"))
	require.NoError(t, err)
	var ts struct {
		Asset struct {
			Version string `json:"version"`
		} `json:"asset"`
		Root map[string]interface{} `json:"root"`
	}
	require.NoError(t, json.Unmarshal(data, &ts))
	assert.Equal(t, meshtile.TILESET_VERSION, ts.Asset.Version)
	assert.NotEmpty(t, ts.Root["children"])

	glbs, err := filepath.Glob(filepath.Join(out, "*.glb"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(glbs), 4)

	saved, err := config.Load(&config.Flags{Config: filepath.Join(out, config.CONFIG_FILE_NAME)})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Tiling.PolygonBudget)
	assert.Equal(t, model, saved.Output.Input)
}

func TestRunUsageErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-h"}, 0},
		{"unknown flag", []string{"-bogus"}, 2},
		{"no input", []string{"-config", cfg, "-output", dir}, 2},
		{"missing config", []string{"-config", filepath.Join(dir, "none.yaml")}, 1},
		{"missing model", []string{"-config", cfg, "-output", dir, filepath.Join(dir, "none.glb")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tt.args))
		})
	}
}
