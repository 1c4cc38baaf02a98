package meshtile

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
)

const TILESET_VERSION = "1.0"

type Asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

// Tileset 瓦片集文档
type Tileset struct {
	Asset          Asset   `json:"asset"`
	GeometricError float64 `json:"geometricError"`
	Root           *Tile   `json:"root"`
}

// NewTileset 顶层误差取根节点误差与根包围盒对角线的较大者
func NewTileset(root *Tile) *Tileset {
	ge := root.GeometricError
	if b := root.BoundingVolume.Box; b != nil {
		var s float64
		for i := 3; i < 12; i++ {
			s += b[i] * b[i]
		}
		ge = math.Max(ge, 2*math.Sqrt(s))
	}
	return &Tileset{
		Asset:          Asset{Version: TILESET_VERSION, Generator: "go-meshtile"},
		GeometricError: ge,
		Root:           root,
	}
}

func WriteTileset(path string, root *Tile) error {
	data, err := json.MarshalIndent(NewTileset(root), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
