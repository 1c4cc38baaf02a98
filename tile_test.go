package meshtile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitChunk(id, parent ID) *Chunk {
	return &Chunk{
		Kind:           CHUNK_KIND_TERMINAL,
		ID:             id,
		ParentID:       parent,
		BoundingBox:    Box3{Min: vec3.T{0, 0, 0}, Max: vec3.T{2, 4, 6}},
		GeometricError: 1.5,
	}
}

// TestBoundingVolumeValidate 测试包围体必须且只能有一个
func TestBoundingVolumeValidate(t *testing.T) {
	_, err := NewTile(1, NoParent, BoundingVolume{}, 0)
	assert.ErrorIs(t, err, ErrNoBoundingVolume)

	box := [12]float64{}
	sphere := [4]float64{0, 0, 0, 1}
	_, err = NewTile(1, NoParent, BoundingVolume{Box: &box, Sphere: &sphere}, 0)
	assert.Error(t, err)

	tile, err := NewTile(1, NoParent, BoundingVolume{Sphere: &sphere}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, tile.GeometricError)

	tile.BoundingVolume = BoundingVolume{}
	_, err = json.Marshal(tile)
	assert.ErrorIs(t, err, ErrNoBoundingVolume)
}

// TestBoxVolume 测试中心加半轴的盒及y向上到z向上的转换
func TestBoxVolume(t *testing.T) {
	b := Box3{Min: vec3.T{0, 0, 0}, Max: vec3.T{2, 4, 6}}

	yUp := BoxVolume(&b, false)
	require.NotNil(t, yUp.Box)
	assert.Equal(t, [12]float64{1, 2, 3, 1, 0, 0, 0, 2, 0, 0, 0, 3}, *yUp.Box)

	zUp := BoxVolume(&b, true)
	require.NotNil(t, zUp.Box)
	assert.Equal(t, [12]float64{1, -3, 2, 1, 0, 0, 0, 3, 0, 0, 0, 2}, *zUp.Box)
	assert.Nil(t, zUp.Sphere)
	assert.Nil(t, zUp.Region)
}

// TestTileSearch 测试遍历与按标识查找
func TestTileSearch(t *testing.T) {
	vol := BoxVolume(&Box3{Min: vec3.T{0, 0, 0}, Max: vec3.T{1, 1, 1}}, false)
	root, _ := NewTile(0, NoParent, vol, 10)
	a, _ := NewTile(1, 0, vol, 5)
	b, _ := NewTile(2, 0, vol, 5)
	c, _ := NewTile(3, 1, vol, 1)
	a.AddChild(c)
	root.AddChild(a)
	root.AddChild(b)

	var order []ID
	root.Traverse(func(t *Tile) { order = append(order, t.ID) })
	assert.Equal(t, []ID{1, 3, 2}, order)

	assert.Same(t, root, root.FindTileByID(0))
	assert.Same(t, c, root.FindTileByID(3))
	assert.Nil(t, root.FindTileByID(9))
	assert.Same(t, b, root.Search(func(t *Tile) bool { return t.GeometricError == 5 && t.ID == 2 }))
}

// TestAssemblerOutOfOrder 测试父节点晚到时子节点暂存后挂接
func TestAssemblerOutOfOrder(t *testing.T) {
	asm := NewAssembler(false)
	_, err := asm.Add(unitChunk(2, 0), "Chunk_2.glb")
	require.NoError(t, err)
	_, err = asm.Add(unitChunk(1, 0), "Chunk_1.glb")
	require.NoError(t, err)

	_, err = asm.Root()
	assert.ErrorIs(t, err, ErrUnknownParent)

	_, err = asm.Add(unitChunk(0, NoParent), "Lod_0.glb")
	require.NoError(t, err)
	root, err := asm.Root()
	require.NoError(t, err)

	assert.Equal(t, 3, asm.Len())
	assert.Equal(t, REFINE_REPLACE, root.Refine)
	require.Len(t, root.Children, 2)
	assert.Equal(t, ID(1), root.Children[0].ID)
	assert.Equal(t, ID(2), root.Children[1].ID)
	assert.Equal(t, "Chunk_1.glb", root.Children[0].Content.URI)
}

// TestAssemblerErrors 测试重复标识与缺少根节点
func TestAssemblerErrors(t *testing.T) {
	asm := NewAssembler(true)
	_, err := asm.Root()
	assert.ErrorIs(t, err, ErrNoRoot)

	_, err = asm.Add(unitChunk(0, NoParent), "")
	require.NoError(t, err)
	_, err = asm.Add(unitChunk(0, NoParent), "")
	assert.ErrorIs(t, err, ErrDuplicateID)
	_, err = asm.Add(unitChunk(5, NoParent), "")
	assert.ErrorIs(t, err, ErrDuplicateID)

	root, err := asm.Root()
	require.NoError(t, err)
	assert.Nil(t, root.Content)
}

// TestWriteTileset 测试瓦片集文档字段
func TestWriteTileset(t *testing.T) {
	asm := NewAssembler(false)
	_, err := asm.Add(unitChunk(0, NoParent), "")
	require.NoError(t, err)
	_, err = asm.Add(unitChunk(1, 0), "Chunk_1.glb")
	require.NoError(t, err)
	root, err := asm.Root()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "tileset.json")
	require.NoError(t, WriteTileset(path, root))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	asset := doc["asset"].(map[string]interface{})
	assert.Equal(t, TILESET_VERSION, asset["version"])

	r := doc["root"].(map[string]interface{})
	assert.Equal(t, "REPLACE", r["refine"])
	assert.Equal(t, 1.5, r["geometricError"])
	assert.NotContains(t, r, "content")
	assert.NotContains(t, r, "ID")
	box := r["boundingVolume"].(map[string]interface{})["box"].([]interface{})
	assert.Len(t, box, 12)

	children := r["children"].([]interface{})
	require.Len(t, children, 1)
	child := children[0].(map[string]interface{})
	assert.Equal(t, "Chunk_1.glb", child["content"].(map[string]interface{})["uri"])
	assert.NotContains(t, child, "children")

	// 顶层误差不小于根盒对角线 2*|(1,2,3)|
	assert.InDelta(t, 7.483, doc["geometricError"].(float64), 1e-3)
}
