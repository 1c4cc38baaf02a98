package meshtile

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGlb(t *testing.T, path string, doc *gltf.Document) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc := gltf.NewEncoder(f)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
}

// TestGltfRoundTrip 测试导出后重新读取得到相同的几何与纹理
func TestGltfRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mtl := texturedMaterial("brick", 16, 16)
	mtl.Color = [4]float32{0.5, 0.5, 0.5, 1}
	m := quadMesh("quad", 0, 1, 0, 2)
	m.SetMaterial(mtl, false)
	plain := boxMesh("box", vec3.T{3, 0, 0}, vec3.T{4, 1, 1})

	g := groupOf(m, plain)
	g.Name = CHUNK_GROUP_NAME
	name, err := NewGltfExporter(dir).SaveChunk(&Chunk{Group: g, ID: 5})
	require.NoError(t, err)
	assert.Equal(t, "Chunk_5.glb", name)

	loaded, err := LoadGltf(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "Chunk_5", loaded.Name)
	require.Equal(t, 2, loaded.MeshCount())
	assert.Equal(t, g.PolygonCount(), loaded.PolygonCount())
	assert.Equal(t, g.BoundingBox, loaded.BoundingBox)

	q := loaded.Meshes[0]
	assert.Equal(t, "quad_0", q.Name)
	require.True(t, q.HasUVs)
	require.True(t, q.HasNormals)
	for i, f := range q.Faces {
		for k := 0; k < 3; k++ {
			want := m.UVs[m.Faces[i].UV[k]]
			got := q.UVs[f.UV[k]]
			assert.InDelta(t, want[0], got[0], 1e-6)
			assert.InDelta(t, want[1], got[1], 1e-6)
			assert.Equal(t, m.Positions[m.Faces[i].Position[k]], q.Positions[f.Position[k]])
		}
	}

	require.NotNil(t, q.Material)
	assert.Equal(t, "brick", q.Material.Name)
	assert.Equal(t, mtl.Color, q.Material.Color)
	assert.False(t, q.Material.Repeated)
	require.True(t, q.Material.HasTexture())
	assert.Equal(t, 16, q.Material.Image.Width)

	b := loaded.Meshes[1]
	assert.Nil(t, b.Material)
	assert.True(t, b.HasUVs)
	assert.Equal(t, 12, b.PolygonCount())
}

// TestGltfNodeTransforms 测试节点层级变换烘焙到顶点
func TestGltfNodeTransforms(t *testing.T) {
	doc, err := GroupToGltf(groupOf(quadMesh("quad", 0, 1, 0, 1)))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)

	doc.Nodes[0].Translation = [3]float32{1, 0, 0}
	doc.Nodes[0].Scale = [3]float32{2, 2, 2}
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:        "parent",
		Children:    []uint32{0},
		Translation: [3]float32{0, 5, 0},
		Rotation:    [4]float32{0, 0, 0, 1},
		Scale:       [3]float32{1, 1, 1},
	})
	doc.Scenes[0].Nodes = []uint32{1}

	path := filepath.Join(t.TempDir(), "scene.glb")
	writeGlb(t, path, doc)
	loaded, err := LoadGltf(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.MeshCount())
	assert.Equal(t, vec3.T{1, 5, 0}, loaded.BoundingBox.Min)
	assert.Equal(t, vec3.T{3, 5, 2}, loaded.BoundingBox.Max)
}

// TestGltfMirroredNode 测试镜像变换翻转三角形绕序, 法线与几何一致
func TestGltfMirroredNode(t *testing.T) {
	doc, err := GroupToGltf(groupOf(quadMesh("quad", 0, 1, 0, 1)))
	require.NoError(t, err)
	doc.Nodes[0].Scale = [3]float32{-1, 1, 1}

	path := filepath.Join(t.TempDir(), "mirror.glb")
	writeGlb(t, path, doc)
	loaded, err := LoadGltf(path)
	require.NoError(t, err)

	m := loaded.Meshes[0]
	assert.Equal(t, float32(-1), m.BoundingBox.Min[0])
	for _, f := range m.Faces {
		n := triangleNormal(&m.Positions[f.Position[0]], &m.Positions[f.Position[1]], &m.Positions[f.Position[2]])
		assert.Greater(t, vec3.Dot(&n, &m.Normals[f.Normal[0]]), float32(0))
	}
}

// TestGltfLoaderImageSources 测试data URI与外部文件纹理
func TestGltfLoaderImageSources(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradientImage(4, 2).ToImage()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tex.png"), buf.Bytes(), 0o644))

	l := NewGltfLoader(&gltf.Document{}, dir)

	im, err := l.decodeImage(&gltf.Image{URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())})
	require.NoError(t, err)
	assert.Equal(t, 4, im.Width)

	im, err = l.decodeImage(&gltf.Image{URI: "tex.png"})
	require.NoError(t, err)
	assert.Equal(t, 2, im.Height)

	_, err = l.decodeImage(&gltf.Image{})
	assert.Error(t, err)
	_, err = l.decodeImage(&gltf.Image{URI: "data:image/png;base64"})
	assert.Error(t, err)
}

// TestCalcPadding 测试缓冲对齐
func TestCalcPadding(t *testing.T) {
	tests := []struct{ offset, want int }{{0, 0}, {1, 3}, {4, 0}, {6, 2}}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calcPadding(tt.offset, PaddingUnit))
	}
}
