package meshtile

import (
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRemesh 测试只保留被引用顶点且保持原顺序
func TestRemesh(t *testing.T) {
	positions := []vec3.T{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}, {5, 0, 0}}
	uvs := []vec2.T{{0, 0}, {0.1, 0}, {0.2, 0}, {0.3, 0}, {0.4, 0}, {0.5, 0}}

	m := NewMesh("m")
	m.HasUVs = true
	m.Faces = []Face{{Position: [3]uint32{3, 5, 1}, UV: [3]uint32{3, 5, 1}}}
	m.Remesh(positions, nil, uvs)

	require.Len(t, m.Positions, 3)
	assert.Equal(t, []vec3.T{{1, 0, 0}, {3, 0, 0}, {5, 0, 0}}, m.Positions)
	assert.Equal(t, [3]uint32{1, 2, 0}, m.Faces[0].Position)
	assert.Equal(t, [3]uint32{1, 2, 0}, m.Faces[0].UV)
	assert.Equal(t, vec2.T{0.3, 0}, m.UVs[m.Faces[0].UV[0]])
	assert.False(t, m.HasNormals)
	assert.Equal(t, vec3.T{1, 0, 0}, m.BoundingBox.Min)
	assert.Equal(t, vec3.T{5, 0, 0}, m.BoundingBox.Max)

	// 缓冲已经只含被引用的顶点时, 再次压缩应得到相同结果
	before := m.Clone()
	m.Remesh(m.Positions, m.Normals, m.UVs)
	assert.Equal(t, before.Positions, m.Positions)
	assert.Equal(t, before.UVs, m.UVs)
	assert.Equal(t, before.Faces, m.Faces)
}

// TestRecomputeNormals 测试逐顶点法线重建
func TestRecomputeNormals(t *testing.T) {
	m := quadMesh("q", 0, 1, 0, 1)
	m.Normals = nil
	m.HasNormals = false
	m.RecomputeNormals()

	require.True(t, m.HasNormals)
	require.Len(t, m.Normals, len(m.Positions))
	for i, f := range m.Faces {
		assert.Equal(t, f.Position, f.Normal, "face %d", i)
	}
	for _, n := range m.Normals {
		assert.InDelta(t, 0, n[0], 1e-6)
		assert.InDelta(t, 1, n[1], 1e-6)
		assert.InDelta(t, 0, n[2], 1e-6)
	}
}

// TestTriangleNormalDegenerate 测试退化三角形使用默认法线
func TestTriangleNormalDegenerate(t *testing.T) {
	a, b := vec3.T{0, 0, 0}, vec3.T{1, 1, 1}
	assert.Equal(t, DefaultNormal, triangleNormal(&a, &b, &b))
	assert.Equal(t, DefaultNormal, triangleNormal(&a, &a, &a))
}

// TestMeshCloneAndFree 测试拷贝独立与纹理所有权
func TestMeshCloneAndFree(t *testing.T) {
	shared := texturedMaterial("shared", 4, 4)
	m := quadMesh("q", 0, 1, 0, 1)
	m.SetMaterial(shared, false)

	c := m.Clone()
	c.Positions[0] = vec3.T{9, 9, 9}
	assert.NotEqual(t, c.Positions[0], m.Positions[0])
	assert.Same(t, m.Material, c.Material)

	c.Free()
	assert.Nil(t, c.Faces)
	assert.True(t, shared.HasTexture(), "borrowed texture must survive Free")

	owned := texturedMaterial("owned", 4, 4)
	o := quadMesh("o", 0, 1, 0, 1)
	o.SetMaterial(owned, true)
	o.Free()
	assert.False(t, owned.HasTexture())
}

// TestGroupTraverse 测试先子组后自身网格的遍历顺序
func TestGroupTraverse(t *testing.T) {
	root := NewGroup("root")
	root.AddMesh(quadMesh("root_mesh", 0, 1, 0, 1))
	child := NewGroup("child")
	child.AddMesh(quadMesh("child_mesh", 2, 3, 0, 1))
	grandchild := NewGroup("grandchild")
	grandchild.AddMesh(quadMesh("grandchild_mesh", 4, 5, 0, 1))
	child.AddChild(grandchild)
	root.AddChild(child)

	var names []string
	root.Traverse(func(m *Mesh) { names = append(names, m.Name) })
	assert.Equal(t, []string{"grandchild_mesh", "child_mesh", "root_mesh"}, names)
	assert.Equal(t, 3, root.MeshCount())
	assert.Equal(t, 6, root.PolygonCount())

	box := root.ComputeBoundingBox()
	assert.Equal(t, vec3.T{0, 0, 0}, box.Min)
	assert.Equal(t, vec3.T{5, 0, 1}, box.Max)
	assert.Equal(t, box, BoundingBoxOf(root))

	uv := root.ComputeUVBox()
	assert.Equal(t, UnitBox2(), uv)

	root.Free()
	assert.Equal(t, 0, root.PolygonCount())
}

// TestGroupGeometricError 测试误差均值
func TestGroupGeometricError(t *testing.T) {
	a, b := quadMesh("a", 0, 1, 0, 1), quadMesh("b", 0, 1, 0, 1)
	a.GeometricError, b.GeometricError = 1, 3
	g := groupOf(a, b)
	assert.Equal(t, float32(2), g.ComputeGeometricError())

	parent := NewGroup("parent")
	parent.AddChild(g)
	other := NewGroup("other")
	c := quadMesh("c", 0, 1, 0, 1)
	c.GeometricError = 4
	other.AddMesh(c)
	parent.AddChild(other)
	assert.Equal(t, float32(3), parent.ComputeGeometricError())

	assert.Equal(t, float32(0), NewGroup("empty").ComputeGeometricError())
}
