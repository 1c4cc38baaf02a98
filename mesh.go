package meshtile

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Mesh 网格, 位置/法线/纹理坐标为并行缓冲
type Mesh struct {
	Name           string
	Positions      []vec3.T
	Normals        []vec3.T
	UVs            []vec2.T
	Faces          []Face
	Material       *Material
	BoundingBox    Box3
	UVBox          Box2
	GeometricError float32
	HasNormals     bool
	HasUVs         bool

	ownsTexture bool
}

func NewMesh(name string) *Mesh {
	return &Mesh{Name: name, BoundingBox: EmptyBox3(), UVBox: EmptyBox2()}
}

func (m *Mesh) PolygonCount() int {
	return len(m.Faces)
}

// SetMaterial 设置材质, owned为真时释放网格同时释放纹理像素
func (m *Mesh) SetMaterial(mtl *Material, owned bool) {
	m.Material = mtl
	m.ownsTexture = owned
}

func (m *Mesh) MaterialName() string {
	if m.Material == nil {
		return ""
	}
	return m.Material.Name
}

// Finish 根据缓冲长度更新法线/纹理坐标标记
func (m *Mesh) Finish() {
	m.HasNormals = len(m.Normals) > 0
	m.HasUVs = len(m.UVs) > 0
}

func (m *Mesh) ComputeBoundingBox() {
	box := EmptyBox3()
	for i := range m.Positions {
		box.ExtendPoint(&m.Positions[i])
	}
	m.BoundingBox = box
}

func (m *Mesh) ComputeUVBox() {
	box := EmptyBox2()
	for i := range m.UVs {
		box.ExtendPoint(&m.UVs[i])
	}
	m.UVBox = box
}

// Remesh 面索引指向更大的共享缓冲时, 只保留被引用的顶点并按原索引顺序压缩
func (m *Mesh) Remesh(positions, normals []vec3.T, uvs []vec2.T) {
	order := compactIndices(len(positions), m.Faces, facePositions)
	ps := make([]vec3.T, len(order))
	for i, o := range order {
		ps[i] = positions[o]
	}

	var ns []vec3.T
	if m.HasNormals && len(normals) > 0 {
		order = compactIndices(len(normals), m.Faces, faceNormals)
		ns = make([]vec3.T, len(order))
		for i, o := range order {
			ns[i] = normals[o]
		}
	}

	var ts []vec2.T
	if m.HasUVs && len(uvs) > 0 {
		order = compactIndices(len(uvs), m.Faces, faceUVs)
		ts = make([]vec2.T, len(order))
		for i, o := range order {
			ts[i] = uvs[o]
		}
	}

	m.Positions = ps
	m.Normals = ns
	m.UVs = ts
	m.ComputeBoundingBox()
	m.ComputeUVBox()
	m.Finish()
}

// compactIndices 对被引用的索引重新编号并改写面, 返回新索引到旧索引的映射
func compactIndices(size int, faces []Face, pick func(*Face) *[3]uint32) []uint32 {
	mapping := make([]uint32, size)
	for i := range faces {
		for _, idx := range pick(&faces[i]) {
			mapping[idx] = 1
		}
	}
	var order []uint32
	for i := range mapping {
		if mapping[i] != 0 {
			order = append(order, uint32(i))
			mapping[i] = uint32(len(order))
		}
	}
	for i := range faces {
		ix := pick(&faces[i])
		for k := 0; k < 3; k++ {
			ix[k] = mapping[ix[k]] - 1
		}
	}
	return order
}

// RecomputeNormals 按面积无关的面法线平均重建逐顶点法线, 法线索引与位置索引一致
func (m *Mesh) RecomputeNormals() {
	normals := make([]vec3.T, len(m.Positions))
	for i := range m.Faces {
		f := &m.Faces[i]
		n := triangleNormal(&m.Positions[f.Position[0]], &m.Positions[f.Position[1]], &m.Positions[f.Position[2]])
		for k := 0; k < 3; k++ {
			normals[f.Position[k]].Add(&n)
		}
		f.Normal = f.Position
	}
	for i := range normals {
		if normals[i].Length() == 0 {
			normals[i] = DefaultNormal
			continue
		}
		normals[i].Normalize()
	}
	m.Normals = normals
	m.HasNormals = len(normals) > 0
}

// Clone 深拷贝缓冲, 材质共享
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:           m.Name,
		Material:       m.Material,
		BoundingBox:    m.BoundingBox.Clone(),
		UVBox:          m.UVBox.Clone(),
		GeometricError: m.GeometricError,
		HasNormals:     m.HasNormals,
		HasUVs:         m.HasUVs,
	}
	c.Positions = append([]vec3.T(nil), m.Positions...)
	c.Normals = append([]vec3.T(nil), m.Normals...)
	c.UVs = append([]vec2.T(nil), m.UVs...)
	c.Faces = append([]Face(nil), m.Faces...)
	return c
}

// Free 释放缓冲以及网格拥有的纹理
func (m *Mesh) Free() {
	if m.ownsTexture && m.Material != nil && m.Material.Image != nil {
		m.Material.Image.Free()
	}
	m.Positions = nil
	m.Normals = nil
	m.UVs = nil
	m.Faces = nil
}

// triangleNormal 单位面法线, 退化时返回默认法线
func triangleNormal(a, b, c *vec3.T) vec3.T {
	e1 := vec3.Sub(b, a)
	e2 := vec3.Sub(c, a)
	n := vec3.Cross(&e1, &e2)
	l := n.Length()
	if l == 0 {
		return DefaultNormal
	}
	n.Scale(1 / l)
	return n
}
