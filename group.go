package meshtile

// Group 网格组, 树节点
type Group struct {
	Name           string
	Children       []*Group
	Meshes         []*Mesh
	BoundingBox    Box3
	UVBox          Box2
	GeometricError float32
}

func NewGroup(name string) *Group {
	return &Group{Name: name, BoundingBox: EmptyBox3(), UVBox: EmptyBox2()}
}

func (g *Group) AddMesh(m *Mesh) {
	g.Meshes = append(g.Meshes, m)
}

func (g *Group) AddChild(c *Group) {
	g.Children = append(g.Children, c)
}

// Traverse 深度优先, 先子组后自身网格
func (g *Group) Traverse(fn func(m *Mesh)) {
	for _, c := range g.Children {
		c.Traverse(fn)
	}
	for _, m := range g.Meshes {
		fn(m)
	}
}

func (g *Group) PolygonCount() int {
	n := 0
	g.Traverse(func(m *Mesh) {
		n += len(m.Faces)
	})
	return n
}

func (g *Group) MeshCount() int {
	n := 0
	g.Traverse(func(*Mesh) { n++ })
	return n
}

// ComputeBoundingBox 自底向上汇总包围盒, 首个网格或子组作为种子
func (g *Group) ComputeBoundingBox() Box3 {
	box := EmptyBox3()
	for _, m := range g.Meshes {
		box.ExtendBox(&m.BoundingBox)
	}
	for _, c := range g.Children {
		cb := c.ComputeBoundingBox()
		box.ExtendBox(&cb)
	}
	g.BoundingBox = box
	return box
}

func (g *Group) ComputeUVBox() Box2 {
	box := EmptyBox2()
	g.Traverse(func(m *Mesh) {
		box.ExtendBox(&m.UVBox)
	})
	g.UVBox = box
	return box
}

// ComputeGeometricError 直接网格的误差均值, 没有网格时取子组均值
func (g *Group) ComputeGeometricError() float32 {
	if len(g.Meshes) > 0 {
		var sum float32
		for _, m := range g.Meshes {
			sum += m.GeometricError
		}
		g.GeometricError = sum / float32(len(g.Meshes))
		return g.GeometricError
	}
	g.GeometricError = 0
	if len(g.Children) == 0 {
		return 0
	}
	var sum float32
	for _, c := range g.Children {
		sum += c.ComputeGeometricError()
	}
	g.GeometricError = sum / float32(len(g.Children))
	return g.GeometricError
}

// Free 释放所有网格
func (g *Group) Free() {
	g.Traverse(func(m *Mesh) {
		m.Free()
	})
	g.Meshes = nil
	g.Children = nil
}

// BoundingBoxOf 由顶点直接计算包围盒, 不修改组或网格
func BoundingBoxOf(g *Group) Box3 {
	box := EmptyBox3()
	g.Traverse(func(m *Mesh) {
		for i := range m.Positions {
			box.ExtendPoint(&m.Positions[i])
		}
	})
	return box
}
