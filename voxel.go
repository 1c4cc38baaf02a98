package meshtile

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

var ErrInvalidResolution = errors.New("voxel grid resolution must be positive")

// cornerOffsets 立方体8个角相对体素的偏移, 顺序与查找表一致
var cornerOffsets = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// edgeCorners 12条边的端点角
var edgeCorners = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// sourceFace 体素化时记录的原始三角形
type sourceFace struct {
	positions [3]vec3.T
	uvs       [3]vec2.T
	normal    vec3.T
}

type voxelVertex struct {
	position vec3.T
	uv       vec2.T
	index    int32
}

type voxelTriangle struct {
	vertices [3]voxelVertex
	normal   vec3.T
}

// Voxel 体素, 引用与之相交的原始三角形
type Voxel struct {
	Faces          []int32
	Normal         vec3.T
	GeometricError float32

	normalSum vec3.T
}

func (v *Voxel) reset() {
	v.Faces = v.Faces[:0]
	v.Normal = vec3.T{}
	v.GeometricError = 0
	v.normalSum = vec3.T{}
}

// voxelCube 以体素(x,y,z)为最小角的立方体, 坐标从-1开始, 使网格最小面外侧也能提取表面
type voxelCube struct {
	triangles []voxelTriangle
}

// VoxelGrid 均匀体素网格, 单元尺寸各向同性
type VoxelGrid struct {
	Resolution [3]int
	Offset     vec3.T
	Unit       float32

	voxels []Voxel
	cubes  []voxelCube
	faces  []sourceFace
	hasUVs bool
}

func NewVoxelGrid(resolution [3]int) (*VoxelGrid, error) {
	for i := 0; i < 3; i++ {
		if resolution[i] <= 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResolution, resolution)
		}
	}
	return &VoxelGrid{
		Resolution: resolution,
		voxels:     make([]Voxel, resolution[0]*resolution[1]*resolution[2]),
		cubes:      make([]voxelCube, (resolution[0]+1)*(resolution[1]+1)*(resolution[2]+1)),
	}, nil
}

// Init 按包围盒设置偏移与单元尺寸并清空体素
func (g *VoxelGrid) Init(box Box3) {
	size := box.Size()
	var unit float32
	for i := 0; i < 3; i++ {
		unit = math32.Max(unit, size[i]/float32(g.Resolution[i]))
	}
	if unit <= 0 {
		unit = 1
	}
	g.Unit = unit
	g.Offset = box.Min
	if box.IsEmpty() {
		g.Offset = vec3.T{}
	}
	for i := range g.voxels {
		g.voxels[i].reset()
	}
	for i := range g.cubes {
		g.cubes[i].triangles = g.cubes[i].triangles[:0]
	}
	g.faces = g.faces[:0]
	g.hasUVs = false
}

func (g *VoxelGrid) inside(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Resolution[0] && y < g.Resolution[1] && z < g.Resolution[2]
}

func (g *VoxelGrid) Get(x, y, z int) *Voxel {
	if !g.inside(x, y, z) {
		return nil
	}
	return &g.voxels[(x*g.Resolution[1]+y)*g.Resolution[2]+z]
}

func (g *VoxelGrid) cube(x, y, z int) *voxelCube {
	if x < -1 || y < -1 || z < -1 || x >= g.Resolution[0] || y >= g.Resolution[1] || z >= g.Resolution[2] {
		return nil
	}
	ry, rz := g.Resolution[1]+1, g.Resolution[2]+1
	return &g.cubes[((x+1)*ry+y+1)*rz+z+1]
}

// eachCube 按x,y,z顺序遍历全部立方体
func (g *VoxelGrid) eachCube(fn func(x, y, z int, c *voxelCube)) {
	for x := -1; x < g.Resolution[0]; x++ {
		for y := -1; y < g.Resolution[1]; y++ {
			for z := -1; z < g.Resolution[2]; z++ {
				fn(x, y, z, g.cube(x, y, z))
			}
		}
	}
}

// Has 体素是否引用了至少一个三角形
func (g *VoxelGrid) Has(x, y, z int) bool {
	v := g.Get(x, y, z)
	return v != nil && len(v.Faces) > 0
}

// VecToGrid 世界坐标到体素坐标, 截断到网格范围
func (g *VoxelGrid) VecToGrid(p *vec3.T) [3]int {
	var c [3]int
	for i := 0; i < 3; i++ {
		c[i] = clampInt(int(math32.Floor((p[i]-g.Offset[i])/g.Unit)), 0, g.Resolution[i]-1)
	}
	return c
}

// GridToVec 体素最小角的世界坐标
func (g *VoxelGrid) GridToVec(x, y, z int) vec3.T {
	return vec3.T{
		g.Offset[0] + float32(x)*g.Unit,
		g.Offset[1] + float32(y)*g.Unit,
		g.Offset[2] + float32(z)*g.Unit,
	}
}

func (g *VoxelGrid) cellCenter(x, y, z int) vec3.T {
	h := g.Unit * 0.5
	p := g.GridToVec(x, y, z)
	return vec3.T{p[0] + h, p[1] + h, p[2] + h}
}

// Voxelize 将网格的每个三角形挂到所有与之相交的体素上
func (g *VoxelGrid) Voxelize(m *Mesh) {
	g.hasUVs = m.HasUVs
	h := g.Unit * 0.5 * (1 + 1e-4)
	half := vec3.T{h, h, h}

	for _, f := range m.Faces {
		sf := sourceFace{}
		for k := 0; k < 3; k++ {
			sf.positions[k] = m.Positions[f.Position[k]]
			if m.HasUVs {
				sf.uvs[k] = m.UVs[f.UV[k]]
			}
		}
		sf.normal = triangleNormal(&sf.positions[0], &sf.positions[1], &sf.positions[2])
		fi := int32(len(g.faces))
		g.faces = append(g.faces, sf)

		lo := g.VecToGrid(&sf.positions[0])
		hi := lo
		for k := 1; k < 3; k++ {
			c := g.VecToGrid(&sf.positions[k])
			for i := 0; i < 3; i++ {
				if c[i] < lo[i] {
					lo[i] = c[i]
				}
				if c[i] > hi[i] {
					hi[i] = c[i]
				}
			}
		}

		attached := false
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					center := g.cellCenter(x, y, z)
					if TriangleBoxOverlap(&center, &half, &sf.positions[0], &sf.positions[1], &sf.positions[2]) {
						g.attach(g.Get(x, y, z), fi, &sf.normal)
						attached = true
					}
				}
			}
		}
		if !attached {
			g.attach(g.Get(lo[0], lo[1], lo[2]), fi, &sf.normal)
		}
	}
}

func (g *VoxelGrid) attach(v *Voxel, fi int32, n *vec3.T) {
	v.Faces = append(v.Faces, fi)
	v.normalSum.Add(n)
	v.Normal = v.normalSum
	if v.Normal.Length() == 0 {
		v.Normal = DefaultNormal
	} else {
		v.Normal.Normalize()
	}
}

// CornerCode 8位角占用码, 角对应的体素有三角形即为占用
func (g *VoxelGrid) CornerCode(x, y, z int) uint8 {
	var code uint8
	for i, o := range cornerOffsets {
		if g.Has(x+o[0], y+o[1], z+o[2]) {
			code |= 1 << uint(i)
		}
	}
	return code
}

// extract 按查找表生成体素内的三角形, 顶点取激活边的中点
func (g *VoxelGrid) extract(x, y, z int) []voxelTriangle {
	code := g.CornerCode(x, y, z)
	edges := edgeTable[code]
	if edges == 0 {
		return nil
	}

	var corners [8]vec3.T
	for i, o := range cornerOffsets {
		corners[i] = g.cellCenter(x+o[0], y+o[1], z+o[2])
	}
	var verts [12]vec3.T
	for e, c := range edgeCorners {
		if edges&(1<<uint(e)) != 0 {
			a, b := &corners[c[0]], &corners[c[1]]
			verts[e] = vec3.T{(a[0] + b[0]) * 0.5, (a[1] + b[1]) * 0.5, (a[2] + b[2]) * 0.5}
		}
	}

	var result []voxelTriangle
	row := &triTable[code]
	for i := 0; i+2 < len(row) && row[i] != -1; i += 3 {
		a, b, c := verts[row[i]], verts[row[i+1]], verts[row[i+2]]
		ba := vec3.Sub(&a, &b)
		bc := vec3.Sub(&c, &b)
		n := vec3.Cross(&ba, &bc)
		if n.Length() == 0 {
			n = DefaultNormal
		} else {
			n.Normalize()
		}
		result = append(result, voxelTriangle{
			vertices: [3]voxelVertex{{position: a, index: -1}, {position: b, index: -1}, {position: c, index: -1}},
			normal:   n,
		})
	}
	return result
}

// closestUV 在3x3x3邻域引用的原始三角形中查找最近点并插值纹理坐标
func (g *VoxelGrid) closestUV(x, y, z int, p *vec3.T) vec2.T {
	best := math32.Inf(1)
	var uv vec2.T
	g.neighborhood(x, y, z, func(v *Voxel) {
		for _, fi := range v.Faces {
			f := &g.faces[fi]
			q, bary := ClosestPointOnTriangle(p, &f.positions[0], &f.positions[1], &f.positions[2])
			if d := distanceSqr(&q, p); d < best {
				best = d
				uv = vec2.T{
					f.uvs[0][0]*bary[0] + f.uvs[1][0]*bary[1] + f.uvs[2][0]*bary[2],
					f.uvs[0][1]*bary[0] + f.uvs[1][1]*bary[1] + f.uvs[2][1]*bary[2],
				}
			}
		}
	})
	return uv
}

// computeError 体素内生成顶点到其引用三角形最近点的平均位移
func (g *VoxelGrid) computeError(v *Voxel, tris []voxelTriangle) {
	v.GeometricError = 0
	if len(v.Faces) == 0 || len(tris) == 0 {
		return
	}
	inv := 1 / float32(len(v.Faces))
	for ti := range tris {
		var triErr float32
		for k := 0; k < 3; k++ {
			p := &tris[ti].vertices[k].position
			var sum vec3.T
			for _, fi := range v.Faces {
				f := &g.faces[fi]
				q, _ := ClosestPointOnTriangle(p, &f.positions[0], &f.positions[1], &f.positions[2])
				d := vec3.Sub(&q, p)
				sum.Add(&d)
			}
			sum.Scale(inv)
			triErr += sum.Length()
		}
		v.GeometricError += triErr / 3
	}
	v.GeometricError /= float32(len(tris))
}

func (g *VoxelGrid) neighborhood(x, y, z int, fn func(v *Voxel)) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if v := g.Get(x+dx, y+dy, z+dz); v != nil {
					fn(v)
				}
			}
		}
	}
}
