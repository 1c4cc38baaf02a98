package meshtile

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// DecimatorOptions 体素简化参数
type DecimatorOptions struct {
	Resolution     [3]int
	AverageNormals bool
	TextureScale   int
}

func DefaultDecimatorOptions() DecimatorOptions {
	return DecimatorOptions{
		Resolution:     [3]int{DEFAULT_GRID_RESOLUTION, DEFAULT_GRID_RESOLUTION, DEFAULT_GRID_RESOLUTION},
		AverageNormals: true,
		TextureScale:   DEFAULT_TEXTURE_SCALE,
	}
}

// Decimate 体素化并用移动立方体提取简化表面, 同一材质的网格合并在一次体素化中,
// 网格只在不同材质之间重置
func (g *VoxelGrid) Decimate(target *Group, opts DecimatorOptions) *Group {
	box := BoundingBoxOf(target)
	out := NewGroup(LOD_GROUP_NAME)
	for _, batch := range batchByMaterial(target) {
		m := mergeMeshes(batch)
		if len(m.Faces) == 0 {
			continue
		}
		g.Init(box)
		g.Voxelize(m)
		lod := g.Build(m.Name, opts.AverageNormals)
		if len(lod.Faces) == 0 {
			continue
		}
		lod.SetMaterial(m.Material, false)
		out.AddMesh(lod)
	}
	out.ComputeBoundingBox()
	out.ComputeUVBox()
	out.ComputeGeometricError()
	return out
}

// batchByMaterial 按材质分组, 顺序为材质第一次出现的顺序
func batchByMaterial(target *Group) [][]*Mesh {
	var batches [][]*Mesh
	index := make(map[*Material]int)
	target.Traverse(func(m *Mesh) {
		if len(m.Faces) == 0 {
			return
		}
		i, ok := index[m.Material]
		if !ok {
			i = len(batches)
			index[m.Material] = i
			batches = append(batches, nil)
		}
		batches[i] = append(batches[i], m)
	})
	return batches
}

// mergeMeshes 拼接位置与纹理坐标缓冲, 没有纹理坐标的网格引用一个零坐标
func mergeMeshes(meshes []*Mesh) *Mesh {
	if len(meshes) == 1 {
		return meshes[0]
	}
	m := NewMesh(meshes[0].Name)
	m.SetMaterial(meshes[0].Material, false)
	for _, src := range meshes {
		if src.HasUVs {
			m.HasUVs = true
		}
	}
	for _, src := range meshes {
		pb := uint32(len(m.Positions))
		tb := uint32(len(m.UVs))
		m.Positions = append(m.Positions, src.Positions...)
		if m.HasUVs {
			if src.HasUVs {
				m.UVs = append(m.UVs, src.UVs...)
			} else {
				m.UVs = append(m.UVs, vec2.T{})
			}
		}
		for _, f := range src.Faces {
			nf := Face{}
			for k := 0; k < 3; k++ {
				nf.Position[k] = f.Position[k] + pb
				if src.HasUVs {
					nf.UV[k] = f.UV[k] + tb
				} else {
					nf.UV[k] = tb
				}
			}
			m.Faces = append(m.Faces, nf)
		}
	}
	m.ComputeBoundingBox()
	return m
}

// Build 提取三角形, 计算纹理坐标与误差, 焊接跨体素的重复顶点后输出网格.
// 立方体从-1开始遍历, 网格各个方向的边界面都能闭合.
func (g *VoxelGrid) Build(name string, averageNormals bool) *Mesh {
	var errSum float32
	used := 0
	g.eachCube(func(x, y, z int, c *voxelCube) {
		c.triangles = g.extract(x, y, z)
		if len(c.triangles) == 0 {
			return
		}
		if g.hasUVs {
			for ti := range c.triangles {
				for k := 0; k < 3; k++ {
					vt := &c.triangles[ti].vertices[k]
					vt.uv = g.closestUV(x, y, z, &vt.position)
				}
			}
		}
		// 网格外的立方体没有引用三角形, 不计入误差
		if v := g.Get(x, y, z); v != nil {
			g.computeError(v, c.triangles)
			errSum += v.GeometricError
			used++
		}
	})

	m := NewMesh(name)
	var normalSums []vec3.T
	eps := g.Unit * 1e-3
	eps2 := eps * eps
	g.eachCube(func(x, y, z int, c *voxelCube) {
		for ti := range c.triangles {
			tri := &c.triangles[ti]
			for k := 0; k < 3; k++ {
				vt := &tri.vertices[k]
				if vt.index >= 0 {
					continue
				}
				vt.index = g.weld(x, y, z, &vt.position, eps2)
				if vt.index < 0 {
					vt.index = int32(len(m.Positions))
					m.Positions = append(m.Positions, vt.position)
					m.UVs = append(m.UVs, vt.uv)
					normalSums = append(normalSums, tri.normal)
				} else if averageNormals {
					normalSums[vt.index].Add(&tri.normal)
				}
			}
		}
	})

	g.eachCube(func(_, _, _ int, cb *voxelCube) {
		for ti := range cb.triangles {
			vs := &cb.triangles[ti].vertices
			a, b, c := uint32(vs[0].index), uint32(vs[1].index), uint32(vs[2].index)
			if a == b || b == c || a == c {
				continue
			}
			idx := [3]uint32{a, b, c}
			m.Faces = append(m.Faces, Face{Position: idx, Normal: idx, UV: idx})
		}
	})

	m.Normals = normalSums
	for i := range m.Normals {
		if m.Normals[i].Length() == 0 {
			m.Normals[i] = DefaultNormal
		} else {
			m.Normals[i].Normalize()
		}
	}
	if !g.hasUVs {
		m.UVs = nil
	}
	m.Finish()
	m.ComputeBoundingBox()
	m.ComputeUVBox()
	if used > 0 {
		m.GeometricError = errSum / float32(used)
	}
	return m
}

// weld 在3x3x3邻域已分配的顶点中查找同一位置, 未找到返回-1
func (g *VoxelGrid) weld(x, y, z int, p *vec3.T, eps2 float32) int32 {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				c := g.cube(x+dx, y+dy, z+dz)
				if c == nil {
					continue
				}
				for ti := range c.triangles {
					for k := 0; k < 3; k++ {
						vt := &c.triangles[ti].vertices[k]
						if vt.index >= 0 && distanceSqr(&vt.position, p) <= eps2 {
							return vt.index
						}
					}
				}
			}
		}
	}
	return -1
}

// TextureLOD 按倍数缩小简化网格的纹理, 共享同一材质的网格共用缩小结果
func TextureLOD(g *Group, factor int) {
	if factor <= 1 {
		return
	}
	scaled := make(map[*Material]*Material)
	g.Traverse(func(m *Mesh) {
		if m.Material == nil || !m.Material.HasTexture() {
			return
		}
		nm, ok := scaled[m.Material]
		if !ok {
			nm = m.Material.Clone()
			nm.Name = m.Material.Name + "_" + LOD_GROUP_NAME
			nm.DiffuseMap = nm.Name + DIFFUSE_EXT
			nm.Image = m.Material.Image.Downscale(factor)
			scaled[m.Material] = nm
		}
		m.SetMaterial(nm, true)
	})
}
