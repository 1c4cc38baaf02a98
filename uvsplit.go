package meshtile

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// uvBatch 同一材质的网格合并后的缓冲
type uvBatch struct {
	material   *Material
	positions  []vec3.T
	normals    []vec3.T
	uvs        []vec2.T
	faces      []Face
	hasNormals bool
	hasUVs     bool
}

func (b *uvBatch) append(m *Mesh) {
	po, no, to := uint32(len(b.positions)), uint32(len(b.normals)), uint32(len(b.uvs))
	b.positions = append(b.positions, m.Positions...)
	b.normals = append(b.normals, m.Normals...)
	b.uvs = append(b.uvs, m.UVs...)
	for _, f := range m.Faces {
		for k := 0; k < 3; k++ {
			f.Position[k] += po
			f.Normal[k] += no
			f.UV[k] += to
		}
		b.faces = append(b.faces, f)
	}
	b.hasNormals = b.hasNormals && m.HasNormals
	b.hasUVs = b.hasUVs && m.HasUVs
}

// SplitUV 按材质对纹理空间做固定深度的二叉划分, 每个非空叶子生成一个带裁剪纹理的网格
func SplitUV(target *Group) (*Group, error) {
	result := NewGroup(CHUNK_GROUP_NAME)

	var order []string
	batches := make(map[string]*uvBatch)
	target.Traverse(func(m *Mesh) {
		if len(m.Faces) == 0 {
			return
		}
		name := m.MaterialName()
		if name == "" {
			c := m.Clone()
			c.Remesh(m.Positions, m.Normals, m.UVs)
			result.AddMesh(c)
			return
		}
		b, ok := batches[name]
		if !ok {
			b = &uvBatch{material: m.Material, hasNormals: true, hasUVs: true}
			batches[name] = b
			order = append(order, name)
		}
		b.append(m)
	})

	meshIndex := 0
	for _, name := range order {
		b := batches[name]
		if !b.hasUVs {
			m := NewMesh(name)
			m.Faces = b.faces
			m.HasNormals = b.hasNormals
			m.SetMaterial(b.material, false)
			m.Remesh(b.positions, b.normals, nil)
			result.AddMesh(m)
			continue
		}

		leaves := make([][]Face, 1<<UV_BVH_DEPTH)
		for _, f := range b.faces {
			idx := routeUV(&b.uvs[f.UV[0]], &b.uvs[f.UV[1]], &b.uvs[f.UV[2]])
			leaves[idx] = append(leaves[idx], f)
		}

		for idx, faces := range leaves {
			if len(faces) == 0 {
				continue
			}
			box := uvLeafBox(idx)
			m := NewMesh(fmt.Sprintf("uv_%f,%f_%f,%f", box.Min[0], box.Min[1], box.Max[0], box.Max[1]))
			m.Faces = faces
			m.HasNormals = b.hasNormals
			m.HasUVs = true
			m.Remesh(b.positions, b.normals, b.uvs)
			if err := cropTexture(m, b.material, meshIndex); err != nil {
				return nil, err
			}
			result.AddMesh(m)
			meshIndex++
		}
	}

	result.ComputeBoundingBox()
	result.ComputeUVBox()
	result.ComputeGeometricError()
	return result, nil
}

// routeUV 自根向下, 任一纹理坐标落在第一个子盒内则进入第一个子盒, 否则进入第二个
func routeUV(a, b, c *vec2.T) int {
	box := UnitBox2()
	idx := 0
	for level := 0; level < UV_BVH_DEPTH; level++ {
		first, second := splitUVBox(&box, level)
		idx <<= 1
		if first.ContainsPoint(a) || first.ContainsPoint(b) || first.ContainsPoint(c) {
			box = first
		} else {
			box = second
			idx |= 1
		}
	}
	return idx
}

// splitUVBox 偶数层沿u切分, 奇数层沿v切分
func splitUVBox(box *Box2, level int) (Box2, Box2) {
	axis := level % 2
	mid := (box.Min[axis] + box.Max[axis]) * 0.5
	first, second := box.Clone(), box.Clone()
	first.Max[axis] = mid
	second.Min[axis] = mid
	return first, second
}

func uvLeafBox(idx int) Box2 {
	box := UnitBox2()
	for level := 0; level < UV_BVH_DEPTH; level++ {
		first, second := splitUVBox(&box, level)
		if idx&(1<<(UV_BVH_DEPTH-1-level)) == 0 {
			box = first
		} else {
			box = second
		}
	}
	return box
}

// cropTexture 将叶子的纹理坐标范围映射到像素矩形并裁剪, 坐标重映射到裁剪后的[0,1]
func cropTexture(m *Mesh, mtl *Material, index int) error {
	if mtl == nil {
		return nil
	}
	unit := UnitBox2()
	if !mtl.HasTexture() || !unit.ContainsBox(&m.UVBox) {
		m.SetMaterial(mtl, false)
		return nil
	}
	img := mtl.Image
	w, h := float32(img.Width), float32(img.Height)
	minX := clampInt(int(math32.Floor(m.UVBox.Min[0]*w)), 0, img.Width-1)
	minY := clampInt(int(math32.Floor(m.UVBox.Min[1]*h)), 0, img.Height-1)
	maxX := clampInt(int(math32.Ceil(m.UVBox.Max[0]*w)), minX+1, img.Width)
	maxY := clampInt(int(math32.Ceil(m.UVBox.Max[1]*h)), minY+1, img.Height)

	cropped, err := img.Crop(minX, minY, maxX, maxY)
	if err != nil {
		return fmt.Errorf("crop texture of %s: %w", mtl.Name, err)
	}

	ox, oy := float32(minX)/w, float32(minY)/h
	sx, sy := float32(maxX-minX)/w, float32(maxY-minY)/h
	for i := range m.UVs {
		m.UVs[i][0] = (m.UVs[i][0] - ox) / sx
		m.UVs[i][1] = (m.UVs[i][1] - oy) / sy
	}
	m.ComputeUVBox()
	m.SetMaterial(mtl.derive(index, cropped), true)
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
