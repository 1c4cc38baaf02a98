package meshtile

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Median 沿轴的顶点坐标均值, 作为中值的近似
func Median(g *Group, axis Axis) float32 {
	var sum float64
	count := 0
	g.Traverse(func(m *Mesh) {
		for i := range m.Positions {
			sum += float64(m.Positions[i][axis])
		}
		count += len(m.Positions)
	})
	if count < 1 {
		count = 1
	}
	return float32(sum / float64(count))
}

// HalfGroup 沿轴在均值处一分为二, 跨越切面的三角形复制到两侧并各自裁剪
func HalfGroup(target *Group, axis Axis) (left, right *Group, cut float32) {
	cut = Median(target, axis)
	left = NewGroup(target.Name)
	right = NewGroup(target.Name)

	target.Traverse(func(m *Mesh) {
		var lf, rf []Face
		for _, f := range m.Faces {
			isLeft, isRight := false, false
			for k := 0; k < 3; k++ {
				c := m.Positions[f.Position[k]][axis]
				if c <= cut {
					isLeft = true
				}
				if c >= cut {
					isRight = true
				}
			}
			if isLeft {
				lf = append(lf, f)
			}
			if isRight {
				rf = append(rf, f)
			}
		}
		if len(lf) > 0 {
			left.AddMesh(halfMesh(m, lf, axis, cut, true))
		}
		if len(rf) > 0 {
			right.AddMesh(halfMesh(m, rf, axis, cut, false))
		}
	})

	left.ComputeBoundingBox()
	right.ComputeBoundingBox()
	return left, right, cut
}

func halfMesh(src *Mesh, faces []Face, axis Axis, cut float32, keepLeft bool) *Mesh {
	m := NewMesh(src.Name)
	m.Faces = faces
	m.HasNormals = src.HasNormals
	m.HasUVs = src.HasUVs
	m.SetMaterial(src.Material, false)
	m.Remesh(src.Positions, src.Normals, src.UVs)

	ClipMesh(m, axis, cut, keepLeft)
	m.Remesh(m.Positions, m.Normals, m.UVs)
	return m
}

// ClipMesh 将三角形裁剪到保留的半空间, 完全在外的三角形被丢弃.
// 一个顶点在内时, 两个外侧角替换为边与切面的交点;
// 两个顶点在内时, 外侧角替换为一条交叉边上的交点, 另一条交叉边的交点组成追加的三角形.
// 交点总是新顶点, 共享顶点不受影响; 未被引用的旧顶点留在缓冲中, 由Remesh清除.
// 分情况按在内的顶点数计: 一个在内时不追加三角形, 只有两个在内时追加一个.
func ClipMesh(m *Mesh, axis Axis, cut float32, keepLeft bool) {
	inside := func(p *vec3.T) bool {
		if keepLeft {
			return p[axis] <= cut
		}
		return p[axis] >= cut
	}

	faces := make([]Face, 0, len(m.Faces))
	for _, f := range m.Faces {
		var in [3]bool
		count := 0
		for k := 0; k < 3; k++ {
			in[k] = inside(&m.Positions[f.Position[k]])
			if in[k] {
				count++
			}
		}

		switch count {
		case 3:
			faces = append(faces, f)
		case 1:
			k := 0
			for !in[k] {
				k++
			}
			src := f
			for o := 0; o < 3; o++ {
				if o != k {
					f.Position[o], f.Normal[o], f.UV[o] = splitEdge(m, &src, o, k, axis, cut)
				}
			}
			faces = append(faces, f)
		case 2:
			o := 0
			for in[o] {
				o++
			}
			a, b := (o+1)%3, (o+2)%3
			src := f
			nf := Face{
				Position: [3]uint32{f.Position[b], 0, 0},
				Normal:   [3]uint32{f.Normal[b], 0, 0},
				UV:       [3]uint32{f.UV[b], 0, 0},
			}
			nf.Position[1], nf.Normal[1], nf.UV[1] = splitEdge(m, &src, o, b, axis, cut)
			f.Position[o], f.Normal[o], f.UV[o] = splitEdge(m, &src, o, a, axis, cut)
			nf.Position[2], nf.Normal[2], nf.UV[2] = f.Position[o], f.Normal[o], f.UV[o]
			faces = append(faces, f, nf)
		}
	}
	m.Faces = faces
}

func edgeParam(from, to *vec3.T, axis Axis, cut float32) float32 {
	d := to[axis] - from[axis]
	if d == 0 {
		return 0
	}
	return (cut - from[axis]) / d
}

// splitEdge 在角o到角k的边与切面交点处追加新顶点, 返回位置/法线/纹理坐标索引
func splitEdge(m *Mesh, f *Face, o, k int, axis Axis, cut float32) (uint32, uint32, uint32) {
	po, pk := m.Positions[f.Position[o]], m.Positions[f.Position[k]]
	t := edgeParam(&po, &pk, axis, cut)
	p := vec3.Interpolate(&po, &pk, t)
	p[axis] = cut
	pi := uint32(len(m.Positions))
	m.Positions = append(m.Positions, p)

	var ni, ti uint32
	if m.HasNormals {
		no, nk := m.Normals[f.Normal[o]], m.Normals[f.Normal[k]]
		nrm := vec3.Interpolate(&no, &nk, t)
		if nrm.Length() == 0 {
			nrm = no
		} else {
			nrm.Normalize()
		}
		ni = uint32(len(m.Normals))
		m.Normals = append(m.Normals, nrm)
	}
	if m.HasUVs {
		to, tk := m.UVs[f.UV[o]], m.UVs[f.UV[k]]
		ti = uint32(len(m.UVs))
		m.UVs = append(m.UVs, lerpUV(&to, &tk, t))
	}
	return pi, ni, ti
}

func lerpUV(a, b *vec2.T, t float32) vec2.T {
	return vec2.T{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}
