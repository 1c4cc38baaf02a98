package meshtile

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// quadMesh y=0平面上的矩形, 两个三角形, 纹理坐标铺满[0,1]
func quadMesh(name string, x0, x1, z0, z1 float32) *Mesh {
	m := NewMesh(name)
	m.Positions = []vec3.T{{x0, 0, z0}, {x1, 0, z0}, {x1, 0, z1}, {x0, 0, z1}}
	m.Normals = []vec3.T{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}}
	m.UVs = []vec2.T{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, f := range [][3]uint32{{0, 2, 1}, {0, 3, 2}} {
		m.Faces = append(m.Faces, Face{Position: f, Normal: f, UV: f})
	}
	m.Finish()
	m.ComputeBoundingBox()
	m.ComputeUVBox()
	return m
}

// boxMesh 轴对齐立方体的12个三角形
func boxMesh(name string, min, max vec3.T) *Mesh {
	m := NewMesh(name)
	for i := 0; i < 8; i++ {
		p := min
		if i&1 != 0 {
			p[0] = max[0]
		}
		if i&2 != 0 {
			p[1] = max[1]
		}
		if i&4 != 0 {
			p[2] = max[2]
		}
		m.Positions = append(m.Positions, p)
		m.UVs = append(m.UVs, vec2.T{float32(i&1) * 0.5, float32((i>>1)&1) * 0.5})
	}
	quads := [][4]uint32{
		{0, 2, 3, 1}, {4, 5, 7, 6},
		{0, 1, 5, 4}, {2, 6, 7, 3},
		{0, 4, 6, 2}, {1, 3, 7, 5},
	}
	for _, q := range quads {
		for _, f := range [][3]uint32{{q[0], q[1], q[2]}, {q[0], q[2], q[3]}} {
			m.Faces = append(m.Faces, Face{Position: f, UV: f})
		}
	}
	m.Finish()
	m.RecomputeNormals()
	m.ComputeBoundingBox()
	m.ComputeUVBox()
	return m
}

// gradientImage 每个像素编码其行列, 便于检查裁剪位置
func gradientImage(w, h int) *Image {
	im := NewImage(w, h, TEXTURE_CHANNELS_RGB)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := (y*w + x) * 3
			im.Data[p] = byte(x)
			im.Data[p+1] = byte(y)
			im.Data[p+2] = 128
		}
	}
	return im
}

func texturedMaterial(name string, w, h int) *Material {
	mtl := NewMaterial(name)
	mtl.Image = gradientImage(w, h)
	mtl.DiffuseMap = name + DIFFUSE_EXT
	return mtl
}

func groupOf(meshes ...*Mesh) *Group {
	g := NewGroup("model")
	for _, m := range meshes {
		g.AddMesh(m)
	}
	g.ComputeBoundingBox()
	g.ComputeUVBox()
	return g
}
