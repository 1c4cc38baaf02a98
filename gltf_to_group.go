package meshtile

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/flywave/go3d/mat4"
	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/flywave/go3d/vec4"
	"github.com/qmuntal/gltf"
)

var ErrUnsupportedAccessor = errors.New("unsupported accessor")

// GltfLoader 读取glTF/GLB模型为网格组, 节点变换烘焙到顶点
type GltfLoader struct {
	dir       string
	doc       *gltf.Document
	materials map[uint32]*Material
	instances map[uint32]int
}

// LoadGltf 每个节点引用的三角形图元生成一个网格
func LoadGltf(path string) (*Group, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewGltfLoader(doc, filepath.Dir(path)).Convert(base)
}

// NewGltfLoader dir用于解析外部纹理的相对路径
func NewGltfLoader(doc *gltf.Document, dir string) *GltfLoader {
	return &GltfLoader{
		dir:       dir,
		doc:       doc,
		materials: make(map[uint32]*Material),
		instances: make(map[uint32]int),
	}
}

func (l *GltfLoader) Convert(name string) (*Group, error) {
	group := NewGroup(name)
	if len(l.doc.Nodes) == 0 {
		for mi := range l.doc.Meshes {
			if err := l.addMesh(group, uint32(mi), mat4.Ident); err != nil {
				return nil, err
			}
		}
	}
	for _, n := range l.rootNodes() {
		if err := l.visit(group, n, mat4.Ident, 0); err != nil {
			return nil, err
		}
	}
	group.ComputeBoundingBox()
	group.ComputeUVBox()
	return group, nil
}

// rootNodes 默认场景的根节点; 没有场景时取未被引用为子节点的节点
func (l *GltfLoader) rootNodes() []uint32 {
	if len(l.doc.Scenes) > 0 {
		si := 0
		if l.doc.Scene != nil && int(*l.doc.Scene) < len(l.doc.Scenes) {
			si = int(*l.doc.Scene)
		}
		return l.doc.Scenes[si].Nodes
	}
	child := make(map[uint32]bool)
	for _, nd := range l.doc.Nodes {
		for _, c := range nd.Children {
			child[c] = true
		}
	}
	var roots []uint32
	for i := range l.doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func (l *GltfLoader) visit(group *Group, index uint32, parent mat4.T, depth int) error {
	if int(index) >= len(l.doc.Nodes) {
		return fmt.Errorf("node %d out of range", index)
	}
	if depth > len(l.doc.Nodes) {
		return fmt.Errorf("node %d: cyclic node hierarchy", index)
	}
	nd := l.doc.Nodes[int(index)]
	local := nodeMatrix(nd)
	world := mulMat(&parent, &local)
	if nd.Mesh != nil {
		if err := l.addMesh(group, *nd.Mesh, world); err != nil {
			return err
		}
	}
	for _, c := range nd.Children {
		if err := l.visit(group, c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (l *GltfLoader) addMesh(group *Group, mi uint32, world mat4.T) error {
	if int(mi) >= len(l.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", mi)
	}
	mh := l.doc.Meshes[int(mi)]
	meshName := mh.Name
	if meshName == "" {
		meshName = fmt.Sprintf("mesh_%d", mi)
	}
	if n := l.instances[mi]; n > 0 {
		meshName = fmt.Sprintf("%s_%d", meshName, n)
	}
	l.instances[mi]++

	for pi, ps := range mh.Primitives {
		if ps.Mode != gltf.PrimitiveTriangles {
			continue
		}
		m, err := l.transPrimitive(fmt.Sprintf("%s_%d", meshName, pi), ps, &world)
		if err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
		}
		if len(m.Faces) > 0 {
			group.AddMesh(m)
		}
	}
	return nil
}

func (l *GltfLoader) transPrimitive(name string, ps *gltf.Primitive, world *mat4.T) (*Mesh, error) {
	m := NewMesh(name)
	idx, ok := ps.Attributes["POSITION"]
	if !ok {
		return m, nil
	}
	pos, err := l.readFloats(idx, 3)
	if err != nil {
		return nil, err
	}
	for i := 0; i+2 < len(pos); i += 3 {
		m.Positions = append(m.Positions, vec3.T{pos[i], pos[i+1], pos[i+2]})
	}

	if idx, ok := ps.Attributes["NORMAL"]; ok {
		nl, err := l.readFloats(idx, 3)
		if err != nil {
			return nil, err
		}
		for i := 0; i+2 < len(nl); i += 3 {
			m.Normals = append(m.Normals, vec3.T{nl[i], nl[i+1], nl[i+2]})
		}
	}

	if idx, ok := ps.Attributes["TEXCOORD_0"]; ok {
		tc, err := l.readFloats(idx, 2)
		if err != nil {
			return nil, err
		}
		for i := 0; i+1 < len(tc); i += 2 {
			m.UVs = append(m.UVs, vec2.T{tc[i], 1 - tc[i+1]})
		}
	}

	var indices []uint32
	if ps.Indices != nil {
		if indices, err = l.readIndices(*ps.Indices); err != nil {
			return nil, err
		}
	} else {
		indices = make([]uint32, len(m.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	mirrored := false
	if *world != mat4.Ident {
		mirrored = transformMesh(m, world)
	}

	hasNormals := len(m.Normals) == len(m.Positions)
	hasUVs := len(m.UVs) == len(m.Positions)
	for i := 0; i+2 < len(indices); i += 3 {
		f := [3]uint32{indices[i], indices[i+1], indices[i+2]}
		if int(f[0]) >= len(m.Positions) || int(f[1]) >= len(m.Positions) || int(f[2]) >= len(m.Positions) {
			return nil, fmt.Errorf("index out of range in %s", name)
		}
		if mirrored {
			f[1], f[2] = f[2], f[1]
		}
		face := Face{Position: f}
		if hasNormals {
			face.Normal = f
		}
		if hasUVs {
			face.UV = f
		}
		m.Faces = append(m.Faces, face)
	}
	if !hasNormals {
		m.Normals = nil
	}
	if !hasUVs {
		m.UVs = nil
	}

	if ps.Material != nil {
		mtl, err := l.transMaterial(*ps.Material)
		if err != nil {
			return nil, err
		}
		m.SetMaterial(mtl, false)
	}

	m.Finish()
	if !m.HasNormals {
		m.RecomputeNormals()
	}
	m.ComputeBoundingBox()
	m.ComputeUVBox()
	return m, nil
}

// nodeMatrix 节点的局部矩阵; 矩阵为空或单位阵时由TRS组合
func nodeMatrix(nd *gltf.Node) mat4.T {
	var m mat4.T
	empty, ident := true, true
	for i, v := range nd.Matrix {
		f := float32(v)
		m[i/4][i%4] = f
		if f != 0 {
			empty = false
		}
		want := float32(0)
		if i%5 == 0 {
			want = 1
		}
		if f != want {
			ident = false
		}
	}
	if !empty && !ident {
		return m
	}

	m = mat4.Ident
	q := quaternion.T{float32(nd.Rotation[0]), float32(nd.Rotation[1]), float32(nd.Rotation[2]), float32(nd.Rotation[3])}
	m.AssignQuaternion(&q)
	scale := [3]float32{float32(nd.Scale[0]), float32(nd.Scale[1]), float32(nd.Scale[2])}
	if scale == [3]float32{} {
		scale = [3]float32{1, 1, 1}
	}
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			m[c][r] *= scale[c]
		}
	}
	m[3] = vec4.T{float32(nd.Translation[0]), float32(nd.Translation[1]), float32(nd.Translation[2]), 1}
	return m
}

// mulMat 列主序矩阵乘 a*b
func mulMat(a, b *mat4.T) mat4.T {
	var out mat4.T
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a[k][r] * b[c][k]
			}
			out[c][r] = s
		}
	}
	return out
}

func transformPoint(m *mat4.T, p *vec3.T) vec3.T {
	var out vec3.T
	for r := 0; r < 3; r++ {
		out[r] = m[0][r]*p[0] + m[1][r]*p[1] + m[2][r]*p[2] + m[3][r]
	}
	return out
}

// transformMesh 变换位置与法线, 法线使用余子式矩阵; 返回变换是否镜像
func transformMesh(m *Mesh, world *mat4.T) bool {
	for i := range m.Positions {
		m.Positions[i] = transformPoint(world, &m.Positions[i])
	}
	c0 := vec3.T{world[0][0], world[0][1], world[0][2]}
	c1 := vec3.T{world[1][0], world[1][1], world[1][2]}
	c2 := vec3.T{world[2][0], world[2][1], world[2][2]}
	x := vec3.Cross(&c1, &c2)
	y := vec3.Cross(&c2, &c0)
	z := vec3.Cross(&c0, &c1)
	det := vec3.Dot(&c0, &x)
	sign := float32(1)
	if det < 0 {
		sign = -1
	}
	for i := range m.Normals {
		n := m.Normals[i]
		var out vec3.T
		for r := 0; r < 3; r++ {
			out[r] = sign * (x[r]*n[0] + y[r]*n[1] + z[r]*n[2])
		}
		if out.Length() > 0 {
			out.Normalize()
		} else {
			out = DefaultNormal
		}
		m.Normals[i] = out
	}
	return det < 0
}

// accessorData 返回访问器起始位置的数据切片与步长
func (l *GltfLoader) accessorData(acc *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if acc.BufferView == nil {
		return nil, 0, fmt.Errorf("%w: sparse or empty accessor", ErrUnsupportedAccessor)
	}
	view := l.doc.BufferViews[int(*acc.BufferView)]
	buffer := l.doc.Buffers[int(view.Buffer)]
	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	start := int(view.ByteOffset) + int(acc.ByteOffset)
	end := start + stride*(int(acc.Count)-1) + elemSize
	if acc.Count == 0 {
		end = start
	}
	if end > len(buffer.Data) {
		return nil, 0, fmt.Errorf("%w: accessor exceeds buffer", ErrUnsupportedAccessor)
	}
	return buffer.Data[start:end], stride, nil
}

func (l *GltfLoader) readFloats(index uint32, components int) ([]float32, error) {
	acc := l.doc.Accessors[int(index)]
	if acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("%w: component type %v", ErrUnsupportedAccessor, acc.ComponentType)
	}
	elemSize := 4 * components
	data, stride, err := l.accessorData(acc, elemSize)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, int(acc.Count)*components)
	for i := 0; i < int(acc.Count); i++ {
		p := i * stride
		for c := 0; c < components; c++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(data[p+4*c:])))
		}
	}
	return out, nil
}

func (l *GltfLoader) readIndices(index uint32) ([]uint32, error) {
	acc := l.doc.Accessors[int(index)]
	var size int
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("%w: index component type %v", ErrUnsupportedAccessor, acc.ComponentType)
	}
	data, stride, err := l.accessorData(acc, size)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, int(acc.Count))
	for i := range out {
		p := i * stride
		switch size {
		case 1:
			out[i] = uint32(data[p])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[p:]))
		default:
			out[i] = binary.LittleEndian.Uint32(data[p:])
		}
	}
	return out, nil
}

func (l *GltfLoader) transMaterial(id uint32) (*Material, error) {
	if mtl, ok := l.materials[id]; ok {
		return mtl, nil
	}
	mt := l.doc.Materials[int(id)]
	name := mt.Name
	if name == "" {
		name = fmt.Sprintf("material_%d", id)
	}
	mtl := NewMaterial(name)
	if pbr := mt.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			mtl.Color = *pbr.BaseColorFactor
		}
		if pbr.BaseColorTexture != nil {
			tex := l.doc.Textures[int(pbr.BaseColorTexture.Index)]
			if tex.Sampler != nil {
				s := l.doc.Samplers[int(*tex.Sampler)]
				mtl.Repeated = s.WrapS == gltf.WrapRepeat
			}
			if tex.Source != nil {
				img, err := l.decodeImage(l.doc.Images[int(*tex.Source)])
				if err != nil {
					return nil, fmt.Errorf("material %s: %w", name, err)
				}
				mtl.Image = img
				mtl.DiffuseMap = name + DIFFUSE_EXT
			}
		}
	}
	l.materials[id] = mtl
	return mtl, nil
}

// decodeImage 图像可来自缓冲视图, data URI 或模型旁的文件
func (l *GltfLoader) decodeImage(img *gltf.Image) (*Image, error) {
	if img.BufferView != nil {
		view := l.doc.BufferViews[int(*img.BufferView)]
		buffer := l.doc.Buffers[int(view.Buffer)]
		return DecodeImage(bytes.NewReader(buffer.Data[view.ByteOffset : view.ByteOffset+view.ByteLength]))
	}
	if strings.HasPrefix(img.URI, "data:") {
		i := strings.Index(img.URI, ",")
		if i < 0 {
			return nil, errors.New("malformed data uri")
		}
		data, err := base64.StdEncoding.DecodeString(img.URI[i+1:])
		if err != nil {
			return nil, err
		}
		return DecodeImage(bytes.NewReader(data))
	}
	if img.URI == "" {
		return nil, errors.New("image has no source")
	}
	return LoadImage(filepath.Join(l.dir, filepath.FromSlash(img.URI)))
}
