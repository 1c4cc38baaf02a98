package meshtile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"
)

const (
	// GLTFVersion 定义GLTF规范版本
	GLTFVersion = "2.0"

	// PaddingUnit 缓冲视图对齐字节数
	PaddingUnit = 4
)

// GltfExporter 将分块写为GLB文件, 纹理嵌入二进制缓冲
type GltfExporter struct {
	Dir string
}

func NewGltfExporter(dir string) *GltfExporter {
	return &GltfExporter{Dir: dir}
}

// ChunkFileName 分块文件名, 由组名与标识组成
func ChunkFileName(c *Chunk) string {
	name := CHUNK_GROUP_NAME
	if c.Group != nil && c.Group.Name != "" {
		name = c.Group.Name
	}
	return fmt.Sprintf("%s_%d%s", name, c.ID, CHUNK_EXT)
}

func (e *GltfExporter) SaveChunk(c *Chunk) (string, error) {
	doc, err := GroupToGltf(c.Group)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", err
	}
	name := ChunkFileName(c)
	f, err := os.Create(filepath.Join(e.Dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	encoder := gltf.NewEncoder(f)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return name, nil
}

// CreateDoc 创建一个新的GLTF文档
func CreateDoc() *gltf.Document {
	doc := &gltf.Document{
		Asset: gltf.Asset{
			Version: GLTFVersion,
		},
		Scenes:  []*gltf.Scene{{}},
		Buffers: []*gltf.Buffer{{}},
	}

	sceneIndex := uint32(0)
	doc.Scene = &sceneIndex

	return doc
}

// GroupToGltf 每个网格生成一个glTF网格与节点, 相同材质只写一次
func GroupToGltf(g *Group) (*gltf.Document, error) {
	doc := CreateDoc()
	materials := make(map[*Material]uint32)
	var err error
	g.Traverse(func(m *Mesh) {
		if err != nil || len(m.Faces) == 0 {
			return
		}
		err = buildMesh(doc, m, materials)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// flatVertices 将分离索引的顶点属性展开为glTF要求的统一索引
type flatVertices struct {
	positions []vec3.T
	normals   []vec3.T
	uvs       []vec2.T
	indices   []uint32
}

func flatten(m *Mesh) *flatVertices {
	fv := &flatVertices{}
	seen := make(map[[3]uint32]uint32)
	for _, f := range m.Faces {
		for k := 0; k < 3; k++ {
			key := [3]uint32{f.Position[k], 0, 0}
			if m.HasNormals {
				key[1] = f.Normal[k]
			}
			if m.HasUVs {
				key[2] = f.UV[k]
			}
			idx, ok := seen[key]
			if !ok {
				idx = uint32(len(fv.positions))
				seen[key] = idx
				fv.positions = append(fv.positions, m.Positions[key[0]])
				if m.HasNormals {
					fv.normals = append(fv.normals, m.Normals[key[1]])
				}
				if m.HasUVs {
					uv := m.UVs[key[2]]
					fv.uvs = append(fv.uvs, vec2.T{uv[0], 1 - uv[1]})
				}
			}
			fv.indices = append(fv.indices, idx)
		}
	}
	return fv
}

// writeView 追加数据到唯一缓冲并返回缓冲视图索引, 按PaddingUnit对齐
func writeView(doc *gltf.Document, data interface{}) uint32 {
	buf := bytes.NewBuffer(nil)
	binary.Write(buf, binary.LittleEndian, data)
	return writeBytes(doc, buf.Bytes())
}

func writeBytes(doc *gltf.Document, data []byte) uint32 {
	buffer := doc.Buffers[0]
	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: buffer.ByteLength,
		ByteLength: uint32(len(data)),
	}
	buffer.Data = append(buffer.Data, data...)
	if pad := calcPadding(len(buffer.Data), PaddingUnit); pad > 0 {
		buffer.Data = append(buffer.Data, make([]byte, pad)...)
	}
	buffer.ByteLength = uint32(len(buffer.Data))
	doc.BufferViews = append(doc.BufferViews, view)
	return uint32(len(doc.BufferViews) - 1)
}

// calcPadding 计算需要的填充字节数
func calcPadding(offset, unit int) int {
	padding := offset % unit
	if padding != 0 {
		padding = unit - padding
	}
	return padding
}

func addAccessor(doc *gltf.Document, acc *gltf.Accessor) uint32 {
	doc.Accessors = append(doc.Accessors, acc)
	return uint32(len(doc.Accessors) - 1)
}

func buildMesh(doc *gltf.Document, m *Mesh, materials map[*Material]uint32) error {
	fv := flatten(m)

	indices := addAccessor(doc, &gltf.Accessor{
		ComponentType: gltf.ComponentUint,
		Type:          gltf.AccessorScalar,
		Count:         uint32(len(fv.indices)),
		BufferView:    uint32Ptr(writeView(doc, fv.indices)),
	})

	box := EmptyBox3()
	for i := range fv.positions {
		box.ExtendPoint(&fv.positions[i])
	}
	attributes := gltf.Attribute{
		"POSITION": addAccessor(doc, &gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(len(fv.positions)),
			BufferView:    uint32Ptr(writeView(doc, fv.positions)),
			Min:           []float32{box.Min[0], box.Min[1], box.Min[2]},
			Max:           []float32{box.Max[0], box.Max[1], box.Max[2]},
		}),
	}
	if len(fv.normals) > 0 {
		attributes["NORMAL"] = addAccessor(doc, &gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(len(fv.normals)),
			BufferView:    uint32Ptr(writeView(doc, fv.normals)),
		})
	}
	if len(fv.uvs) > 0 {
		attributes["TEXCOORD_0"] = addAccessor(doc, &gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec2,
			Count:         uint32(len(fv.uvs)),
			BufferView:    uint32Ptr(writeView(doc, fv.uvs)),
		})
	}

	primitive := &gltf.Primitive{
		Indices:    uint32Ptr(indices),
		Mode:       gltf.PrimitiveTriangles,
		Attributes: attributes,
	}
	if m.Material != nil {
		idx, err := fillMaterial(doc, m.Material, materials)
		if err != nil {
			return err
		}
		primitive.Material = uint32Ptr(idx)
	}

	meshIndex := uint32(len(doc.Meshes))
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{primitive}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:     m.Name,
		Mesh:     uint32Ptr(meshIndex),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	return nil
}

// fillMaterial 写入材质及其嵌入纹理
func fillMaterial(doc *gltf.Document, mtl *Material, materials map[*Material]uint32) (uint32, error) {
	if idx, ok := materials[mtl]; ok {
		return idx, nil
	}
	color := mtl.Color
	metallic := float32(0)
	roughness := float32(1)
	gm := &gltf.Material{
		Name:        mtl.Name,
		DoubleSided: true,
		AlphaMode:   gltf.AlphaOpaque,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &color,
			MetallicFactor:  &metallic,
			RoughnessFactor: &roughness,
		},
	}
	if mtl.HasTexture() {
		tex, err := buildTexture(doc, mtl)
		if err != nil {
			return 0, err
		}
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
		if mtl.Image.Channels == TEXTURE_CHANNELS_RGBA {
			gm.AlphaMode = gltf.AlphaMask
		}
	}
	doc.Materials = append(doc.Materials, gm)
	idx := uint32(len(doc.Materials) - 1)
	materials[mtl] = idx
	return idx, nil
}

// buildTexture 构建纹理
func buildTexture(doc *gltf.Document, mtl *Material) (uint32, error) {
	buf := bytes.NewBuffer(nil)
	mime, err := mtl.Image.Encode(buf)
	if err != nil {
		return 0, fmt.Errorf("encode texture %s: %w", mtl.Name, err)
	}
	view := writeBytes(doc, buf.Bytes())

	doc.Images = append(doc.Images, &gltf.Image{
		Name:       mtl.DiffuseMap,
		MimeType:   mime,
		BufferView: uint32Ptr(view),
	})
	imageIndex := uint32(len(doc.Images) - 1)

	sampler := &gltf.Sampler{
		WrapS: gltf.WrapClampToEdge,
		WrapT: gltf.WrapClampToEdge,
	}
	if mtl.Repeated {
		sampler.WrapS = gltf.WrapRepeat
		sampler.WrapT = gltf.WrapRepeat
	}
	doc.Samplers = append(doc.Samplers, sampler)
	samplerIndex := uint32(len(doc.Samplers) - 1)

	doc.Textures = append(doc.Textures, &gltf.Texture{
		Sampler: &samplerIndex,
		Source:  &imageIndex,
	})
	return uint32(len(doc.Textures) - 1), nil
}

// uint32Ptr 返回uint32指针的辅助函数
func uint32Ptr(v uint32) *uint32 {
	return &v
}
