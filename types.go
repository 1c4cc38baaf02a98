package meshtile

import "github.com/flywave/go3d/vec3"

const CHUNK_GROUP_NAME string = "Chunk"
const LOD_GROUP_NAME string = "Lod"
const CHUNK_EXT string = ".glb"
const DIFFUSE_EXT string = ".jpg"

const (
	DEFAULT_POLYGON_BUDGET  = 20000
	DEFAULT_MAX_DEPTH       = 32
	DEFAULT_GRID_RESOLUTION = 32
	DEFAULT_SLOTS           = 4
	DEFAULT_TEXTURE_SCALE   = 8
)

// UV_BVH_DEPTH 纹理空间二叉划分的固定深度
const UV_BVH_DEPTH = 8

const (
	TEXTURE_CHANNELS_GRAY = 1
	TEXTURE_CHANNELS_RGB  = 3
	TEXTURE_CHANNELS_RGBA = 4
)

// DefaultNormal 退化三角形使用的法线
var DefaultNormal = vec3.T{0, 1, 0}

// ID 分块标识
type ID int64

// NoParent 根分块的父标识
const NoParent ID = -1

// Axis 切分轴
type Axis int

const (
	AxisX Axis = 0
	AxisY Axis = 1
	AxisZ Axis = 2
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "?"
}

// next 在X与Z之间交替
func (a Axis) next() Axis {
	if a == AxisX {
		return AxisZ
	}
	return AxisX
}

// ChunkKind 分块类型
type ChunkKind int

const (
	CHUNK_KIND_TERMINAL ChunkKind = 0
	CHUNK_KIND_LOD      ChunkKind = 1
	CHUNK_KIND_EMPTY    ChunkKind = 2
)

func (k ChunkKind) String() string {
	switch k {
	case CHUNK_KIND_TERMINAL:
		return "terminal"
	case CHUNK_KIND_LOD:
		return "lod"
	case CHUNK_KIND_EMPTY:
		return "empty"
	}
	return "unknown"
}

// Face 面结构, 三个角分别索引位置、法线、纹理坐标缓冲
type Face struct {
	Position [3]uint32
	Normal   [3]uint32
	UV       [3]uint32
}

func facePositions(f *Face) *[3]uint32 { return &f.Position }
func faceNormals(f *Face) *[3]uint32   { return &f.Normal }
func faceUVs(f *Face) *[3]uint32       { return &f.UV }
