package meshtile

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoBoundingVolume = errors.New("tile has no bounding volume")
	ErrDuplicateID      = errors.New("duplicate tile id")
	ErrUnknownParent    = errors.New("tile parent never emitted")
	ErrNoRoot           = errors.New("no root tile emitted")
)

const (
	REFINE_REPLACE = "REPLACE"
	REFINE_ADD     = "ADD"
)

// BoundingVolume 包围体, box/sphere/region 三者必须且只能设置一个
type BoundingVolume struct {
	Box    *[12]float64 `json:"box,omitempty"`
	Sphere *[4]float64  `json:"sphere,omitempty"`
	Region *[6]float64  `json:"region,omitempty"`
}

func (v *BoundingVolume) Validate() error {
	n := 0
	if v.Box != nil {
		n++
	}
	if v.Sphere != nil {
		n++
	}
	if v.Region != nil {
		n++
	}
	if n == 0 {
		return ErrNoBoundingVolume
	}
	if n > 1 {
		return fmt.Errorf("tile has %d bounding volumes, want exactly one", n)
	}
	return nil
}

// BoxVolume 由包围盒生成中心+半轴形式的盒, zUp时从y向上转换为z向上
func BoxVolume(b *Box3, zUp bool) BoundingVolume {
	c := b.Center()
	s := b.Size()
	hx, hy, hz := float64(s[0])/2, float64(s[1])/2, float64(s[2])/2
	var box [12]float64
	if zUp {
		box = [12]float64{
			float64(c[0]), -float64(c[2]), float64(c[1]),
			hx, 0, 0,
			0, hz, 0,
			0, 0, hy,
		}
	} else {
		box = [12]float64{
			float64(c[0]), float64(c[1]), float64(c[2]),
			hx, 0, 0,
			0, hy, 0,
			0, 0, hz,
		}
	}
	return BoundingVolume{Box: &box}
}

type TileContent struct {
	URI string `json:"uri"`
}

// Tile 瓦片树节点
type Tile struct {
	ID             ID             `json:"-"`
	ParentID       ID             `json:"-"`
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError float64        `json:"geometricError"`
	Refine         string         `json:"refine,omitempty"`
	Content        *TileContent   `json:"content,omitempty"`
	Children       []*Tile        `json:"children,omitempty"`
}

func NewTile(id, parent ID, volume BoundingVolume, geometricError float64) (*Tile, error) {
	if err := volume.Validate(); err != nil {
		return nil, fmt.Errorf("tile %d: %w", id, err)
	}
	return &Tile{ID: id, ParentID: parent, BoundingVolume: volume, GeometricError: geometricError}, nil
}

func (t *Tile) AddChild(c *Tile) {
	t.Children = append(t.Children, c)
}

// Traverse 先序遍历子孙节点, 不包含自身
func (t *Tile) Traverse(fn func(t *Tile)) {
	for _, c := range t.Children {
		fn(c)
		c.Traverse(fn)
	}
}

// Search 深度优先查找第一个满足条件的子孙节点
func (t *Tile) Search(fn func(t *Tile) bool) *Tile {
	for _, c := range t.Children {
		if fn(c) {
			return c
		}
		if r := c.Search(fn); r != nil {
			return r
		}
	}
	return nil
}

// FindTileByID 查找自身或子孙中标识匹配的节点
func (t *Tile) FindTileByID(id ID) *Tile {
	if t.ID == id {
		return t
	}
	return t.Search(func(c *Tile) bool { return c.ID == id })
}

type tileJSON Tile

func (t *Tile) MarshalJSON() ([]byte, error) {
	if err := t.BoundingVolume.Validate(); err != nil {
		return nil, fmt.Errorf("tile %d: %w", t.ID, err)
	}
	return json.Marshal((*tileJSON)(t))
}
