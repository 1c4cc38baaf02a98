package meshtile

import (
	"fmt"
	"sort"
)

// Assembler 按父标识把分块组装成瓦片树, 只能由单个协程调用
type Assembler struct {
	zUp     bool
	root    *Tile
	tiles   map[ID]*Tile
	orphans map[ID][]*Tile
}

func NewAssembler(zUp bool) *Assembler {
	return &Assembler{
		zUp:     zUp,
		tiles:   make(map[ID]*Tile),
		orphans: make(map[ID][]*Tile),
	}
}

// Add 为分块建立瓦片并挂到父节点下; 父节点未到达时暂存, 到达后再挂接
func (a *Assembler) Add(c *Chunk, uri string) (*Tile, error) {
	if _, ok := a.tiles[c.ID]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateID, c.ID)
	}
	tile, err := NewTile(c.ID, c.ParentID, BoxVolume(&c.BoundingBox, a.zUp), float64(c.GeometricError))
	if err != nil {
		return nil, err
	}
	if uri != "" {
		tile.Content = &TileContent{URI: uri}
	}
	a.tiles[c.ID] = tile

	if c.ParentID == NoParent {
		if a.root != nil {
			return nil, fmt.Errorf("%w: %d and %d both have no parent", ErrDuplicateID, a.root.ID, c.ID)
		}
		a.root = tile
	} else if p, ok := a.tiles[c.ParentID]; ok {
		p.AddChild(tile)
	} else {
		a.orphans[c.ParentID] = append(a.orphans[c.ParentID], tile)
	}

	if kids, ok := a.orphans[c.ID]; ok {
		for _, k := range kids {
			tile.AddChild(k)
		}
		delete(a.orphans, c.ID)
	}
	return tile, nil
}

func (a *Assembler) Len() int {
	return len(a.tiles)
}

// Root 返回组装完成的根节点, 子节点按标识排序
func (a *Assembler) Root() (*Tile, error) {
	if len(a.orphans) > 0 {
		var missing []ID
		for id := range a.orphans {
			missing = append(missing, id)
		}
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, fmt.Errorf("%w: %v", ErrUnknownParent, missing)
	}
	if a.root == nil {
		return nil, ErrNoRoot
	}
	a.root.Refine = REFINE_REPLACE
	sortChildren(a.root)
	return a.root, nil
}

func sortChildren(t *Tile) {
	sort.Slice(t.Children, func(i, j int) bool { return t.Children[i].ID < t.Children[j].ID })
	for _, c := range t.Children {
		sortChildren(c)
	}
}
