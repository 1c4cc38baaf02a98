package meshtile

import (
	"context"

	"go.uber.org/zap"
)

// Chunk 输出的分块
type Chunk struct {
	Kind           ChunkKind
	Group          *Group
	ID             ID
	ParentID       ID
	Depth          int
	BoundingBox    Box3
	GeometricError float32
}

// HasContent 分块是否带几何
func (c *Chunk) HasContent() bool {
	return c.Group != nil && c.Group.PolygonCount() > 0
}

// Splitter 按多边形预算递归做空间中值切分
type Splitter struct {
	Budget   int
	MaxDepth int

	ids   *IDGenerator
	sched *Scheduler
	emit  func(c *Chunk) error
	log   *zap.Logger

	dropped int
}

// NewSplitter sched为空时中间节点不生成简化层, 只输出无内容的分块
func NewSplitter(budget, maxDepth int, ids *IDGenerator, sched *Scheduler, emit func(c *Chunk) error, log *zap.Logger) *Splitter {
	if log == nil {
		log = zap.NewNop()
	}
	if maxDepth <= 0 {
		maxDepth = DEFAULT_MAX_DEPTH
	}
	return &Splitter{Budget: budget, MaxDepth: maxDepth, ids: ids, sched: sched, emit: emit, log: log}
}

func (s *Splitter) Split(ctx context.Context, target *Group) error {
	return s.split(ctx, target, NoParent, 0, AxisX)
}

func (s *Splitter) split(ctx context.Context, target *Group, parent ID, depth int, axis Axis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	count := target.PolygonCount()
	if count == 0 {
		s.dropped++
		return nil
	}

	if count <= s.Budget || depth >= s.MaxDepth {
		return s.terminal(target, parent, depth, count)
	}

	left, right, axis, ok := s.bisect(target, axis, count)
	if !ok {
		s.log.Debug("split made no progress", zap.Int64("parent", int64(parent)), zap.Int("depth", depth), zap.Int("triangles", count))
		return s.terminal(target, parent, depth, count)
	}

	id := s.ids.Next()
	box := BoundingBoxOf(target)
	if s.sched != nil {
		err := s.sched.Submit(&SplitTask{
			Target:   target,
			ID:       id,
			ParentID: parent,
			Depth:    depth,
			Callback: func(lod *Group, id, parent ID, depth int) error {
				b := box.Clone()
				b.ExtendBox(&lod.BoundingBox)
				return s.emit(&Chunk{
					Kind:           CHUNK_KIND_LOD,
					Group:          lod,
					ID:             id,
					ParentID:       parent,
					Depth:          depth,
					BoundingBox:    b,
					GeometricError: lod.GeometricError,
				})
			},
		})
		if err != nil {
			return err
		}
	} else {
		if err := s.emit(&Chunk{
			Kind:           CHUNK_KIND_EMPTY,
			ID:             id,
			ParentID:       parent,
			Depth:          depth,
			BoundingBox:    box,
			GeometricError: box.Diagonal(),
		}); err != nil {
			return err
		}
	}

	for _, half := range []*Group{left, right} {
		if err := s.split(ctx, half, id, depth+1, axis.next()); err != nil {
			return err
		}
	}
	return nil
}

// bisect 沿当前轴切分; 裁剪会增加三角形, 任一侧不少于原分块即视为没有进展,
// 此时改用另一轴, 两个轴都没有进展返回false
func (s *Splitter) bisect(target *Group, axis Axis, count int) (*Group, *Group, Axis, bool) {
	for i := 0; i < 2; i++ {
		left, right, cut := HalfGroup(target, axis)
		lc, rc := left.PolygonCount(), right.PolygonCount()
		s.log.Debug("median split", zap.Stringer("axis", axis), zap.Float32("cut", cut), zap.Int("left", lc), zap.Int("right", rc))
		if lc < count && rc < count {
			return left, right, axis, true
		}
		left.Free()
		right.Free()
		axis = axis.next()
	}
	return nil, nil, axis, false
}

func (s *Splitter) terminal(target *Group, parent ID, depth, count int) error {
	res, err := SplitUV(target)
	if err != nil {
		return err
	}
	if res.PolygonCount() == 0 {
		s.dropped++
		return nil
	}
	id := s.ids.Next()
	s.log.Debug("terminal chunk", zap.Int64("id", int64(id)), zap.Int64("parent", int64(parent)), zap.Int("depth", depth), zap.Int("triangles", count))
	return s.emit(&Chunk{
		Kind:           CHUNK_KIND_TERMINAL,
		Group:          res,
		ID:             id,
		ParentID:       parent,
		Depth:          depth,
		BoundingBox:    res.BoundingBox,
		GeometricError: res.GeometricError,
	})
}

// Dropped 因为没有三角形而丢弃的分块数
func (s *Splitter) Dropped() int {
	return s.dropped
}
