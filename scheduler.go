package meshtile

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// LODCallback 任务完成后以简化结果回调, 在工作协程上执行
type LODCallback func(lod *Group, id, parent ID, depth int) error

// SplitTask 细节层次任务
type SplitTask struct {
	Target   *Group
	ID       ID
	ParentID ID
	Depth    int
	Callback LODCallback
}

// Scheduler 有界并发的简化任务池, 无空闲槽位时提交阻塞
type Scheduler struct {
	ctx     context.Context
	slots   *semaphore.Weighted
	group   *errgroup.Group
	options DecimatorOptions
	log     *zap.Logger
	work    func(task *SplitTask) (*Group, error)

	submitted atomic.Int64
	running   atomic.Int64
	peak      atomic.Int64
}

func NewScheduler(ctx context.Context, slots int, options DecimatorOptions, log *zap.Logger) *Scheduler {
	if slots < 1 {
		slots = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	g, gctx := errgroup.WithContext(ctx)
	s := &Scheduler{
		ctx:     gctx,
		slots:   semaphore.NewWeighted(int64(slots)),
		group:   g,
		options: options,
		log:     log,
	}
	s.work = s.decimate
	return s
}

// Submit 占用一个槽位后异步执行任务; 已有任务失败时返回错误
func (s *Scheduler) Submit(task *SplitTask) error {
	if err := s.slots.Acquire(s.ctx, 1); err != nil {
		return fmt.Errorf("wait for lod slot: %w", err)
	}
	s.submitted.Add(1)
	s.log.Debug("lod task submitted", zap.Int64("id", int64(task.ID)), zap.Int64("parent", int64(task.ParentID)), zap.Int("depth", task.Depth))
	s.group.Go(func() (err error) {
		defer s.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("lod task %d panic: %v", task.ID, r)
			}
		}()
		return s.run(task)
	})
	return nil
}

func (s *Scheduler) run(task *SplitTask) error {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	lod, err := s.work(task)
	if err != nil {
		return fmt.Errorf("lod task %d: %w", task.ID, err)
	}
	s.log.Debug("lod task finished", zap.Int64("id", int64(task.ID)), zap.Int("triangles", lod.PolygonCount()))
	if task.Callback == nil {
		return nil
	}
	return task.Callback(lod, task.ID, task.ParentID, task.Depth)
}

// decimate 每个任务使用独立的体素网格
func (s *Scheduler) decimate(task *SplitTask) (*Group, error) {
	grid, err := NewVoxelGrid(s.options.Resolution)
	if err != nil {
		return nil, err
	}
	lod := grid.Decimate(task.Target, s.options)
	TextureLOD(lod, s.options.TextureScale)
	lod.Name = LOD_GROUP_NAME
	return lod, nil
}

// Wait 等待全部任务结束, 返回第一个失败任务的错误
func (s *Scheduler) Wait() error {
	return s.group.Wait()
}

func (s *Scheduler) Submitted() int {
	return int(s.submitted.Load())
}

// Peak 同时运行任务数的峰值
func (s *Scheduler) Peak() int {
	return int(s.peak.Load())
}
