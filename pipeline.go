package meshtile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options 切分流程参数
type Options struct {
	PolygonBudget int
	MaxDepth      int
	LOD           bool
	Slots         int
	ZUp           bool
	Decimator     DecimatorOptions
}

func DefaultOptions() Options {
	return Options{
		PolygonBudget: DEFAULT_POLYGON_BUDGET,
		MaxDepth:      DEFAULT_MAX_DEPTH,
		LOD:           true,
		Slots:         DEFAULT_SLOTS,
		ZUp:           true,
		Decimator:     DefaultDecimatorOptions(),
	}
}

// ChunkSaver 保存分块并返回内容引用
type ChunkSaver interface {
	SaveChunk(c *Chunk) (string, error)
}

// Stats 一次运行的统计
type Stats struct {
	Tiles     int
	Terminal  int
	LOD       int
	Empty     int
	Dropped   int
	Tasks     int
	PeakTasks int
}

// Pipeline 递归切分, 简化任务与瓦片树组装
type Pipeline struct {
	opts  Options
	saver ChunkSaver
	log   *zap.Logger
	ids   *IDGenerator
	stats Stats
}

func NewPipeline(opts Options, saver ChunkSaver, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Slots < 1 {
		opts.Slots = 1
	}
	return &Pipeline{opts: opts, saver: saver, log: log, ids: NewIDGenerator()}
}

// Run 切分整个模型; 分块由单个协程保存并挂到瓦片树上
func (p *Pipeline) Run(ctx context.Context, root *Group) (*Tile, error) {
	p.ids.Reset()
	p.stats = Stats{}

	g, gctx := errgroup.WithContext(ctx)
	chunks := make(chan *Chunk, p.opts.Slots)
	asm := NewAssembler(p.opts.ZUp)
	g.Go(func() error {
		for c := range chunks {
			if err := p.consume(asm, c); err != nil {
				return err
			}
		}
		return nil
	})

	emit := func(c *Chunk) error {
		select {
		case chunks <- c:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	}

	var sched *Scheduler
	if p.opts.LOD {
		sched = NewScheduler(gctx, p.opts.Slots, p.opts.Decimator, p.log)
	}
	splitter := NewSplitter(p.opts.PolygonBudget, p.opts.MaxDepth, p.ids, sched, emit, p.log)
	splitErr := splitter.Split(gctx, root)

	var taskErr error
	if sched != nil {
		taskErr = sched.Wait()
		p.stats.Tasks = sched.Submitted()
		p.stats.PeakTasks = sched.Peak()
	}
	close(chunks)
	consumeErr := g.Wait()
	p.stats.Dropped = splitter.Dropped()

	switch {
	case consumeErr != nil:
		return nil, consumeErr
	case taskErr != nil:
		return nil, taskErr
	case splitErr != nil:
		return nil, splitErr
	}

	tile, err := asm.Root()
	if err != nil {
		return nil, err
	}
	p.log.Info("pipeline finished",
		zap.Int("tiles", p.stats.Tiles),
		zap.Int("terminal", p.stats.Terminal),
		zap.Int("lod", p.stats.LOD),
		zap.Int("tasks", p.stats.Tasks),
		zap.Int("dropped", p.stats.Dropped))
	return tile, nil
}

func (p *Pipeline) consume(asm *Assembler, c *Chunk) error {
	var uri string
	if c.HasContent() && p.saver != nil {
		var err error
		if uri, err = p.saver.SaveChunk(c); err != nil {
			return fmt.Errorf("save chunk %d: %w", c.ID, err)
		}
	}
	if _, err := asm.Add(c, uri); err != nil {
		return err
	}
	p.stats.Tiles++
	switch c.Kind {
	case CHUNK_KIND_TERMINAL:
		p.stats.Terminal++
	case CHUNK_KIND_LOD:
		p.stats.LOD++
	case CHUNK_KIND_EMPTY:
		p.stats.Empty++
	}
	p.log.Info("chunk emitted",
		zap.Stringer("kind", c.Kind),
		zap.Int64("id", int64(c.ID)),
		zap.Int64("parent", int64(c.ParentID)),
		zap.Int("depth", c.Depth),
		zap.String("uri", uri))
	if c.Group != nil {
		c.Group.Free()
	}
	return nil
}

// Stats 最近一次运行的统计
func (p *Pipeline) Stats() Stats {
	return p.stats
}
