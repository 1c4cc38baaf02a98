package meshtile

import "sync/atomic"

// IDGenerator 单调递增的分块标识, 可被多个协程同时调用
type IDGenerator struct {
	last atomic.Int64
}

func NewIDGenerator() *IDGenerator {
	g := &IDGenerator{}
	g.Reset()
	return g
}

// Next 第一次调用返回0
func (g *IDGenerator) Next() ID {
	return ID(g.last.Add(1))
}

// Last 最近一次分配的标识, 未分配时为NoParent
func (g *IDGenerator) Last() ID {
	return ID(g.last.Load())
}

func (g *IDGenerator) Reset() {
	g.last.Store(int64(NoParent))
}
