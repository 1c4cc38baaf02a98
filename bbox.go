package meshtile

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Box3 三维包围盒
type Box3 struct {
	Min vec3.T `json:"min"`
	Max vec3.T `json:"max"`
}

// EmptyBox3 返回未初始化的包围盒, 第一次扩展即为种子
func EmptyBox3() Box3 {
	inf := math32.Inf(1)
	return Box3{
		Min: vec3.T{inf, inf, inf},
		Max: vec3.T{-inf, -inf, -inf},
	}
}

func (b *Box3) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b *Box3) ExtendPoint(p *vec3.T) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

func (b *Box3) ExtendBox(o *Box3) {
	if o.IsEmpty() {
		return
	}
	b.ExtendPoint(&o.Min)
	b.ExtendPoint(&o.Max)
}

func (b *Box3) Clone() Box3 {
	return Box3{Min: b.Min, Max: b.Max}
}

func (b *Box3) Size() vec3.T {
	if b.IsEmpty() {
		return vec3.T{}
	}
	return vec3.Sub(&b.Max, &b.Min)
}

func (b *Box3) Center() vec3.T {
	if b.IsEmpty() {
		return vec3.T{}
	}
	return vec3.Interpolate(&b.Min, &b.Max, 0.5)
}

func (b *Box3) Diagonal() float32 {
	s := b.Size()
	return s.Length()
}

// ContainsPoint 点是否在盒内(含边界)
func (b *Box3) ContainsPoint(p *vec3.T) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b *Box3) ContainsBox(o *Box3) bool {
	if o.IsEmpty() {
		return true
	}
	return b.ContainsPoint(&o.Min) && b.ContainsPoint(&o.Max)
}

// Intersects 闵可夫斯基和近似: 合并尺寸不超过两者尺寸之和即相交
func (b *Box3) Intersects(o *Box3) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	u := b.Clone()
	u.ExtendBox(o)
	su, sa, sb := u.Size(), b.Size(), o.Size()
	for i := 0; i < 3; i++ {
		if su[i] > sa[i]+sb[i] {
			return false
		}
	}
	return true
}

// Box2 纹理坐标包围盒
type Box2 struct {
	Min vec2.T `json:"min"`
	Max vec2.T `json:"max"`
}

func EmptyBox2() Box2 {
	inf := math32.Inf(1)
	return Box2{
		Min: vec2.T{inf, inf},
		Max: vec2.T{-inf, -inf},
	}
}

// UnitBox2 纹理空间单位正方形
func UnitBox2() Box2 {
	return Box2{Min: vec2.T{0, 0}, Max: vec2.T{1, 1}}
}

func (b *Box2) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1]
}

func (b *Box2) ExtendPoint(p *vec2.T) {
	for i := 0; i < 2; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

func (b *Box2) ExtendBox(o *Box2) {
	if o.IsEmpty() {
		return
	}
	b.ExtendPoint(&o.Min)
	b.ExtendPoint(&o.Max)
}

func (b *Box2) Clone() Box2 {
	return Box2{Min: b.Min, Max: b.Max}
}

func (b *Box2) Size() vec2.T {
	if b.IsEmpty() {
		return vec2.T{}
	}
	return vec2.T{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1]}
}

func (b *Box2) ContainsPoint(p *vec2.T) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b *Box2) ContainsBox(o *Box2) bool {
	if o.IsEmpty() {
		return true
	}
	return b.ContainsPoint(&o.Min) && b.ContainsPoint(&o.Max)
}

func (b *Box2) Intersects(o *Box2) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	u := b.Clone()
	u.ExtendBox(o)
	su, sa, sb := u.Size(), b.Size(), o.Size()
	return su[0] <= sa[0]+sb[0] && su[1] <= sa[1]+sb[1]
}
