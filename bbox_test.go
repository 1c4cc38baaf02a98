package meshtile

import (
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
)

// TestEmptyBox3 测试空包围盒的种子行为
func TestEmptyBox3(t *testing.T) {
	b := EmptyBox3()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, vec3.T{}, b.Size())
	assert.Equal(t, float32(0), b.Diagonal())

	p := vec3.T{1, 2, 3}
	b.ExtendPoint(&p)
	assert.False(t, b.IsEmpty())
	assert.Equal(t, p, b.Min)
	assert.Equal(t, p, b.Max)

	q := vec3.T{-1, 4, 3}
	b.ExtendPoint(&q)
	assert.Equal(t, vec3.T{-1, 2, 3}, b.Min)
	assert.Equal(t, vec3.T{1, 4, 3}, b.Max)
	assert.Equal(t, vec3.T{0, 3, 3}, b.Center())
	assert.Equal(t, vec3.T{2, 2, 0}, b.Size())
}

// TestBox3Contains 测试包含关系含边界
func TestBox3Contains(t *testing.T) {
	b := Box3{Min: vec3.T{0, 0, 0}, Max: vec3.T{1, 1, 1}}
	tests := []struct {
		name string
		p    vec3.T
		want bool
	}{
		{"inside", vec3.T{0.5, 0.5, 0.5}, true},
		{"corner", vec3.T{1, 1, 1}, true},
		{"face", vec3.T{0, 0.5, 0.5}, true},
		{"outside", vec3.T{1.01, 0.5, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.ContainsPoint(&tt.p))
		})
	}

	inner := Box3{Min: vec3.T{0.2, 0, 0.2}, Max: vec3.T{0.8, 1, 0.8}}
	assert.True(t, b.ContainsBox(&inner))
	assert.False(t, inner.ContainsBox(&b))
	empty := EmptyBox3()
	assert.True(t, b.ContainsBox(&empty))
}

// TestBox3Intersects 测试相交判断, 接触即相交
func TestBox3Intersects(t *testing.T) {
	a := Box3{Min: vec3.T{0, 0, 0}, Max: vec3.T{1, 1, 1}}
	tests := []struct {
		name string
		b    Box3
		want bool
	}{
		{"overlap", Box3{Min: vec3.T{0.5, 0.5, 0.5}, Max: vec3.T{2, 2, 2}}, true},
		{"touch", Box3{Min: vec3.T{1, 0, 0}, Max: vec3.T{2, 1, 1}}, true},
		{"apart", Box3{Min: vec3.T{1.5, 0, 0}, Max: vec3.T{2, 1, 1}}, false},
		{"empty", EmptyBox3(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Intersects(&tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(&a))
		})
	}
}

// TestBox2 测试纹理包围盒
func TestBox2(t *testing.T) {
	b := EmptyBox2()
	assert.True(t, b.IsEmpty())
	for _, p := range []vec2.T{{0.25, 0.5}, {0.75, 0.125}} {
		p := p
		b.ExtendPoint(&p)
	}
	assert.Equal(t, vec2.T{0.25, 0.125}, b.Min)
	assert.Equal(t, vec2.T{0.75, 0.5}, b.Max)
	assert.Equal(t, vec2.T{0.5, 0.375}, b.Size())

	unit := UnitBox2()
	assert.True(t, unit.ContainsBox(&b))
	outside := Box2{Min: vec2.T{0.5, 0.5}, Max: vec2.T{1.5, 1}}
	assert.False(t, unit.ContainsBox(&outside))
	assert.True(t, unit.Intersects(&outside))
}
