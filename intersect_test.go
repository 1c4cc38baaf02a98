package meshtile

import (
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
)

// TestTriangleBoxOverlap 测试分离轴判断
func TestTriangleBoxOverlap(t *testing.T) {
	center := vec3.T{0, 0, 0}
	half := vec3.T{0.5, 0.5, 0.5}
	tests := []struct {
		name    string
		a, b, c vec3.T
		want    bool
	}{
		{"inside", vec3.T{-0.1, 0, 0}, vec3.T{0.1, 0, 0}, vec3.T{0, 0.1, 0}, true},
		{"crossing", vec3.T{-2, 0, -2}, vec3.T{2, 0, -2}, vec3.T{0, 0, 2}, true},
		{"enclosing box in plane", vec3.T{-10, 0.2, -10}, vec3.T{10, 0.2, -10}, vec3.T{0, 0.2, 10}, true},
		{"above", vec3.T{-1, 1, -1}, vec3.T{1, 1, -1}, vec3.T{0, 1, 1}, false},
		{"plane misses", vec3.T{2, -2, 0}, vec3.T{2, 2, 0}, vec3.T{4, 0, 0}, false},
		{"diagonal miss", vec3.T{0.9, 0, -1}, vec3.T{1.5, 0, -1}, vec3.T{0.9, 0, 1}, false},
		{"touching face", vec3.T{0.5, -1, -1}, vec3.T{0.5, 1, -1}, vec3.T{0.5, 0, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TriangleBoxOverlap(&center, &half, &tt.a, &tt.b, &tt.c))
		})
	}
}

// TestClosestPointOnTriangle 测试最近点与重心坐标
func TestClosestPointOnTriangle(t *testing.T) {
	a, b, c := vec3.T{0, 0, 0}, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}
	tests := []struct {
		name string
		p    vec3.T
		want vec3.T
	}{
		{"vertex a", vec3.T{-1, -1, 0}, a},
		{"vertex b", vec3.T{2, -0.5, 0}, b},
		{"vertex c", vec3.T{-0.5, 2, 0}, c},
		{"edge ab", vec3.T{0.5, -1, 0}, vec3.T{0.5, 0, 0}},
		{"edge bc", vec3.T{1, 1, 0}, vec3.T{0.5, 0.5, 0}},
		{"face", vec3.T{0.25, 0.25, 3}, vec3.T{0.25, 0.25, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, bary := ClosestPointOnTriangle(&tt.p, &a, &b, &c)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tt.want[i], q[i], 1e-6)
			}
			assert.InDelta(t, 1, bary[0]+bary[1]+bary[2], 1e-6)
			for i := 0; i < 3; i++ {
				r := a[i]*bary[0] + b[i]*bary[1] + c[i]*bary[2]
				assert.InDelta(t, q[i], r, 1e-6)
			}
		})
	}
}
