package meshtile

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
)

// TriangleBoxOverlap 三角形与轴对齐盒的分离轴测试, 接触视为相交
func TriangleBoxOverlap(center, half *vec3.T, a, b, c *vec3.T) bool {
	v := [3]vec3.T{vec3.Sub(a, center), vec3.Sub(b, center), vec3.Sub(c, center)}
	e := [3]vec3.T{vec3.Sub(&v[1], &v[0]), vec3.Sub(&v[2], &v[1]), vec3.Sub(&v[0], &v[2])}

	axes := [3]vec3.T{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i := range e {
		for j := range axes {
			ax := vec3.Cross(&axes[j], &e[i])
			if separated(&ax, &v, half) {
				return false
			}
		}
	}

	for i := range axes {
		if separated(&axes[i], &v, half) {
			return false
		}
	}

	n := vec3.Cross(&e[0], &e[1])
	return !separated(&n, &v, half)
}

// separated 三角形与盒在轴上的投影区间是否分离
func separated(axis *vec3.T, v *[3]vec3.T, half *vec3.T) bool {
	p0 := vec3.Dot(&v[0], axis)
	p1 := vec3.Dot(&v[1], axis)
	p2 := vec3.Dot(&v[2], axis)
	r := half[0]*math32.Abs(axis[0]) + half[1]*math32.Abs(axis[1]) + half[2]*math32.Abs(axis[2])
	lo := math32.Min(p0, math32.Min(p1, p2))
	hi := math32.Max(p0, math32.Max(p1, p2))
	return lo > r || hi < -r
}

// ClosestPointOnTriangle 返回三角形上距p最近的点及其重心坐标
func ClosestPointOnTriangle(p, a, b, c *vec3.T) (vec3.T, [3]float32) {
	ab := vec3.Sub(b, a)
	ac := vec3.Sub(c, a)
	ap := vec3.Sub(p, a)
	d1 := vec3.Dot(&ab, &ap)
	d2 := vec3.Dot(&ac, &ap)
	if d1 <= 0 && d2 <= 0 {
		return *a, [3]float32{1, 0, 0}
	}

	bp := vec3.Sub(p, b)
	d3 := vec3.Dot(&ab, &bp)
	d4 := vec3.Dot(&ac, &bp)
	if d3 >= 0 && d4 <= d3 {
		return *b, [3]float32{0, 1, 0}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := safeDiv(d1, d1-d3)
		return vec3.Interpolate(a, b, t), [3]float32{1 - t, t, 0}
	}

	cp := vec3.Sub(p, c)
	d5 := vec3.Dot(&ab, &cp)
	d6 := vec3.Dot(&ac, &cp)
	if d6 >= 0 && d5 <= d6 {
		return *c, [3]float32{0, 0, 1}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := safeDiv(d2, d2-d6)
		return vec3.Interpolate(a, c, t), [3]float32{1 - t, 0, t}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		t := safeDiv(d4-d3, (d4-d3)+(d5-d6))
		return vec3.Interpolate(b, c, t), [3]float32{0, 1 - t, t}
	}

	denom := safeDiv(1, va+vb+vc)
	v := vb * denom
	w := vc * denom
	q := vec3.T{
		a[0] + ab[0]*v + ac[0]*w,
		a[1] + ab[1]*v + ac[1]*w,
		a[2] + ab[2]*v + ac[2]*w,
	}
	return q, [3]float32{1 - v - w, v, w}
}

func safeDiv(n, d float32) float32 {
	if d == 0 {
		return 0
	}
	return n / d
}

func distanceSqr(a, b *vec3.T) float32 {
	d := vec3.Sub(a, b)
	return vec3.Dot(&d, &d)
}
