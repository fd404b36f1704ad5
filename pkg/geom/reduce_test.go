package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func starPolygon(points int, rOuter, rInner float64) Polygon {
	pts := make([]Point, 0, points*2)
	for i := 0; i < points*2; i++ {
		angle := float64(i) * math.Pi / float64(points)
		r := rOuter
		if i%2 == 1 {
			r = rInner
		}
		pts = append(pts, Point{X: int64(r * math.Cos(angle)), Y: int64(r * math.Sin(angle))})
	}
	return Polygon{Points: pts}
}

func TestReduce_WithinThresholds_NoSplit(t *testing.T) {
	sq := Box{P0: Point{0, 0}, P1: Point{10, 10}}.AsPolygon()
	frags := Reduce(sq, 3.0, 16)
	assert.Len(t, frags, 1)
	assert.True(t, frags[0].Equal(sq))
}

func TestReduce_ExceedsVertexCount_SplitsAndEachFragmentSatisfiesOrIsTriangle(t *testing.T) {
	star := starPolygon(500, 1000, 400)
	frags := Reduce(star, 3.0, 16)

	assert.Greater(t, len(frags), 1)
	for _, f := range frags {
		if f.VertexCount() > 16 {
			t.Fatalf("fragment with %d vertices exceeds max_vertex_count=16", f.VertexCount())
		}
	}
}

func TestReduce_Deterministic(t *testing.T) {
	star := starPolygon(200, 500, 200)
	f1 := Reduce(star, 3.0, 16)
	f2 := Reduce(star, 3.0, 16)

	assert.Equal(t, len(f1), len(f2))
	for i := range f1 {
		assert.True(t, f1[i].Equal(f2[i]))
	}
}

func TestReduce_DisabledThresholdsMeanNoLimit(t *testing.T) {
	star := starPolygon(500, 1000, 400)
	frags := Reduce(star, 0, 0)
	assert.Len(t, frags, 1)
}

func TestReduce_TriangleNeverSplitsFurther(t *testing.T) {
	tri := Polygon{Points: []Point{{0, 0}, {1000000, 0}, {0, 1}}}
	frags := Reduce(tri, 0.001, 3)
	assert.Len(t, frags, 1)
}
