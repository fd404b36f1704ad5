package receivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/pkg/geom"
)

func TestReducing_PassesSmallPolygonThroughUnsplit(t *testing.T) {
	next := &collectingReceiver{}
	r := NewReducing(0, 0, next)

	poly := geom.NewBox(geom.Point{0, 0}, geom.Point{10, 10}).AsPolygon()
	r.Push(geom.NewPolygonShape(poly), geom.Identity())

	require.Len(t, next.pushed, 1)
}

func TestReducing_SplitsOnVertexCount(t *testing.T) {
	next := &collectingReceiver{}
	r := NewReducing(0, 4, next)

	star := geom.Polygon{Points: []geom.Point{
		{0, 0}, {10, 1}, {2, 2}, {10, 3}, {0, 4}, {-10, 3}, {-2, 2}, {-10, 1},
	}}
	r.Push(geom.NewPolygonShape(star), geom.Identity())

	assert.Greater(t, len(next.pushed), 1)
	for _, s := range next.pushed {
		assert.Equal(t, geom.KindPolygon, s.Kind)
	}
}

func TestReducing_NonPolygonPassesThrough(t *testing.T) {
	next := &collectingReceiver{}
	r := NewReducing(1, 4, next)

	edge := geom.NewEdgeShape(geom.Edge{P0: geom.Point{0, 0}, P1: geom.Point{10, 10}})
	r.Push(edge, geom.Identity())

	require.Len(t, next.pushed, 1)
	assert.Equal(t, geom.KindEdge, next.pushed[0].Kind)
}
