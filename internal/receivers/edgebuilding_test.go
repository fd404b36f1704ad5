package receivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/pkg/geom"
)

func TestEdgeBuilding_AsEdgesPassesEdgesThrough(t *testing.T) {
	b, cell, layer := newTestBuilder(t)
	eb := NewEdgeBuilding(b, true)

	eb.BeginCell(cell)
	eb.Push(geom.NewEdgeShape(geom.Edge{P0: geom.Point{0, 0}, P1: geom.Point{10, 0}}), geom.Identity())
	eb.EndCell(cell)

	shapes := b.Target().Shapes(cell, layer)
	require.Len(t, shapes, 1)
	assert.Equal(t, geom.KindEdge, shapes[0].Kind)
}

func TestEdgeBuilding_AsEdgesDropsPolygons(t *testing.T) {
	b, cell, layer := newTestBuilder(t)
	eb := NewEdgeBuilding(b, true)

	eb.BeginCell(cell)
	eb.Push(geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{10, 10})), geom.Identity())
	eb.EndCell(cell)

	assert.Empty(t, b.Target().Shapes(cell, layer))
}

func TestEdgeBuilding_DerivesBoundaryEdgesFromPolygon(t *testing.T) {
	b, cell, layer := newTestBuilder(t)
	eb := NewEdgeBuilding(b, false)

	eb.BeginCell(cell)
	eb.Push(geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{10, 10})), geom.Identity())
	eb.EndCell(cell)

	shapes := b.Target().Shapes(cell, layer)
	assert.Len(t, shapes, 4)
	for _, s := range shapes {
		assert.Equal(t, geom.KindEdge, s.Kind)
	}
}

func TestEdgeBuilding_NotAsEdgesIgnoresLiteralEdges(t *testing.T) {
	b, cell, layer := newTestBuilder(t)
	eb := NewEdgeBuilding(b, false)

	eb.BeginCell(cell)
	eb.Push(geom.NewEdgeShape(geom.Edge{P0: geom.Point{0, 0}, P1: geom.Point{10, 0}}), geom.Identity())
	eb.EndCell(cell)

	assert.Empty(t, b.Target().Shapes(cell, layer))
}
