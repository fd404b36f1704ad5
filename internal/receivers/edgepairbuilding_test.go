package receivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/pkg/geom"
)

func TestEdgePairBuilding_PassesEdgePairsThrough(t *testing.T) {
	b, cell, layer := newTestBuilder(t)
	epb := NewEdgePairBuilding(b)

	pair := geom.EdgePair{
		First:  geom.Edge{P0: geom.Point{0, 0}, P1: geom.Point{10, 0}},
		Second: geom.Edge{P0: geom.Point{0, 5}, P1: geom.Point{10, 5}},
	}
	epb.BeginCell(cell)
	epb.Push(geom.NewEdgePairShape(pair), geom.Identity())
	epb.EndCell(cell)

	shapes := b.Target().Shapes(cell, layer)
	require.Len(t, shapes, 1)
	assert.Equal(t, geom.KindEdgePair, shapes[0].Kind)
	assert.Equal(t, pair, shapes[0].EdgePair)
}

func TestEdgePairBuilding_IgnoresOtherKinds(t *testing.T) {
	b, cell, layer := newTestBuilder(t)
	epb := NewEdgePairBuilding(b)

	epb.BeginCell(cell)
	epb.Push(geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{10, 10})), geom.Identity())
	epb.EndCell(cell)

	assert.Empty(t, b.Target().Shapes(cell, layer))
}
