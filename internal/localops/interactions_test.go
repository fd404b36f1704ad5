package localops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/pkg/geom"
)

func boxShape(x0, y0, x1, y1 int64) geom.Shape {
	return geom.NewBoxShape(geom.NewBox(geom.Point{X: x0, Y: y0}, geom.Point{X: x1, Y: y1}))
}

func TestBuild_ConnectsOverlappingPairs(t *testing.T) {
	self := []geom.Shape{boxShape(0, 0, 10, 10), boxShape(100, 100, 110, 110)}
	intruder := []geom.Shape{boxShape(5, 5, 15, 15)}

	ix := Build(self, intruder, 0, false)
	assert.Equal(t, []int{0}, ix.ForSelf(0))
	assert.Empty(t, ix.ForSelf(1))
	assert.Equal(t, 1, ix.Count(0))
}

func TestBuild_TouchingIncludesEdgeContact(t *testing.T) {
	self := []geom.Shape{boxShape(0, 0, 10, 10)}
	intruder := []geom.Shape{boxShape(10, 0, 20, 10)}

	assert.Empty(t, Build(self, intruder, 0, false).ForSelf(0))
	assert.Equal(t, []int{0}, Build(self, intruder, 0, true).ForSelf(0))
}

func TestBuild_DistEnlargesSelfBeforeTesting(t *testing.T) {
	self := []geom.Shape{boxShape(0, 0, 10, 10)}
	intruder := []geom.Shape{boxShape(15, 0, 25, 10)}

	require.Empty(t, Build(self, intruder, 0, true).ForSelf(0))
	assert.Equal(t, []int{0}, Build(self, intruder, 10, true).ForSelf(0))
}

func TestInteractingForMode_Inside(t *testing.T) {
	inner := geom.NewBox(geom.Point{X: 2, Y: 2}, geom.Point{X: 8, Y: 8})
	outer := geom.NewBox(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 10})

	assert.True(t, interactsForMode(ModeInside, false, inner, outer))
	assert.False(t, interactsForMode(ModeInside, false, outer, inner))
}

func TestInteractingForMode_Outside(t *testing.T) {
	a := geom.NewBox(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 10})
	b := geom.NewBox(geom.Point{X: 100, Y: 100}, geom.Point{X: 110, Y: 110})
	overlapping := geom.NewBox(geom.Point{X: 5, Y: 5}, geom.Point{X: 15, Y: 15})

	assert.True(t, interactsForMode(ModeOutside, false, a, b))
	assert.False(t, interactsForMode(ModeOutside, false, a, overlapping))
}
