package localops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/pkg/geom"
)

func TestCheckLocalOperation_FlagsCloseEdges(t *testing.T) {
	a := boxShape(0, 0, 10, 10)
	b := boxShape(12, 0, 22, 10)

	op := NewCheckLocalOperation(EdgeRelationFilter{Kind: Spacing, Min: 5}, false, true, false)
	ix := Build([]geom.Shape{a}, []geom.Shape{b}, op.Dist(), true)

	results := op.ComputeLocal(ix)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0])
	for _, s := range results[0] {
		assert.Equal(t, geom.KindEdgePair, s.Kind)
	}
}

func TestCheckLocalOperation_NoViolationWhenFarEnough(t *testing.T) {
	a := boxShape(0, 0, 10, 10)
	b := boxShape(20, 0, 30, 10)

	op := NewCheckLocalOperation(EdgeRelationFilter{Kind: Spacing, Min: 5}, false, true, false)
	ix := Build([]geom.Shape{a}, []geom.Shape{b}, op.Dist(), true)

	results := op.ComputeLocal(ix)
	assert.Empty(t, results[0])
}

func TestCheckLocalOperation_SelfCheckWithoutOther(t *testing.T) {
	a := boxShape(0, 0, 4, 10)
	op := NewCheckLocalOperation(EdgeRelationFilter{Kind: Width, Min: 5}, false, false, false)
	ix := Build([]geom.Shape{a}, nil, op.Dist(), true)

	results := op.ComputeLocal(ix)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0])
}

func TestCheckLocalOperation_ShieldedSuppressesOccludedPair(t *testing.T) {
	a := boxShape(0, 0, 10, 10)
	b := boxShape(12, 0, 22, 10)
	shield := boxShape(10, 0, 12, 10)

	op := NewCheckLocalOperation(EdgeRelationFilter{Kind: Spacing, Min: 5}, false, true, true)
	ix := Build([]geom.Shape{a, shield}, []geom.Shape{b}, op.Dist(), true)

	results := op.ComputeLocal(ix)
	assert.Empty(t, results[0])
}

func TestInteractingLocalOperation_SelectsWithinCountBounds(t *testing.T) {
	self := []geom.Shape{boxShape(0, 0, 10, 10), boxShape(100, 100, 110, 110)}
	intruder := []geom.Shape{boxShape(5, 5, 15, 15)}

	op := NewInteractingLocalOperation(ModeOverlap, false, false, 1, 0)
	ix := buildModeInteractions(self, intruder, op.Dist(), op.Mode, op.Touching)

	results := op.ComputeLocal(ix)
	require.Len(t, results, 2)
	assert.Len(t, results[0], 1)
	assert.Empty(t, results[1])
}

func TestInteractingLocalOperation_InverseComplementsSelection(t *testing.T) {
	self := []geom.Shape{boxShape(0, 0, 10, 10), boxShape(100, 100, 110, 110)}
	intruder := []geom.Shape{boxShape(5, 5, 15, 15)}

	op := NewInteractingLocalOperation(ModeOverlap, false, true, 1, 0)
	ix := buildModeInteractions(self, intruder, op.Dist(), op.Mode, op.Touching)

	results := op.ComputeLocal(ix)
	assert.Empty(t, results[0])
	assert.Len(t, results[1], 1)
}

func TestPullLocalOperation_PullsIntrudersPerSelf(t *testing.T) {
	self := []geom.Shape{boxShape(0, 0, 10, 10)}
	intruder := []geom.Shape{boxShape(5, 5, 15, 15), boxShape(200, 200, 210, 210)}

	op := NewPullLocalOperation(ModeOverlap, false)
	ix := buildModeInteractions(self, intruder, op.Dist(), op.Mode, op.Touching)

	results := op.ComputeLocal(ix)
	require.Len(t, results, 1)
	require.Len(t, results[0], 1)
	assert.Equal(t, intruder[0], results[0][0])
}

func TestInteractingWithTextLocalOperation_EmptyIntruderHintCopiesOnInverse(t *testing.T) {
	op := NewInteractingWithTextLocalOperation(true, 1, 0)
	assert.Equal(t, OnEmptyCopySelf, op.OnEmptyIntruderHint())

	op2 := NewInteractingWithTextLocalOperation(false, 1, 0)
	assert.Equal(t, OnEmptyDrop, op2.OnEmptyIntruderHint())
}
