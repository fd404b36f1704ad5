package dssiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/hierbuild"
	"github.com/JiancunWang/klayout/pkg/geom"
)

type recordingReceiver struct {
	begins []dsslayout.CellIndex
	ends   []dsslayout.CellIndex
	pushed []geom.Shape
}

func (r *recordingReceiver) BeginCell(c dsslayout.CellIndex) { r.begins = append(r.begins, c) }
func (r *recordingReceiver) EndCell(c dsslayout.CellIndex)   { r.ends = append(r.ends, c) }
func (r *recordingReceiver) Push(s geom.Shape, t geom.Transform) {
	r.pushed = append(r.pushed, s.Transformed(t))
}
func (r *recordingReceiver) NewLayerInserted(dsslayout.LayerID) {}

func buildSourceLayout(t *testing.T) (*dsslayout.Layout, dsslayout.LayerID, dsslayout.CellIndex, dsslayout.CellIndex) {
	t.Helper()
	src := dsslayout.New()
	top := src.CreateCell("TOP")
	child := src.CreateCell("CHILD")
	layer := src.InsertLayer()

	src.InsertShape(top, layer, geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{10, 10})))
	src.InsertShape(child, layer, geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{5, 5})))
	src.InsertInstance(top, child, geom.Identity())

	return src, layer, top, child
}

func TestDrain_Hierarchical_MirrorsCellsAndPushesShapes(t *testing.T) {
	src, layer, top, child := buildSourceLayout(t)
	target := dsslayout.New()
	b := hierbuild.New(src, target)

	rr := &recordingReceiver{}
	b.SetShapeReceiver(rr)

	it := &Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}
	err := Drain(context.Background(), it, b, geom.Identity())
	require.NoError(t, err)

	assert.Equal(t, 2, target.CellCount())
	assert.Len(t, rr.pushed, 2)

	workingTop, ok := b.WorkingToSource(target.Cell(0).Index)
	require.True(t, ok)
	assert.Equal(t, top, workingTop)

	_ = child
}

func TestDrain_Hierarchical_RespectsMaxDepth(t *testing.T) {
	src, layer, top, _ := buildSourceLayout(t)
	target := dsslayout.New()
	b := hierbuild.New(src, target)
	rr := &recordingReceiver{}
	b.SetShapeReceiver(rr)

	it := &Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: 0}
	err := Drain(context.Background(), it, b, geom.Identity())
	require.NoError(t, err)

	assert.Equal(t, 1, target.CellCount())
	assert.Len(t, rr.pushed, 1)
}

func TestDrain_Hierarchical_ClipsByRegion(t *testing.T) {
	src, layer, top, _ := buildSourceLayout(t)
	target := dsslayout.New()
	b := hierbuild.New(src, target)
	rr := &recordingReceiver{}
	b.SetShapeReceiver(rr)

	it := &Iterator{
		Source: src, TopCell: top, Layer: layer, MaxDepth: -1,
		HasRegion: true, Region: geom.NewBox(geom.Point{1000, 1000}, geom.Point{2000, 2000}),
	}
	err := Drain(context.Background(), it, b, geom.Identity())
	require.NoError(t, err)
	assert.Empty(t, rr.pushed)
}

func TestDrain_Flat_LayoutLessIterator(t *testing.T) {
	target := dsslayout.New()
	b := hierbuild.New(nil, target)
	rr := &recordingReceiver{}
	b.SetShapeReceiver(rr)

	it := &Iterator{
		FlatShapes: []geom.Shape{
			geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{1, 1})),
			geom.NewBoxShape(geom.NewBox(geom.Point{10, 10}, geom.Point{11, 11})),
		},
	}
	err := Drain(context.Background(), it, b, geom.Identity())
	require.NoError(t, err)

	assert.Equal(t, 1, target.CellCount())
	assert.Len(t, rr.pushed, 2)
}

func TestFingerprint_EqualForEqualSelection(t *testing.T) {
	src, layer, top, _ := buildSourceLayout(t)
	it1 := &Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}
	it2 := &Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}

	assert.Equal(t, it1.Fingerprint(), it2.Fingerprint())
}

func TestDrain_CancelledContext(t *testing.T) {
	src, layer, top, _ := buildSourceLayout(t)
	target := dsslayout.New()
	b := hierbuild.New(src, target)
	b.SetShapeReceiver(&recordingReceiver{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it := &Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}
	err := Drain(ctx, it, b, geom.Identity())
	assert.Error(t, err)
}
