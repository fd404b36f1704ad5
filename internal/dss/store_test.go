package dss

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/dssiter"
	"github.com/JiancunWang/klayout/pkg/dssconfig"
	"github.com/JiancunWang/klayout/pkg/dsserrors"
	"github.com/JiancunWang/klayout/pkg/geom"
)

func defaultCfg() dssconfig.StoreConfig {
	return dssconfig.Default().Store
}

func newSourceWithBox(t *testing.T) (*dsslayout.Layout, dsslayout.LayerID, dsslayout.CellIndex) {
	t.Helper()
	src := dsslayout.New()
	top := src.CreateCell("TOP")
	layer := src.InsertLayer()
	src.InsertShape(top, layer, geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{10, 10})))
	return src, layer, top
}

func TestCreatePolygonLayer_SingletonCreateAndRelease(t *testing.T) {
	src, layer, top := newSourceWithBox(t)
	s := New(defaultCfg())

	it := &dssiter.Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}
	dl, err := s.CreatePolygonLayer(context.Background(), it, 0, 0, geom.Identity())
	require.NoError(t, err)

	wl, err := s.Layout(dl.LayoutIndex())
	require.NoError(t, err)
	assert.Equal(t, 1, wl.CellCount())

	h := s.holders[dl.LayoutIndex()]
	assert.EqualValues(t, 1, h.refs)
	assert.EqualValues(t, 1, h.layerRefs[dl.LayerIndex()])

	dl.Release()
	assert.Nil(t, s.holders[dl.LayoutIndex()])
}

func TestCreatePolygonLayer_SharedLayoutAcrossTwoCalls(t *testing.T) {
	src, layer, top := newSourceWithBox(t)
	s := New(defaultCfg())

	it := &dssiter.Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}
	trans := geom.Identity()

	dl1, err := s.CreatePolygonLayer(context.Background(), it, 0, 0, trans)
	require.NoError(t, err)
	dl2, err := s.CreatePolygonLayer(context.Background(), it, 0, 0, trans)
	require.NoError(t, err)

	assert.Equal(t, dl1.LayoutIndex(), dl2.LayoutIndex())
	assert.NotEqual(t, dl1.LayerIndex(), dl2.LayerIndex())

	h := s.holders[dl1.LayoutIndex()]
	assert.EqualValues(t, 2, h.refs)
	assert.Len(t, h.layerRefs, 2)
}

func TestCreatePolygonLayer_ReducesOversizedPolygon(t *testing.T) {
	src := dsslayout.New()
	top := src.CreateCell("TOP")
	layer := src.InsertLayer()

	pts := make([]geom.Point, 0, 400)
	for i := 0; i < 200; i++ {
		pts = append(pts, geom.Point{X: int64(i), Y: int64(i % 3)})
		pts = append(pts, geom.Point{X: int64(i), Y: 1000 + int64(i%3)})
	}
	src.InsertShape(top, layer, geom.NewPolygonShape(geom.Polygon{Points: pts}))

	s := New(defaultCfg())
	it := &dssiter.Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}
	dl, err := s.CreatePolygonLayer(context.Background(), it, 0, 16, geom.Identity())
	require.NoError(t, err)

	wl, _ := s.Layout(dl.LayoutIndex())
	wlTop, _ := wl.TopCell()
	shapes := wl.Shapes(wlTop, dl.LayerIndex())
	require.NotEmpty(t, shapes)
	for _, sh := range shapes {
		assert.LessOrEqual(t, sh.Poly.VertexCount(), 16)
	}
}

func TestCreatePolygonLayer_TextExpansionAndDrop(t *testing.T) {
	it := &dssiter.Iterator{
		FlatShapes: []geom.Shape{
			geom.NewTextShape(geom.Text{Anchor: geom.Point{100, 200}, String: "N1"}),
		},
	}

	cfg := defaultCfg()
	cfg.TextEnlargement = 2
	cfg.TextPropertyName = "label"
	s := New(cfg)
	dl, err := s.CreatePolygonLayer(context.Background(), it, 0, 0, geom.Identity())
	require.NoError(t, err)

	wl, _ := s.Layout(dl.LayoutIndex())
	wlTop, _ := wl.TopCell()
	shapes := wl.Shapes(wlTop, dl.LayerIndex())
	require.Len(t, shapes, 1)
	bbox := shapes[0].Poly.BBox()
	assert.Equal(t, geom.Point{X: 98, Y: 198}, bbox.P0)
	assert.Equal(t, geom.Point{X: 103, Y: 203}, bbox.P1)

	repo := wl.PropertiesRepository()
	val, ok := repo.Value(shapes[0].PropID)
	require.True(t, ok)
	assert.Equal(t, "N1", val)

	nameID, ok := repo.ValueNameID(shapes[0].PropID)
	require.True(t, ok)
	assert.Equal(t, repo.NameID("label"), nameID)

	cfg2 := defaultCfg()
	cfg2.TextEnlargement = -1
	s2 := New(cfg2)
	dl2, err := s2.CreatePolygonLayer(context.Background(), it, 0, 0, geom.Identity())
	require.NoError(t, err)
	wl2, _ := s2.Layout(dl2.LayoutIndex())
	wl2Top, _ := wl2.TopCell()
	assert.Empty(t, wl2.Shapes(wl2Top, dl2.LayerIndex()))
}

func TestRequireSingular_FailsWithMultipleLayouts(t *testing.T) {
	src1, layer1, top1 := newSourceWithBox(t)
	src2, layer2, top2 := newSourceWithBox(t)
	s := New(defaultCfg())

	_, err := s.CreatePolygonLayer(context.Background(), &dssiter.Iterator{Source: src1, TopCell: top1, Layer: layer1, MaxDepth: -1}, 0, 0, geom.Identity())
	require.NoError(t, err)
	assert.NoError(t, s.RequireSingular())

	_, err = s.CreatePolygonLayer(context.Background(), &dssiter.Iterator{Source: src2, TopCell: top2, Layer: layer2, MaxDepth: -1}, 0, 0, geom.Identity())
	require.NoError(t, err)
	assert.Error(t, s.RequireSingular())
}

func TestLayout_FailsWithIndexOutOfRange(t *testing.T) {
	s := New(defaultCfg())
	_, err := s.Layout(LayoutIndex(42))
	assert.True(t, dsserrors.IsIndexOutOfRange(err))
}

func TestClose_MakesHandlesFailWithStoreLost(t *testing.T) {
	src, layer, top := newSourceWithBox(t)
	s := New(defaultCfg())
	it := &dssiter.Iterator{Source: src, TopCell: top, Layer: layer, MaxDepth: -1}
	dl, err := s.CreatePolygonLayer(context.Background(), it, 0, 0, geom.Identity())
	require.NoError(t, err)

	s.Close()

	_, err = dl.Derived()
	assert.True(t, dsserrors.IsStoreLost(err))
}
