package dsslayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiancunWang/klayout/pkg/geom"
)

func TestLayout_TopCell_EmptyFails(t *testing.T) {
	l := New()
	_, ok := l.TopCell()
	assert.False(t, ok)
	assert.True(t, l.IsEmpty())
}

func TestLayout_CreateCell_FirstBecomesTop(t *testing.T) {
	l := New()
	a := l.CreateCell("A")
	l.CreateCell("B")

	top, ok := l.TopCell()
	require.True(t, ok)
	assert.Equal(t, a, top)
}

func TestLayout_InsertShapeAndLayerLifecycle(t *testing.T) {
	l := New()
	top := l.CreateCell("TOP")
	layer := l.InsertLayer()

	poly := geom.Box{P0: geom.Point{0, 0}, P1: geom.Point{10, 10}}.AsPolygon()
	l.InsertShape(top, layer, geom.NewPolygonShape(poly))

	shapes := l.Shapes(top, layer)
	require.Len(t, shapes, 1)
	assert.Equal(t, geom.KindPolygon, shapes[0].Kind)

	l.DeleteLayer(layer)
	assert.Empty(t, l.Shapes(top, layer))
}

func TestLayout_CopyLayer(t *testing.T) {
	l := New()
	top := l.CreateCell("TOP")
	src := l.InsertLayer()
	dst := l.InsertLayer()

	l.InsertShape(top, src, geom.NewBoxShape(geom.NewBox(geom.Point{0, 0}, geom.Point{1, 1})))
	l.CopyLayer(src, dst)

	assert.Len(t, l.Shapes(top, dst), 1)
	assert.Len(t, l.Shapes(top, src), 1)
}

func TestLayout_EachCellTopDown_VisitsOnceAndParentFirst(t *testing.T) {
	l := New()
	top := l.CreateCell("TOP")
	child := l.CreateCell("CHILD")
	l.InsertInstance(top, child, geom.Identity())
	l.InsertInstance(top, child, geom.Transform{Mag: 1, Disp: geom.Point{100, 0}})

	var order []CellIndex
	l.EachCellTopDown(func(c *Cell) { order = append(order, c.Index) })

	assert.Equal(t, []CellIndex{top, child}, order)
}

func TestLayout_HierChanged_FiresOnStructuralMutation(t *testing.T) {
	l := New()
	calls := 0
	l.OnHierChanged(func() { calls++ })

	top := l.CreateCell("TOP")
	child := l.CreateCell("CHILD")
	l.InsertInstance(top, child, geom.Identity())

	assert.Equal(t, 3, calls)
}

func TestLayout_LockScoped(t *testing.T) {
	l := New()
	lk := l.Lock()
	// Ordinary methods must still work while the scoped lock is held.
	l.CreateCell("TOP")
	lk.Unlock()

	assert.Equal(t, 1, l.CellCount())
}

func TestLayout_AnnotateTerminal(t *testing.T) {
	l := New()
	top := l.CreateCell("TOP")
	layer := l.InsertLayer()

	poly := geom.NewBox(geom.Point{0, 0}, geom.Point{2, 2}).AsPolygon()
	l.AnnotateTerminal(top, layer, poly, 1, 0)

	shapes := l.Shapes(top, layer)
	require.Len(t, shapes, 1)
	val, ok := l.PropertiesRepository().Value(shapes[0].PropID)
	require.True(t, ok)
	assert.Equal(t, TerminalID{DeviceID: 1, TerminalID: 0}, val)

	nameID, ok := l.PropertiesRepository().ValueNameID(shapes[0].PropID)
	require.True(t, ok)
	assert.Equal(t, TerminalPropertyNameID, nameID)
}

func TestPropertiesRepository_NameInterning(t *testing.T) {
	r := NewPropertiesRepository()
	id1 := r.NameID("label")
	id2 := r.NameID("label")
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, TerminalPropertyNameID, id1)

	name, ok := r.Name(id1)
	require.True(t, ok)
	assert.Equal(t, "label", name)
}

func TestPropertiesRepository_PutNamedValueBindsNameToValueID(t *testing.T) {
	r := NewPropertiesRepository()
	nameID := r.NameID("label")
	valueID := r.PutNamedValue(nameID, "N1")

	val, ok := r.Value(valueID)
	require.True(t, ok)
	assert.Equal(t, "N1", val)

	gotName, ok := r.ValueNameID(valueID)
	require.True(t, ok)
	assert.Equal(t, nameID, gotName)
}
