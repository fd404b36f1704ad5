package receivers

import (
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/hierbuild"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// EdgeBuilding is the terminal stage for edge layers. With asEdges true it
// only accepts shapes that already carry an Edge (it does not synthesize
// edges from polygons); with asEdges false it ignores literal edges and
// instead emits the boundary edges of every polygon/box/path shape it sees
// (spec section 4.1).
type EdgeBuilding struct {
	builder *hierbuild.Builder
	asEdges bool

	currentCell dsslayout.CellIndex
}

// NewEdgeBuilding creates an EdgeBuilding stage bound to b's target layout
// and currently installed target layer.
func NewEdgeBuilding(b *hierbuild.Builder, asEdges bool) *EdgeBuilding {
	return &EdgeBuilding{builder: b, asEdges: asEdges}
}

func (e *EdgeBuilding) BeginCell(cell dsslayout.CellIndex) { e.currentCell = cell }
func (e *EdgeBuilding) EndCell(dsslayout.CellIndex)        {}
func (e *EdgeBuilding) NewLayerInserted(dsslayout.LayerID) {}

func (e *EdgeBuilding) Push(s geom.Shape, trans geom.Transform) {
	transformed := s.Transformed(trans)

	if transformed.Kind == geom.KindEdge {
		if e.asEdges {
			e.insert(transformed.Edge)
		}
		return
	}
	if e.asEdges {
		return
	}

	poly, ok := transformed.AsPolygon(0)
	if !ok {
		return
	}
	n := len(poly.Points)
	for i := 0; i < n; i++ {
		e.insert(geom.Edge{P0: poly.Points[i], P1: poly.Points[(i+1)%n]})
	}
}

func (e *EdgeBuilding) insert(edge geom.Edge) {
	e.builder.Target().InsertShape(e.currentCell, e.builder.TargetLayer(), geom.NewEdgeShape(edge))
}
