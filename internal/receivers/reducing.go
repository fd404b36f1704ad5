package receivers

import (
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/hierbuild"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// Reducing decomposes an oversized polygon into fragments via geom.Reduce
// whenever its bbox-area ratio or vertex count exceeds the configured
// thresholds, pushing each fragment downstream in place of the original
// shape. Non-polygon shapes pass through unchanged.
type Reducing struct {
	maxAreaRatio   float64
	maxVertexCount int
	next           hierbuild.ShapeReceiver
}

// NewReducing creates a Reducing stage. maxAreaRatio/maxVertexCount <= 0
// disable that dimension's threshold.
func NewReducing(maxAreaRatio float64, maxVertexCount int, next hierbuild.ShapeReceiver) *Reducing {
	return &Reducing{maxAreaRatio: maxAreaRatio, maxVertexCount: maxVertexCount, next: next}
}

func (r *Reducing) BeginCell(cell dsslayout.CellIndex)       { r.next.BeginCell(cell) }
func (r *Reducing) EndCell(cell dsslayout.CellIndex)         { r.next.EndCell(cell) }
func (r *Reducing) NewLayerInserted(layer dsslayout.LayerID) { r.next.NewLayerInserted(layer) }

func (r *Reducing) Push(s geom.Shape, trans geom.Transform) {
	if s.Kind != geom.KindPolygon {
		r.next.Push(s, trans)
		return
	}

	fragments := geom.Reduce(s.Poly, r.maxAreaRatio, r.maxVertexCount)
	for _, frag := range fragments {
		out := s
		out.Poly = frag
		r.next.Push(out, trans)
	}
}
