package receivers

import (
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/hierbuild"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// EdgePairBuilding is the terminal stage for edge-pair layers: it passes
// edge pairs through unchanged, transformed into the working layout's
// coordinate system, and ignores every other shape kind.
type EdgePairBuilding struct {
	builder *hierbuild.Builder

	currentCell dsslayout.CellIndex
}

// NewEdgePairBuilding creates an EdgePairBuilding stage bound to b's target
// layout and currently installed target layer.
func NewEdgePairBuilding(b *hierbuild.Builder) *EdgePairBuilding {
	return &EdgePairBuilding{builder: b}
}

func (e *EdgePairBuilding) BeginCell(cell dsslayout.CellIndex) { e.currentCell = cell }
func (e *EdgePairBuilding) EndCell(dsslayout.CellIndex)        {}
func (e *EdgePairBuilding) NewLayerInserted(dsslayout.LayerID) {}

func (e *EdgePairBuilding) Push(s geom.Shape, trans geom.Transform) {
	if s.Kind != geom.KindEdgePair {
		return
	}
	transformed := s.Transformed(trans)
	e.builder.Target().InsertShape(e.currentCell, e.builder.TargetLayer(), geom.NewEdgePairShape(transformed.EdgePair))
}
