// Package hierbuild implements the hierarchy builder that mirrors a source
// layout's cell structure into a working layout while feeding every ingested
// shape through a configurable receiver chain (spec sections 3 and 4.1).
package hierbuild

import (
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// ShapeReceiver is the fixed small method set spec section 9's design notes
// call for: a pipeline stage that sees every shape as it is ingested, plus
// cell boundaries and layer installation so stateful stages (like
// PolygonRefInterning's per-cell dedup table) can reset between cells.
type ShapeReceiver interface {
	BeginCell(cell dsslayout.CellIndex)
	EndCell(cell dsslayout.CellIndex)
	Push(shape geom.Shape, trans geom.Transform)
	NewLayerInserted(layer dsslayout.LayerID)
}

// NopReceiver discards everything; useful as a safe zero-value receiver
// before SetShapeReceiver is called.
type NopReceiver struct{}

func (NopReceiver) BeginCell(dsslayout.CellIndex)          {}
func (NopReceiver) EndCell(dsslayout.CellIndex)            {}
func (NopReceiver) Push(geom.Shape, geom.Transform)        {}
func (NopReceiver) NewLayerInserted(dsslayout.LayerID)     {}

// Builder mirrors a source hierarchy into a target (working) layout. One
// Builder is bound to exactly one working layout for its whole lifetime
// (spec section 3, LayoutHolder.builder); cell-variant registrations and the
// source→working map accumulate across every drain performed through it.
type Builder struct {
	source *dsslayout.Layout
	target *dsslayout.Layout

	sourceToWorking map[dsslayout.CellIndex][]dsslayout.CellIndex
	workingToSource map[dsslayout.CellIndex]dsslayout.CellIndex
	isVariant       map[dsslayout.CellIndex]bool

	targetLayer dsslayout.LayerID
	receiver    ShapeReceiver
}

// New creates a builder that will mirror source into target. source may be
// nil for a layout-less (pure geometry) iterator; in that case the builder
// mirrors nothing and every drain simply inserts shapes into target's one
// top cell.
func New(source, target *dsslayout.Layout) *Builder {
	return &Builder{
		source:          source,
		target:          target,
		sourceToWorking: make(map[dsslayout.CellIndex][]dsslayout.CellIndex),
		workingToSource: make(map[dsslayout.CellIndex]dsslayout.CellIndex),
		isVariant:       make(map[dsslayout.CellIndex]bool),
		receiver:        NopReceiver{},
	}
}

// Source returns the source layout, or nil for a layout-less builder.
func (b *Builder) Source() *dsslayout.Layout { return b.source }

// Target returns the working layout this builder mirrors into.
func (b *Builder) Target() *dsslayout.Layout { return b.target }

// SetTargetLayer sets the layer every subsequent Push call deposits into.
func (b *Builder) SetTargetLayer(layer dsslayout.LayerID) {
	b.targetLayer = layer
	b.receiver.NewLayerInserted(layer)
}

// TargetLayer returns the currently installed target layer.
func (b *Builder) TargetLayer() dsslayout.LayerID { return b.targetLayer }

// SetShapeReceiver installs the receiver chain that will see every shape
// pushed during the next drain. The caller owns unhooking it (by calling
// SetShapeReceiver(NopReceiver{}) or installing a new chain) on every exit
// path, including failure (spec section 5).
func (b *Builder) SetShapeReceiver(r ShapeReceiver) {
	if r == nil {
		r = NopReceiver{}
	}
	b.receiver = r
}

// Receiver returns the currently installed receiver.
func (b *Builder) Receiver() ShapeReceiver { return b.receiver }

// EnsureWorkingCell returns the working-layout cell mirroring sourceCell,
// creating it the first time it is visited; sourceCell's child instances
// are not copied by this call. Repeated calls for the same sourceCell, absent any
// RegisterVariant for it, return the same working cell.
func (b *Builder) EnsureWorkingCell(sourceCell dsslayout.CellIndex) dsslayout.CellIndex {
	if existing := b.sourceToWorking[sourceCell]; len(existing) == 1 {
		return existing[0]
	} else if len(existing) > 1 {
		// Already variant-registered; the canonical (non-variant) image is
		// the first one created, which is always the 0th entry.
		return existing[0]
	}

	name := ""
	if b.source != nil {
		if c := b.source.Cell(sourceCell); c != nil {
			name = c.Name
		}
	}

	working := b.target.CreateCell(name)
	b.sourceToWorking[sourceCell] = []dsslayout.CellIndex{working}
	b.workingToSource[working] = sourceCell
	return working
}

// RegisterVariant records variantWorking as an additional, per-context
// specialization of sourceCell (spec section 4.1, issue_variants). Once a
// cell has any variant, every one of its working images — including the
// original — is treated as non-uniquely-back-mappable: the mapping back to
// the original layout (dss.ShapeStore.CellMappingToOriginal) leaves out
// every source cell that has more than one working image.
func (b *Builder) RegisterVariant(sourceCell, variantWorking dsslayout.CellIndex) {
	b.sourceToWorking[sourceCell] = append(b.sourceToWorking[sourceCell], variantWorking)
	b.workingToSource[variantWorking] = sourceCell
	b.isVariant[variantWorking] = true
}

// IsVariant reports whether workingCell was registered as a variant image
// rather than created by a plain EnsureWorkingCell mirror.
func (b *Builder) IsVariant(workingCell dsslayout.CellIndex) bool {
	return b.isVariant[workingCell]
}

// SourceToWorking returns the (possibly multi-valued) image set of
// sourceCell, or nil if it was never mirrored.
func (b *Builder) SourceToWorking(sourceCell dsslayout.CellIndex) []dsslayout.CellIndex {
	return b.sourceToWorking[sourceCell]
}

// WorkingToSource returns the source cell a working cell was mirrored from,
// if any (variants included).
func (b *Builder) WorkingToSource(workingCell dsslayout.CellIndex) (dsslayout.CellIndex, bool) {
	sc, ok := b.workingToSource[workingCell]
	return sc, ok
}

// EachSourceCell calls fn for every source cell that has been mirrored at
// least once, in an unspecified order. Used by cell_mapping_to_original's
// back-to-original case.
func (b *Builder) EachSourceCell(fn func(sourceCell dsslayout.CellIndex, workingImages []dsslayout.CellIndex)) {
	for sc, images := range b.sourceToWorking {
		fn(sc, images)
	}
}
