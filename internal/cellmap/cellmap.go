// Package cellmap implements CellMapping, the external collaborator (spec
// section 6) that maps cells of one layout onto cells of another, and the
// copy_shapes operation driven by such a mapping (spec section 4.3).
package cellmap

import (
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// CellMapping records, for a subset of a source layout's cells, the target
// layout cell each one maps onto. It is always layout-pair-specific: the
// same CellMapping value is never reused across two different target
// layouts.
type CellMapping struct {
	table map[dsslayout.CellIndex]dsslayout.CellIndex
}

// empty is the single static empty mapping returned for an empty source
// layout (spec section C, supplemented feature 2): no cache entry is ever
// written for it, since it is cheap to recompute and the source may still
// be empty next time for a different reason.
var empty = &CellMapping{table: map[dsslayout.CellIndex]dsslayout.CellIndex{}}

// Empty returns the shared empty mapping.
func Empty() *CellMapping { return empty }

// New creates an empty, mutable mapping.
func New() *CellMapping {
	return &CellMapping{table: make(map[dsslayout.CellIndex]dsslayout.CellIndex)}
}

// Get returns the target cell sourceCell maps to, if any.
func (m *CellMapping) Get(sourceCell dsslayout.CellIndex) (dsslayout.CellIndex, bool) {
	c, ok := m.table[sourceCell]
	return c, ok
}

// Set records sourceCell -> targetCell.
func (m *CellMapping) Set(sourceCell, targetCell dsslayout.CellIndex) {
	m.table[sourceCell] = targetCell
}

// Table returns the mapping's underlying source->target table. Callers must
// not mutate the returned map.
func (m *CellMapping) Table() map[dsslayout.CellIndex]dsslayout.CellIndex {
	return m.table
}

// Len returns the number of mapped source cells.
func (m *CellMapping) Len() int { return len(m.table) }

// CreateSingleMapping aligns sourceTop with targetCell and recursively
// clones every subcell of sourceTop as a brand-new cell in target, used when
// the target layout has exactly one cell (spec section 4.3, case 2).
func CreateSingleMapping(source *dsslayout.Layout, sourceTop dsslayout.CellIndex, target *dsslayout.Layout, targetCell dsslayout.CellIndex) *CellMapping {
	m := New()
	cloneRecursive(source, sourceTop, target, targetCell, m)
	return m
}

func cloneRecursive(source *dsslayout.Layout, sourceCell dsslayout.CellIndex, target *dsslayout.Layout, targetCell dsslayout.CellIndex, m *CellMapping) {
	if _, already := m.Get(sourceCell); already {
		return
	}
	m.Set(sourceCell, targetCell)

	sc := source.Cell(sourceCell)
	if sc == nil {
		return
	}
	for _, inst := range sc.Insts {
		childSource := source.Cell(inst.CellIndex)
		name := ""
		if childSource != nil {
			name = childSource.Name
		}
		if _, already := m.Get(inst.CellIndex); already {
			continue
		}
		childTarget := target.CreateCell(name)
		target.InsertInstance(targetCell, childTarget, inst.Trans)
		cloneRecursive(source, inst.CellIndex, target, childTarget, m)
	}
}

// CreateFromGeometry builds a mapping by matching sourceTop (and its
// subcells) against targetCell's existing hierarchy by name and instance
// structure (spec section 4.3, case 3: "hashing cell contents and instance
// graph"; this implementation keys the match on cell name, which is the
// practical proxy for content hashing when cells are named deterministically
// by the builder). Cells it cannot match are left unmapped for
// CreateMissingMapping to fill in.
func CreateFromGeometry(source *dsslayout.Layout, sourceTop dsslayout.CellIndex, target *dsslayout.Layout, targetCell dsslayout.CellIndex) *CellMapping {
	m := New()
	matchRecursive(source, sourceTop, target, targetCell, m)
	return m
}

// CreateFromGeometryFull is CreateFromGeometry's counterpart used for
// intra-store DeepLayer.add_from (spec section 4.2): matching between two
// working layouts' initial cells rather than a source-to-target delivery.
// The matching algorithm is identical; the distinct name documents the
// distinct call site per the spec's API surface.
func CreateFromGeometryFull(source *dsslayout.Layout, sourceTop dsslayout.CellIndex, target *dsslayout.Layout, targetTop dsslayout.CellIndex) *CellMapping {
	return CreateFromGeometry(source, sourceTop, target, targetTop)
}

func matchRecursive(source *dsslayout.Layout, sourceCell dsslayout.CellIndex, target *dsslayout.Layout, targetCell dsslayout.CellIndex, m *CellMapping) {
	if _, already := m.Get(sourceCell); already {
		return
	}
	m.Set(sourceCell, targetCell)

	sc := source.Cell(sourceCell)
	tc := target.Cell(targetCell)
	if sc == nil || tc == nil {
		return
	}

	targetByName := make(map[string]dsslayout.CellIndex, len(tc.Insts))
	for _, inst := range tc.Insts {
		if child := target.Cell(inst.CellIndex); child != nil {
			targetByName[child.Name] = inst.CellIndex
		}
	}

	for _, inst := range sc.Insts {
		childSource := source.Cell(inst.CellIndex)
		if childSource == nil {
			continue
		}
		if targetChild, ok := targetByName[childSource.Name]; ok {
			matchRecursive(source, inst.CellIndex, target, targetChild, m)
		}
	}
}

// CreateMissingMapping allocates fresh target cells for any cell reachable
// from sourceTop that m does not yet map, covering variants and cells added
// after the mapping was built (e.g. by device extraction). It mutates and
// returns m.
func CreateMissingMapping(source *dsslayout.Layout, sourceTop dsslayout.CellIndex, target *dsslayout.Layout, m *CellMapping) *CellMapping {
	fillMissing(source, sourceTop, target, m)
	return m
}

func fillMissing(source *dsslayout.Layout, sourceCell dsslayout.CellIndex, target *dsslayout.Layout, m *CellMapping) dsslayout.CellIndex {
	if tc, ok := m.Get(sourceCell); ok {
		sc := source.Cell(sourceCell)
		if sc != nil {
			for _, inst := range sc.Insts {
				fillMissing(source, inst.CellIndex, target, m)
			}
		}
		return tc
	}

	sc := source.Cell(sourceCell)
	name := ""
	if sc != nil {
		name = sc.Name
	}
	targetCell := target.CreateCell(name)
	m.Set(sourceCell, targetCell)

	if sc != nil {
		for _, inst := range sc.Insts {
			childTarget := fillMissing(source, inst.CellIndex, target, m)
			target.InsertInstance(targetCell, childTarget, inst.Trans)
		}
	}
	return targetCell
}

// CopyShapes copies every shape on sourceLayer, for every source cell m
// maps, into the corresponding target cell on targetLayer, transforming each
// shape by trans. Spec section 4.3 calls this with [source_top] as the seed
// cell list; since m's table already covers every cell reachable from that
// seed (CreateMissingMapping guarantees it), copying every mapped entry is
// equivalent to — and simpler than — re-walking the reachability graph here.
func CopyShapes(target *dsslayout.Layout, source *dsslayout.Layout, trans geom.Transform, m *CellMapping, sourceLayer, targetLayer dsslayout.LayerID) {
	for sourceCell, targetCell := range m.Table() {
		for _, s := range source.Shapes(sourceCell, sourceLayer) {
			target.InsertShape(targetCell, targetLayer, s.Transformed(trans))
		}
	}
}
