package dss

import (
	"github.com/JiancunWang/klayout/internal/cellmap"
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// CellMappingToOriginal resolves (building and caching, or returning the
// cached value for) the CellMapping that carries shapes out of the working
// layout at idx into (targetLayout, targetCell), applying the three-case
// dispatch of spec section 4.3.
func (s *ShapeStore) CellMappingToOriginal(idx LayoutIndex, targetLayout *dsslayout.Layout, targetCell dsslayout.CellIndex) (*cellmap.CellMapping, error) {
	h, err := s.holderFor(idx)
	if err != nil {
		return nil, err
	}

	key := deliveryKey{sourceLayout: idx, targetLayout: targetLayout, targetCell: targetCell}

	s.deliveryMu.Lock()
	if m, ok := s.deliveryCache[key]; ok {
		s.deliveryMu.Unlock()
		return m, nil
	}
	s.deliveryMu.Unlock()

	source := h.builder.Source()
	var sourceTop dsslayout.CellIndex
	hasSourceTop := false
	if source != nil {
		sourceTop, hasSourceTop = source.TopCell()
	}

	// Supplemented feature (SPEC_FULL.md section C, item 2): an empty source
	// layout (or a layout-less iterator) returns the shared static empty
	// mapping without ever writing a cache entry for it.
	if source == nil || !hasSourceTop {
		return cellmap.Empty(), nil
	}

	workingTop, hasWorkingTop := h.layout.TopCell()
	if !hasWorkingTop {
		return cellmap.Empty(), nil
	}

	var m *cellmap.CellMapping
	switch {
	case targetLayout == source && targetCell == sourceTop:
		// Case 1: back to original. Walk the builder's source->working map;
		// a source cell whose working image is unique and not a variant
		// maps working -> source.
		m = cellmap.New()
		h.builder.EachSourceCell(func(sc dsslayout.CellIndex, images []dsslayout.CellIndex) {
			if len(images) == 1 && !h.builder.IsVariant(images[0]) {
				m.Set(images[0], sc)
			}
		})
	case targetLayout.CellCount() == 1:
		// Case 2: empty or single-cell target.
		m = cellmap.CreateSingleMapping(h.layout, workingTop, targetLayout, targetCell)
	default:
		// Case 3: general target, matched by geometry/name.
		m = cellmap.CreateFromGeometry(h.layout, workingTop, targetLayout, targetCell)
	}

	cellmap.CreateMissingMapping(h.layout, workingTop, targetLayout, m)

	s.deliveryMu.Lock()
	s.deliveryCache[key] = m
	s.deliveryMu.Unlock()
	return m, nil
}

// Insert delivers dl's shapes into (targetLayout, targetCell, targetLayer)
// through the cached cell mapping (spec section 4.3).
func (s *ShapeStore) Insert(dl *DeepLayer, targetLayout *dsslayout.Layout, targetCell dsslayout.CellIndex, targetLayer dsslayout.LayerID) error {
	if err := dl.checkAlive(); err != nil {
		return err
	}
	h, err := s.holderFor(dl.layoutIndex)
	if err != nil {
		return err
	}
	if h.layout.IsEmpty() {
		return nil
	}

	lock := targetLayout.Lock()
	defer lock.Unlock()

	trans := dbuRatio(h.layout, targetLayout)

	m, err := s.CellMappingToOriginal(dl.layoutIndex, targetLayout, targetCell)
	if err != nil {
		return err
	}

	cellmap.CopyShapes(targetLayout, h.layout, trans, m, dl.layerIndex, targetLayer)
	return nil
}

// InsertAsPolygons derives a fresh layer in dl's working layout, rewrites
// every shape of dl's layer into it as polygon-or-dropped per the
// insert_as_polygons conversion table, then inserts the derived layer and
// discards it (spec section 4.3).
func (s *ShapeStore) InsertAsPolygons(dl *DeepLayer, targetLayout *dsslayout.Layout, targetCell dsslayout.CellIndex, targetLayer dsslayout.LayerID, enlargement int64) error {
	if err := dl.checkAlive(); err != nil {
		return err
	}
	h, err := s.holderFor(dl.layoutIndex)
	if err != nil {
		return err
	}

	derivedLayer := h.layout.InsertLayer()
	h.layout.EachCellTopDown(func(c *dsslayout.Cell) {
		for _, sh := range c.Shapes(dl.layerIndex) {
			poly, ok := sh.AsPolygon(enlargement)
			if !ok {
				continue
			}
			h.layout.InsertShape(c.Index, derivedLayer, geom.NewPolygonShape(poly))
		}
	})

	derived := s.newDeepLayer(dl.layoutIndex, derivedLayer)
	defer derived.Release()
	return s.Insert(derived, targetLayout, targetCell, targetLayer)
}

// dbuRatio computes the source/target database-unit ratio insert uses as
// its delivery transform (spec section 4.3: "computes trans = source_dbu /
// target_dbu").
func dbuRatio(source, target *dsslayout.Layout) geom.Transform {
	targetDbu := target.Dbu()
	if targetDbu == 0 {
		return geom.Transform{Mag: 1}
	}
	return geom.Transform{Mag: source.Dbu() / targetDbu}
}
