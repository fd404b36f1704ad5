package dss

import (
	"fmt"

	"github.com/JiancunWang/klayout/internal/cellmap"
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/pkg/dsserrors"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// DeepLayer is a refcounted handle naming one layer within one working
// layout of a ShapeStore (spec section 4.2). Go has no copy constructor, so
// where the original increments refcounts on implicit copy, this port makes
// that explicit: Clone acquires a second reference to the same layer,
// Release drops one. A DeepLayer obtained from the store (or from Clone)
// must be released exactly once.
type DeepLayer struct {
	store       *ShapeStore
	layoutIndex LayoutIndex
	layerIndex  dsslayout.LayerID
	released    bool
}

func (d *DeepLayer) checkAlive() error {
	if d.store == nil {
		return dsserrors.ErrStoreLost
	}
	return d.store.checkAlive()
}

// LayoutIndex returns the index of the working layout this handle refers
// into.
func (d *DeepLayer) LayoutIndex() LayoutIndex { return d.layoutIndex }

// LayerIndex returns the layer index within that working layout.
func (d *DeepLayer) LayerIndex() dsslayout.LayerID { return d.layerIndex }

// Clone acquires an additional reference to the same (layout, layer),
// mirroring the refcount increment the original performs on handle copy.
func (d *DeepLayer) Clone() (*DeepLayer, error) {
	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	return d.store.newDeepLayer(d.layoutIndex, d.layerIndex), nil
}

// Release drops this handle's reference. Safe to call at most once; later
// calls are no-ops.
func (d *DeepLayer) Release() {
	if d.released || d.store == nil {
		return
	}
	d.released = true
	d.store.removeRef(d.layoutIndex, d.layerIndex)
}

// Derived returns a new handle into the same working layout with a freshly
// allocated, empty layer (spec section 4.2).
func (d *DeepLayer) Derived() (*DeepLayer, error) {
	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	h, err := d.store.holderFor(d.layoutIndex)
	if err != nil {
		return nil, err
	}
	layer := h.layout.InsertLayer()
	return d.store.newDeepLayer(d.layoutIndex, layer), nil
}

// Copy derives a new layer, then bulk-copies every shape of this handle's
// layer into it (spec section 4.2).
func (d *DeepLayer) Copy() (*DeepLayer, error) {
	nd, err := d.Derived()
	if err != nil {
		return nil, err
	}
	h, err := d.store.holderFor(d.layoutIndex)
	if err != nil {
		nd.Release()
		return nil, err
	}
	h.layout.CopyLayer(d.layerIndex, nd.layerIndex)
	return nd, nil
}

// AddFrom merges other's shapes into this handle's layer (spec section
// 4.2). If both handles share a working layout this is a direct bulk copy;
// otherwise a CellMapping is built from other's working hierarchy onto
// self's, and shapes are copied across layouts through it.
func (d *DeepLayer) AddFrom(other *DeepLayer) error {
	if err := d.checkAlive(); err != nil {
		return err
	}
	if err := other.checkAlive(); err != nil {
		return err
	}

	if d.layoutIndex == other.layoutIndex {
		h, err := d.store.holderFor(d.layoutIndex)
		if err != nil {
			return err
		}
		h.layout.CopyLayer(other.layerIndex, d.layerIndex)
		return nil
	}

	hSelf, err := d.store.holderFor(d.layoutIndex)
	if err != nil {
		return err
	}
	hOther, err := d.store.holderFor(other.layoutIndex)
	if err != nil {
		return err
	}

	selfTop, ok := hSelf.layout.TopCell()
	if !ok {
		return nil
	}
	otherTop, ok := hOther.layout.TopCell()
	if !ok {
		return nil
	}

	// The mapping is keyed otherCell -> selfCell: copy_shapes always walks
	// "source" cells (the layout being copied FROM, i.e. other) to their
	// image in "target" cells (the layout being copied INTO, i.e. self).
	m := cellmap.CreateFromGeometryFull(hOther.layout, otherTop, hSelf.layout, selfTop)
	cellmap.CreateMissingMapping(hOther.layout, otherTop, hSelf.layout, m)

	trans := dbuRatio(hOther.layout, hSelf.layout)
	cellmap.CopyShapes(hSelf.layout, hOther.layout, trans, m, other.layerIndex, d.layerIndex)
	return nil
}

// InsertInto delivers this handle's shapes into a target layout/cell/layer
// (spec section 4.2, delegates to the store).
func (d *DeepLayer) InsertInto(targetLayout *dsslayout.Layout, targetCell dsslayout.CellIndex, targetLayer dsslayout.LayerID) error {
	if err := d.checkAlive(); err != nil {
		return err
	}
	return d.store.Insert(d, targetLayout, targetCell, targetLayer)
}

// InsertIntoAsPolygons delivers this handle's shapes into a target
// layout/cell/layer, converting each to a polygon (or dropping it) first.
func (d *DeepLayer) InsertIntoAsPolygons(targetLayout *dsslayout.Layout, targetCell dsslayout.CellIndex, targetLayer dsslayout.LayerID, enlargement int64) error {
	if err := d.checkAlive(); err != nil {
		return err
	}
	return d.store.InsertAsPolygons(d, targetLayout, targetCell, targetLayer, enlargement)
}

// Less orders handles by (store identity, layout index, layer index),
// matching spec section 4.2's ordering contract. Store identity is compared
// by pointer since two distinct stores never compare equal.
func (d *DeepLayer) Less(other *DeepLayer) bool {
	if d.store != other.store {
		return fmt.Sprintf("%p", d.store) < fmt.Sprintf("%p", other.store)
	}
	if d.layoutIndex != other.layoutIndex {
		return d.layoutIndex < other.layoutIndex
	}
	return d.layerIndex < other.layerIndex
}

// Equal reports whether two handles name the same (store, layout, layer).
func (d *DeepLayer) Equal(other *DeepLayer) bool {
	return d.store == other.store && d.layoutIndex == other.layoutIndex && d.layerIndex == other.layerIndex
}

// Shapes returns the shapes on this handle's layer within the given cell of
// its working layout, a convenience for tests and callers that already hold
// a cell index into the working hierarchy.
func (d *DeepLayer) Shapes(cell dsslayout.CellIndex) ([]geom.Shape, error) {
	if err := d.checkAlive(); err != nil {
		return nil, err
	}
	h, err := d.store.holderFor(d.layoutIndex)
	if err != nil {
		return nil, err
	}
	return h.layout.Shapes(cell, d.layerIndex), nil
}
