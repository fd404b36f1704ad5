// Package dss implements the ShapeStore: the reference-counted owner of a
// family of working layouts, their hierarchy builders, and the layers
// clients stage through DeepLayer handles (spec section 3/4.1).
package dss

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/JiancunWang/klayout/internal/cellmap"
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/dssiter"
	"github.com/JiancunWang/klayout/internal/hierbuild"
	"github.com/JiancunWang/klayout/internal/receivers"
	"github.com/JiancunWang/klayout/pkg/dssconfig"
	"github.com/JiancunWang/klayout/pkg/dsserrors"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// LayoutIndex identifies one working layout owned by a ShapeStore. Dense,
// never reused within a single store's lifetime: a destroyed layout's slot
// is nulled, not recycled (spec section 5).
type LayoutIndex int

// liveStores is the process-wide instance counter from spec section 3,
// used only by leak tests.
var liveStores atomic.Int64

// LiveStoreCount reports how many ShapeStores are currently alive.
func LiveStoreCount() int64 { return liveStores.Load() }

type iterKey struct {
	fp    dssiter.Fingerprint
	trans geom.Transform
}

type deliveryKey struct {
	sourceLayout LayoutIndex
	targetLayout *dsslayout.Layout
	targetCell   dsslayout.CellIndex
}

// ShapeStore owns a vector of working-layout holders, keyed by the
// (iterator, transform) pair that produced them, and serves the DeepLayer
// factory methods.
type ShapeStore struct {
	cfg dssconfig.StoreConfig

	// mu guards refs/layerRefs, holder-slot nulling and the closed state;
	// besides addRef/removeRef it is taken by Close, checkAlive and
	// RequireSingular. Callers must serialize concurrent calls into
	// create_*_layer/insert/cell_mapping_to_original themselves.
	mu      sync.Mutex
	holders []*LayoutHolder

	layoutMap map[iterKey]LayoutIndex

	deliveryMu    sync.Mutex
	deliveryCache map[deliveryKey]*cellmap.CellMapping

	closed bool
}

// New creates a shape store with the given configuration, incrementing the
// process-wide live-store counter.
func New(cfg dssconfig.StoreConfig) *ShapeStore {
	liveStores.Add(1)
	return &ShapeStore{
		cfg:           cfg,
		layoutMap:     make(map[iterKey]LayoutIndex),
		deliveryCache: make(map[deliveryKey]*cellmap.CellMapping),
	}
}

// Close marks the store as gone: every live DeepLayer handle into it will
// now fail its operations with StoreLost (spec section 3's "accessing a
// handle whose store is gone fails with StoreLost"). Idempotent.
func (s *ShapeStore) Close() {
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !wasClosed {
		liveStores.Add(-1)
	}
}

func (s *ShapeStore) checkAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dsserrors.ErrStoreLost
	}
	return nil
}

func (s *ShapeStore) holderFor(idx LayoutIndex) (*LayoutHolder, error) {
	if err := s.checkAlive(); err != nil {
		return nil, err
	}
	if int(idx) < 0 || int(idx) >= len(s.holders) {
		return nil, dsserrors.ErrIndexOutOfRange
	}
	h := s.holders[idx]
	if h == nil {
		return nil, dsserrors.ErrIndexOutOfRange
	}
	return h, nil
}

// LayoutForIter resolves (or creates) the working layout for it/trans,
// returning its stable layout index (spec section 4.1, layout_for_iter).
func (s *ShapeStore) LayoutForIter(it *dssiter.Iterator, trans geom.Transform) LayoutIndex {
	key := iterKey{fp: it.Fingerprint(), trans: trans}
	if idx, ok := s.layoutMap[key]; ok {
		return idx
	}

	target := dsslayout.New()
	if it.Source != nil {
		mag := trans.Magnification()
		if mag != 0 {
			target.SetDbu(it.Source.Dbu() / mag)
		}
	}
	b := hierbuild.New(it.Source, target)
	holder := &LayoutHolder{layout: target, builder: b, layerRefs: make(map[dsslayout.LayerID]uint32)}

	idx := LayoutIndex(len(s.holders))
	s.holders = append(s.holders, holder)
	s.layoutMap[key] = idx

	target.OnHierChanged(func() { s.invalidateDeliveryFor(idx) })
	return idx
}

// CreatePolygonLayer resolves the working layout, installs the
// Clipping -> Reducing -> PolygonRefInterning chain and drains it into a
// fresh layer (spec section 4.1). A zero areaRatio/vertexCount defaults to
// the store's own configured threshold.
func (s *ShapeStore) CreatePolygonLayer(ctx context.Context, it *dssiter.Iterator, areaRatio float64, vertexCount int, trans geom.Transform) (*DeepLayer, error) {
	idx := s.LayoutForIter(it, trans)
	h, err := s.holderFor(idx)
	if err != nil {
		return nil, err
	}

	if areaRatio == 0 {
		areaRatio = s.cfg.MaxAreaRatio
	}
	if vertexCount == 0 {
		vertexCount = s.cfg.MaxVertexCount
	}

	layer := h.layout.InsertLayer()
	h.builder.SetTargetLayer(layer)

	terminal := receivers.NewPolygonRefInterning(h.builder, int64(s.cfg.TextEnlargement), s.cfg.TextPropertyName)
	reducing := receivers.NewReducing(areaRatio, vertexCount, terminal)
	chain := receivers.NewClipping(it.HasRegion, it.Region, reducing)

	h.builder.SetShapeReceiver(chain)
	defer h.builder.SetShapeReceiver(hierbuild.NopReceiver{})

	if err := dssiter.Drain(ctx, it, h.builder, trans); err != nil {
		return nil, dsserrors.Wrap(dsserrors.CodeBuilderFailure, "polygon layer drain failed", err)
	}

	return s.newDeepLayer(idx, layer), nil
}

// CreateEdgeLayer resolves the working layout and installs the
// Clipping -> EdgeBuilding(asEdges) chain (spec section 4.1).
func (s *ShapeStore) CreateEdgeLayer(ctx context.Context, it *dssiter.Iterator, asEdges bool, trans geom.Transform) (*DeepLayer, error) {
	idx := s.LayoutForIter(it, trans)
	h, err := s.holderFor(idx)
	if err != nil {
		return nil, err
	}

	layer := h.layout.InsertLayer()
	h.builder.SetTargetLayer(layer)

	terminal := receivers.NewEdgeBuilding(h.builder, asEdges)
	chain := receivers.NewClipping(it.HasRegion, it.Region, terminal)

	h.builder.SetShapeReceiver(chain)
	defer h.builder.SetShapeReceiver(hierbuild.NopReceiver{})

	if err := dssiter.Drain(ctx, it, h.builder, trans); err != nil {
		return nil, dsserrors.Wrap(dsserrors.CodeBuilderFailure, "edge layer drain failed", err)
	}

	return s.newDeepLayer(idx, layer), nil
}

// CreateEdgePairLayer resolves the working layout and installs the
// Clipping -> EdgePairBuilding chain (spec section 4.1).
func (s *ShapeStore) CreateEdgePairLayer(ctx context.Context, it *dssiter.Iterator, trans geom.Transform) (*DeepLayer, error) {
	idx := s.LayoutForIter(it, trans)
	h, err := s.holderFor(idx)
	if err != nil {
		return nil, err
	}

	layer := h.layout.InsertLayer()
	h.builder.SetTargetLayer(layer)

	terminal := receivers.NewEdgePairBuilding(h.builder)
	chain := receivers.NewClipping(it.HasRegion, it.Region, terminal)

	h.builder.SetShapeReceiver(chain)
	defer h.builder.SetShapeReceiver(hierbuild.NopReceiver{})

	if err := dssiter.Drain(ctx, it, h.builder, trans); err != nil {
		return nil, dsserrors.Wrap(dsserrors.CodeBuilderFailure, "edge pair layer drain failed", err)
	}

	return s.newDeepLayer(idx, layer), nil
}

func (s *ShapeStore) addRef(idx LayoutIndex, layer dsslayout.LayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.holders[idx]
	h.refs++
	h.layerRefs[layer]++
}

func (s *ShapeStore) removeRef(idx LayoutIndex, layer dsslayout.LayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.holders[idx]
	if h == nil {
		panic("dss: remove_ref on an already-destroyed layout slot")
	}

	count, ok := h.layerRefs[layer]
	if !ok || count == 0 {
		panic("dss: layer refcount underflow")
	}
	count--
	if count == 0 {
		delete(h.layerRefs, layer)
		h.layout.DeleteLayer(layer)
	} else {
		h.layerRefs[layer] = count
	}

	if h.refs == 0 {
		panic("dss: layout refcount underflow")
	}
	h.refs--
	if h.refs == 0 {
		s.holders[idx] = nil
	}
}

func (s *ShapeStore) newDeepLayer(idx LayoutIndex, layer dsslayout.LayerID) *DeepLayer {
	s.addRef(idx, layer)
	return &DeepLayer{store: s, layoutIndex: idx, layerIndex: layer}
}

// Layout returns the working layout at idx.
func (s *ShapeStore) Layout(idx LayoutIndex) (*dsslayout.Layout, error) {
	h, err := s.holderFor(idx)
	if err != nil {
		return nil, err
	}
	return h.layout, nil
}

// InitialCell returns the first top-down cell of the layout at idx, failing
// with EmptyLayout if it has no cells.
func (s *ShapeStore) InitialCell(idx LayoutIndex) (dsslayout.CellIndex, error) {
	h, err := s.holderFor(idx)
	if err != nil {
		return 0, err
	}
	c, ok := h.layout.TopCell()
	if !ok {
		return 0, dsserrors.ErrEmptyLayout
	}
	return c, nil
}

// RequireSingular fails with NotSingular if more than one working layout
// currently exists.
func (s *ShapeStore) RequireSingular() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, h := range s.holders {
		if h != nil {
			count++
		}
	}
	if count > 1 {
		return dsserrors.ErrNotSingular
	}
	return nil
}

// IssueVariants registers, for each original cell, every (transform,
// variant_cell) pair with the layout's hierarchy builder, and invalidates
// the delivery-mapping cache for that layout (spec section 4.1).
func (s *ShapeStore) IssueVariants(idx LayoutIndex, variants map[dsslayout.CellIndex][]dsslayout.CellIndex) error {
	h, err := s.holderFor(idx)
	if err != nil {
		return err
	}
	for original, variantCells := range variants {
		for _, variant := range variantCells {
			h.builder.RegisterVariant(original, variant)
		}
	}
	s.invalidateDeliveryFor(idx)
	return nil
}

func (s *ShapeStore) invalidateDeliveryFor(idx LayoutIndex) {
	s.deliveryMu.Lock()
	defer s.deliveryMu.Unlock()
	for k := range s.deliveryCache {
		if k.sourceLayout == idx {
			delete(s.deliveryCache, k)
		}
	}
}
