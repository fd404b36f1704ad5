package dss

import (
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/hierbuild"
)

// LayoutHolder pairs one working layout with the hierarchy builder that
// mirrors a source into it and the per-layer refcount map governing that
// layer's lifetime (spec section 3). Invariant: refs == sum(layerRefs
// values) for as long as refs > 0.
type LayoutHolder struct {
	layout  *dsslayout.Layout
	builder *hierbuild.Builder

	refs      uint32
	layerRefs map[dsslayout.LayerID]uint32
}
