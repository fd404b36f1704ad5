// Package localops implements the local operation family spec section 4.5
// names: Check/Interacting/Pull variants that parameterize downstream
// Boolean/DRC-style operators built on top of the store's clustered
// geometry. The C++ original templates each operation over distinct
// PolygonRef/Edge/TextRef element types; since geom.Shape already unifies
// those as one tagged variant (spec section 2's data model), a single
// Interactions table and a single geom.Shape-valued result slice serve all
// seven operations without needing Go generics to re-derive the template
// parameterization.
package localops

import "github.com/JiancunWang/klayout/pkg/geom"

// Interactions records, for one cluster, which self shapes interact with
// which intruder shapes — the Go equivalent of shape_interactions<S, I>.
type Interactions struct {
	Self     []geom.Shape
	Intruder []geom.Shape

	pairs map[int]map[int]struct{}
}

// NewInteractions creates an empty interaction table over self and intruder.
func NewInteractions(self, intruder []geom.Shape) *Interactions {
	return &Interactions{
		Self:     self,
		Intruder: intruder,
		pairs:    make(map[int]map[int]struct{}),
	}
}

// Connect records that self[selfIdx] interacts with intruder[intruderIdx].
func (ix *Interactions) Connect(selfIdx, intruderIdx int) {
	set, ok := ix.pairs[selfIdx]
	if !ok {
		set = make(map[int]struct{})
		ix.pairs[selfIdx] = set
	}
	set[intruderIdx] = struct{}{}
}

// ForSelf returns the intruder indices interacting with self[selfIdx], in
// ascending order.
func (ix *Interactions) ForSelf(selfIdx int) []int {
	set := ix.pairs[selfIdx]
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Count returns the number of intruders interacting with self[selfIdx].
func (ix *Interactions) Count(selfIdx int) int {
	return len(ix.pairs[selfIdx])
}

// touches reports whether two bounding boxes, possibly enlarged by dist,
// satisfy the given interaction predicate. dist implements the "hierarchical
// driver pre-filters candidates by dist()" contract (spec section 4.5).
func touches(a, b geom.Box, dist int64, touching bool) bool {
	if dist > 0 {
		a = a.Enlarged(dist)
	}
	if touching {
		return a.Touches(b)
	}
	return a.Overlaps(b)
}

// Build constructs an Interactions table between self and intruder by
// bounding-box interaction, the same approximation internal/cluster uses for
// shape adjacency (no polygon-exact boolean engine exists in this package;
// see DESIGN.md). dist enlarges self's box before testing, matching each
// operation's dist() pre-filter; touching includes edge-only contact.
func Build(self, intruder []geom.Shape, dist int64, touching bool) *Interactions {
	ix := NewInteractions(self, intruder)
	for i, s := range self {
		sb := s.BBox()
		for j, o := range intruder {
			if touches(sb, o.BBox(), dist, touching) {
				ix.Connect(i, j)
			}
		}
	}
	return ix
}
