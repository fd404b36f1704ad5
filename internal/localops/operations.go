package localops

import "github.com/JiancunWang/klayout/pkg/geom"

// EmptyIntruderMode tells the hierarchical driver how to shortcut a cluster
// whose intruder set is empty on a given cell (spec section 4.5).
type EmptyIntruderMode int

const (
	// OnEmptyDrop discards the cluster: it contributes nothing to the result.
	OnEmptyDrop EmptyIntruderMode = iota
	// OnEmptyCopySelf passes self through unchanged.
	OnEmptyCopySelf
	// OnEmptySkip runs the operation anyway (self-only checks, e.g. width,
	// have no intruder set to begin with).
	OnEmptySkip
)

// Mode selects the geometric relation InteractingLocalOperation and
// PullLocalOperation test between a self shape and an intruder.
type Mode int

const (
	// ModeOverlap selects self shapes overlapping (or, with touching, merely
	// bbox-adjacent to) an intruder.
	ModeOverlap Mode = iota
	// ModeInside selects self shapes fully contained in an intruder.
	ModeInside
	// ModeOutside selects self shapes with no intruder overlap at all.
	ModeOutside
)

func interactsForMode(mode Mode, touching bool, self, other geom.Box) bool {
	switch mode {
	case ModeInside:
		return other.Touches(self) && other.P0.X <= self.P0.X && other.P0.Y <= self.P0.Y &&
			other.P1.X >= self.P1.X && other.P1.Y >= self.P1.Y
	case ModeOutside:
		return !self.Overlaps(other) && !(touching && self.Touches(other))
	default:
		if touching {
			return self.Touches(other)
		}
		return self.Overlaps(other)
	}
}

// buildModeInteractions is Build's Mode-aware counterpart: InteractingLocalOperation
// and PullLocalOperation test a relation richer than plain bbox overlap.
func buildModeInteractions(self, intruder []geom.Shape, dist int64, mode Mode, touching bool) *Interactions {
	ix := NewInteractions(self, intruder)
	for i, s := range self {
		sb := s.BBox()
		if dist > 0 {
			sb = sb.Enlarged(dist)
		}
		for j, o := range intruder {
			if interactsForMode(mode, touching, sb, o.BBox()) {
				ix.Connect(i, j)
			}
		}
	}
	return ix
}

// Operation is the common local-operation contract (spec section 4.5):
// a fixed interaction radius, a hint for the empty-intruder shortcut, and a
// per-self-shape result computation over a pre-built Interactions table.
type Operation interface {
	Dist() int64
	OnEmptyIntruderHint() EmptyIntruderMode
	Description() string
	ComputeLocal(ix *Interactions) [][]geom.Shape
}

// CheckLocalOperation emits edge pairs violating an edge relation filter
// (spacing/width/enclosure-style DRC checks).
type CheckLocalOperation struct {
	Check             EdgeRelationFilter
	DifferentPolygons bool
	HasOther          bool
	Shielded          bool
}

// NewCheckLocalOperation builds a CheckLocalOperation.
func NewCheckLocalOperation(check EdgeRelationFilter, differentPolygons, hasOther, shielded bool) *CheckLocalOperation {
	return &CheckLocalOperation{Check: check, DifferentPolygons: differentPolygons, HasOther: hasOther, Shielded: shielded}
}

func (op *CheckLocalOperation) Dist() int64 {
	if op.Check.Max > op.Check.Min {
		return op.Check.Max
	}
	return op.Check.Min
}

func (op *CheckLocalOperation) OnEmptyIntruderHint() EmptyIntruderMode {
	if op.HasOther {
		return OnEmptyDrop
	}
	return OnEmptySkip
}

func (op *CheckLocalOperation) Description() string { return "check" }

// ComputeLocal evaluates the edge relation filter between each self polygon
// and either its intruder set (HasOther) or itself (width-style, single
// polygon checks), optionally suppressing pairs shielded by a third shape in
// the same cluster.
func (op *CheckLocalOperation) ComputeLocal(ix *Interactions) [][]geom.Shape {
	results := make([][]geom.Shape, len(ix.Self))
	for si, self := range ix.Self {
		selfPoly, ok := self.AsPolygon(0)
		if !ok {
			continue
		}

		var others []geom.Polygon
		if op.HasOther {
			for _, ii := range ix.ForSelf(si) {
				if p, ok := ix.Intruder[ii].AsPolygon(0); ok {
					others = append(others, p)
				}
			}
		} else {
			others = []geom.Polygon{selfPoly}
		}

		var found []geom.EdgePair
		for _, other := range others {
			for _, ea := range edgesOf(selfPoly) {
				for _, eb := range edgesOf(other) {
					if ea.P0 == eb.P0 && ea.P1 == eb.P1 {
						continue
					}
					if ep, bad := op.Check.Violation(ea, eb); bad {
						found = append(found, ep)
					}
				}
			}
		}

		if op.Shielded {
			found = op.removeShielded(found, ix, si)
		}

		out := make([]geom.Shape, len(found))
		for i, ep := range found {
			out[i] = geom.NewEdgePairShape(ep)
		}
		results[si] = out
	}
	return results
}

// removeShielded drops violations whose gap midpoint (the centre of the
// space between, or overlap of, the two edges' bounding boxes) falls inside
// the bbox of a third shape of the cluster (neither the self nor the reporting intruder),
// matching the "shielded" flag's intent of suppressing pairs occluded by
// intervening geometry.
func (op *CheckLocalOperation) removeShielded(found []geom.EdgePair, ix *Interactions, selfIdx int) []geom.EdgePair {
	var kept []geom.EdgePair
	for _, ep := range found {
		fb, sb := ep.First.BBox(), ep.Second.BBox()
		mid := geom.Point{
			X: (max(fb.P0.X, sb.P0.X) + min(fb.P1.X, sb.P1.X)) / 2,
			Y: (max(fb.P0.Y, sb.P0.Y) + min(fb.P1.Y, sb.P1.Y)) / 2,
		}
		shielded := false
		for idx, other := range ix.Self {
			if idx == selfIdx {
				continue
			}
			if boxContains(other.BBox(), mid) {
				shielded = true
				break
			}
		}
		if !shielded {
			kept = append(kept, ep)
		}
	}
	return kept
}

func boxContains(b geom.Box, p geom.Point) bool {
	return p.X >= b.P0.X && p.X <= b.P1.X && p.Y >= b.P0.Y && p.Y <= b.P1.Y
}

// InteractingLocalOperation selects self polygons by interaction with the
// intruder set: mode governs the geometric relation, touching widens it to
// edge contact, inverse complements the selection, and [MinCount,MaxCount]
// bounds the number of interacting counterparts.
type InteractingLocalOperation struct {
	Mode     Mode
	Touching bool
	Inverse  bool
	MinCount int
	MaxCount int
}

// NewInteractingLocalOperation builds an InteractingLocalOperation.
func NewInteractingLocalOperation(mode Mode, touching, inverse bool, minCount, maxCount int) *InteractingLocalOperation {
	return &InteractingLocalOperation{Mode: mode, Touching: touching, Inverse: inverse, MinCount: minCount, MaxCount: maxCount}
}

// InteractionMode reports the relation InteractingLocalOperation tests,
// satisfying ModeAware.
func (op *InteractingLocalOperation) InteractionMode() (Mode, bool) { return op.Mode, op.Touching }

func (op *InteractingLocalOperation) Dist() int64 { return 1 }

func (op *InteractingLocalOperation) OnEmptyIntruderHint() EmptyIntruderMode {
	if op.Inverse {
		return OnEmptyCopySelf
	}
	return OnEmptyDrop
}

func (op *InteractingLocalOperation) Description() string { return "interacting" }

func (op *InteractingLocalOperation) ComputeLocal(ix *Interactions) [][]geom.Shape {
	results := make([][]geom.Shape, len(ix.Self))
	for si, self := range ix.Self {
		count := ix.Count(si)
		selected := count >= op.MinCount && (op.MaxCount <= 0 || count <= op.MaxCount)
		if op.Inverse {
			selected = !selected
		}
		if selected {
			results[si] = []geom.Shape{self}
		}
	}
	return results
}

// PullLocalOperation pulls intruder polygons interacting with self, one
// result list per self shape (no count bound, unlike InteractingLocalOperation).
type PullLocalOperation struct {
	Mode     Mode
	Touching bool
}

// NewPullLocalOperation builds a PullLocalOperation.
func NewPullLocalOperation(mode Mode, touching bool) *PullLocalOperation {
	return &PullLocalOperation{Mode: mode, Touching: touching}
}

// InteractionMode reports the relation PullLocalOperation tests, satisfying
// ModeAware.
func (op *PullLocalOperation) InteractionMode() (Mode, bool) { return op.Mode, op.Touching }

func (op *PullLocalOperation) Dist() int64                         { return 1 }
func (op *PullLocalOperation) OnEmptyIntruderHint() EmptyIntruderMode { return OnEmptyDrop }
func (op *PullLocalOperation) Description() string                 { return "pull" }

func (op *PullLocalOperation) ComputeLocal(ix *Interactions) [][]geom.Shape {
	results := make([][]geom.Shape, len(ix.Self))
	for si := range ix.Self {
		for _, ii := range ix.ForSelf(si) {
			results[si] = append(results[si], ix.Intruder[ii])
		}
	}
	return results
}

// InteractingWithEdgeLocalOperation selects self polygons interacting with
// edge intruders, bounded by [MinCount,MaxCount] and optionally inverted.
type InteractingWithEdgeLocalOperation struct {
	Inverse  bool
	MinCount int
	MaxCount int
}

// NewInteractingWithEdgeLocalOperation builds the operation.
func NewInteractingWithEdgeLocalOperation(inverse bool, minCount, maxCount int) *InteractingWithEdgeLocalOperation {
	return &InteractingWithEdgeLocalOperation{Inverse: inverse, MinCount: minCount, MaxCount: maxCount}
}

func (op *InteractingWithEdgeLocalOperation) Dist() int64 { return 1 }

func (op *InteractingWithEdgeLocalOperation) OnEmptyIntruderHint() EmptyIntruderMode {
	if op.Inverse {
		return OnEmptyCopySelf
	}
	return OnEmptyDrop
}

func (op *InteractingWithEdgeLocalOperation) Description() string { return "interacting_with_edge" }

func (op *InteractingWithEdgeLocalOperation) ComputeLocal(ix *Interactions) [][]geom.Shape {
	results := make([][]geom.Shape, len(ix.Self))
	for si, self := range ix.Self {
		count := ix.Count(si)
		selected := count >= op.MinCount && (op.MaxCount <= 0 || count <= op.MaxCount)
		if op.Inverse {
			selected = !selected
		}
		if selected {
			results[si] = []geom.Shape{self}
		}
	}
	return results
}

// PullWithEdgeLocalOperation pulls intruder edges interacting with self.
type PullWithEdgeLocalOperation struct{}

// NewPullWithEdgeLocalOperation builds the operation.
func NewPullWithEdgeLocalOperation() *PullWithEdgeLocalOperation { return &PullWithEdgeLocalOperation{} }

func (op *PullWithEdgeLocalOperation) Dist() int64                         { return 1 }
func (op *PullWithEdgeLocalOperation) OnEmptyIntruderHint() EmptyIntruderMode { return OnEmptyDrop }
func (op *PullWithEdgeLocalOperation) Description() string                 { return "pull_with_edge" }

func (op *PullWithEdgeLocalOperation) ComputeLocal(ix *Interactions) [][]geom.Shape {
	results := make([][]geom.Shape, len(ix.Self))
	for si := range ix.Self {
		for _, ii := range ix.ForSelf(si) {
			results[si] = append(results[si], ix.Intruder[ii])
		}
	}
	return results
}

// PullWithTextLocalOperation pulls intruder texts interacting with self.
type PullWithTextLocalOperation struct{}

// NewPullWithTextLocalOperation builds the operation.
func NewPullWithTextLocalOperation() *PullWithTextLocalOperation { return &PullWithTextLocalOperation{} }

func (op *PullWithTextLocalOperation) Dist() int64                         { return 1 }
func (op *PullWithTextLocalOperation) OnEmptyIntruderHint() EmptyIntruderMode { return OnEmptyDrop }
func (op *PullWithTextLocalOperation) Description() string                 { return "pull_with_text" }

func (op *PullWithTextLocalOperation) ComputeLocal(ix *Interactions) [][]geom.Shape {
	results := make([][]geom.Shape, len(ix.Self))
	for si := range ix.Self {
		for _, ii := range ix.ForSelf(si) {
			results[si] = append(results[si], ix.Intruder[ii])
		}
	}
	return results
}

// InteractingWithTextLocalOperation selects self polygons interacting with
// text intruders (e.g. a label landing inside a polygon), bounded by
// [MinCount,MaxCount] and optionally inverted.
type InteractingWithTextLocalOperation struct {
	Inverse  bool
	MinCount int
	MaxCount int
}

// NewInteractingWithTextLocalOperation builds the operation.
func NewInteractingWithTextLocalOperation(inverse bool, minCount, maxCount int) *InteractingWithTextLocalOperation {
	return &InteractingWithTextLocalOperation{Inverse: inverse, MinCount: minCount, MaxCount: maxCount}
}

func (op *InteractingWithTextLocalOperation) Dist() int64 { return 0 }

func (op *InteractingWithTextLocalOperation) OnEmptyIntruderHint() EmptyIntruderMode {
	if op.Inverse {
		return OnEmptyCopySelf
	}
	return OnEmptyDrop
}

func (op *InteractingWithTextLocalOperation) Description() string { return "interacting_with_text" }

func (op *InteractingWithTextLocalOperation) ComputeLocal(ix *Interactions) [][]geom.Shape {
	results := make([][]geom.Shape, len(ix.Self))
	for si, self := range ix.Self {
		count := ix.Count(si)
		selected := count >= op.MinCount && (op.MaxCount <= 0 || count <= op.MaxCount)
		if op.Inverse {
			selected = !selected
		}
		if selected {
			results[si] = []geom.Shape{self}
		}
	}
	return results
}
