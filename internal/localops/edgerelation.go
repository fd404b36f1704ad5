package localops

import (
	"math"

	"github.com/JiancunWang/klayout/pkg/geom"
)

// RelationKind names the family of DRC-style edge relation a
// CheckLocalOperation evaluates (spec section 4.5: "edge_relation_filter,
// e.g., spacing/width/enclosure").
type RelationKind int

const (
	// Spacing flags edge pairs from different polygons closer than Min.
	Spacing RelationKind = iota
	// Width flags edge pairs within the same polygon closer than Min.
	Width
	// Enclosure flags an inner edge closer to an outer edge than Min.
	Enclosure
)

// EdgeRelationFilter is the predicate CheckLocalOperation evaluates on every
// candidate edge pair: a violation is reported when the measured distance
// is below Min and, when Max > 0, not above Max.
type EdgeRelationFilter struct {
	Kind RelationKind
	Min  int64
	Max  int64
}

// Violation measures the gap between a and b and reports whether it
// violates f, returning the EdgePair to report when it does. A violation is
// a measured distance below Min; Max, when set, additionally bounds the
// reported range from above (used by enclosure-style checks that only flag
// a band of distances, not every distance below Min).
func (f EdgeRelationFilter) Violation(a, b geom.Edge) (geom.EdgePair, bool) {
	d := edgeDistance(a, b)
	if d >= float64(f.Min) {
		return geom.EdgePair{}, false
	}
	if f.Max > 0 && d > float64(f.Max) {
		return geom.EdgePair{}, false
	}
	return geom.EdgePair{First: a, Second: b}, true
}

// edgeDistance returns the minimum Euclidean distance between segments a
// and b, approximated via their endpoint-to-segment distances (sufficient
// for convex, non-crossing DRC-style edges; a full segment-segment distance
// with interior-crossing detection is not needed since interacting() has
// already bounded candidates to a dist()-enlarged box).
func edgeDistance(a, b geom.Edge) float64 {
	d := pointSegmentDistance(a.P0, b)
	d = math.Min(d, pointSegmentDistance(a.P1, b))
	d = math.Min(d, pointSegmentDistance(b.P0, a))
	d = math.Min(d, pointSegmentDistance(b.P1, a))
	return d
}

func pointSegmentDistance(p geom.Point, e geom.Edge) float64 {
	ax, ay := float64(e.P0.X), float64(e.P0.Y)
	bx, by := float64(e.P1.X), float64(e.P1.Y)
	px, py := float64(p.X), float64(p.Y)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

func edgesOf(p geom.Polygon) []geom.Edge {
	n := len(p.Points)
	if n < 2 {
		return nil
	}
	out := make([]geom.Edge, n)
	for i := 0; i < n; i++ {
		out[i] = geom.Edge{P0: p.Points[i], P1: p.Points[(i+1)%n]}
	}
	return out
}
