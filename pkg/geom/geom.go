// Package geom provides the integer-coordinate geometry primitives the
// working layout, hierarchy builder and local operations all traffic in:
// points, boxes, polygons, edges, edge pairs, paths and texts, plus the
// complex transform used to place a cell instance in its parent.
//
// These types are the "external collaborators referenced only by interface"
// that spec section 1 assumes exist (the real Layout container, polygon/edge
// primitives and recursive shape iterator are, in KLayout itself, a separate
// C++ library). No library in the example corpus covers EDA/DRC geometry, so
// this package is implemented directly against the spec's data model using
// only the standard library's math package.
package geom

import "math"

// Point is an integer coordinate pair in database units (dbu).
type Point struct {
	X, Y int64
}

// Add returns p+v.
func (p Point) Add(v Point) Point { return Point{p.X + v.X, p.Y + v.Y} }

// Sub returns p-v.
func (p Point) Sub(v Point) Point { return Point{p.X - v.X, p.Y - v.Y} }

// Box is an axis-aligned rectangle, normalized so P0 <= P1 componentwise.
// A Box with P0.X > P1.X is the canonical empty box.
type Box struct {
	P0, P1 Point
}

// EmptyBox returns the canonical empty box.
func EmptyBox() Box { return Box{P0: Point{X: 1, Y: 0}, P1: Point{X: 0, Y: 0}} }

// NewBox builds a normalized box from two corner points.
func NewBox(a, b Point) Box {
	lo := Point{min64(a.X, b.X), min64(a.Y, b.Y)}
	hi := Point{max64(a.X, b.X), max64(a.Y, b.Y)}
	return Box{P0: lo, P1: hi}
}

// IsEmpty reports whether the box contains no area.
func (b Box) IsEmpty() bool { return b.P0.X > b.P1.X || b.P0.Y > b.P1.Y }

// Width returns P1.X - P0.X.
func (b Box) Width() int64 { return b.P1.X - b.P0.X }

// Height returns P1.Y - P0.Y.
func (b Box) Height() int64 { return b.P1.Y - b.P0.Y }

// Area returns width*height, or 0 for an empty box.
func (b Box) Area() int64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Center returns the box's centroid.
func (b Box) Center() Point {
	return Point{(b.P0.X + b.P1.X) / 2, (b.P0.Y + b.P1.Y) / 2}
}

// Touches reports whether b and other share any point, including edge contact.
func (b Box) Touches(other Box) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return b.P0.X <= other.P1.X && other.P0.X <= b.P1.X &&
		b.P0.Y <= other.P1.Y && other.P0.Y <= b.P1.Y
}

// Overlaps reports whether b and other share positive area.
func (b Box) Overlaps(other Box) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return b.P0.X < other.P1.X && other.P0.X < b.P1.X &&
		b.P0.Y < other.P1.Y && other.P0.Y < b.P1.Y
}

// Intersection returns the overlapping region of b and other, or an empty
// box when they do not overlap.
func (b Box) Intersection(other Box) Box {
	lo := Point{max64(b.P0.X, other.P0.X), max64(b.P0.Y, other.P0.Y)}
	hi := Point{min64(b.P1.X, other.P1.X), min64(b.P1.Y, other.P1.Y)}
	if lo.X > hi.X || lo.Y > hi.Y {
		return EmptyBox()
	}
	return Box{P0: lo, P1: hi}
}

// Enlarged returns b grown by n dbu on every side.
func (b Box) Enlarged(n int64) Box {
	return Box{P0: Point{b.P0.X - n, b.P0.Y - n}, P1: Point{b.P1.X + n, b.P1.Y + n}}
}

// AsPolygon returns the box's four corners as a simple polygon, CCW.
func (b Box) AsPolygon() Polygon {
	return Polygon{Points: []Point{
		{b.P0.X, b.P0.Y}, {b.P1.X, b.P0.Y}, {b.P1.X, b.P1.Y}, {b.P0.X, b.P1.Y},
	}}
}

// Edge is a directed segment between two points.
type Edge struct {
	P0, P1 Point
}

// BBox returns the edge's bounding box.
func (e Edge) BBox() Box { return NewBox(e.P0, e.P1) }

// Length returns the Euclidean length of the edge.
func (e Edge) Length() float64 {
	dx := float64(e.P1.X - e.P0.X)
	dy := float64(e.P1.Y - e.P0.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// EdgePair is an ordered pair of edges, used to report DRC-style violations
// (e.g. a spacing or width check result) between two edges.
type EdgePair struct {
	First, Second Edge
}

// BBox returns the bounding box enclosing both edges.
func (ep EdgePair) BBox() Box {
	b1, b2 := ep.First.BBox(), ep.Second.BBox()
	return NewBox(Point{min64(b1.P0.X, b2.P0.X), min64(b1.P0.Y, b2.P0.Y)},
		Point{max64(b1.P1.X, b2.P1.X), max64(b1.P1.Y, b2.P1.Y)})
}

// Polygon is a simple (non-self-intersecting), single-contour polygon given
// as a CCW point sequence. The store's fragment reduction stage may
// decompose a complex polygon into several simple ones; holes are not
// modeled, matching the spec's scope (Boolean operators that would produce
// holes are clients of the store, not the store itself).
type Polygon struct {
	Points []Point
}

// BBox returns the polygon's bounding box.
func (p Polygon) BBox() Box {
	if len(p.Points) == 0 {
		return EmptyBox()
	}
	b := Box{P0: p.Points[0], P1: p.Points[0]}
	for _, pt := range p.Points[1:] {
		if pt.X < b.P0.X {
			b.P0.X = pt.X
		}
		if pt.Y < b.P0.Y {
			b.P0.Y = pt.Y
		}
		if pt.X > b.P1.X {
			b.P1.X = pt.X
		}
		if pt.Y > b.P1.Y {
			b.P1.Y = pt.Y
		}
	}
	return b
}

// VertexCount returns the number of vertices.
func (p Polygon) VertexCount() int { return len(p.Points) }

// Area returns the polygon's signed area via the shoelace formula, taken as
// an absolute value (orientation is not semantically meaningful here).
func (p Polygon) Area() int64 {
	n := len(p.Points)
	if n < 3 {
		return 0
	}
	var sum int64
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// AreaRatio returns bbox-area / polygon-area, the quantity the Reducing
// receiver compares against max_area_ratio. A degenerate zero-area polygon
// reports +Inf, so it is always subject to reduction.
func (p Polygon) AreaRatio() float64 {
	area := p.Area()
	if area == 0 {
		return math.Inf(1)
	}
	return float64(p.BBox().Area()) / float64(area)
}

// Transformed applies t to every vertex, returning a new polygon.
func (p Polygon) Transformed(t Transform) Polygon {
	out := make([]Point, len(p.Points))
	for i, pt := range p.Points {
		out[i] = t.Apply(pt)
	}
	return Polygon{Points: out}
}

// Equal reports whether two polygons have the same vertex sequence starting
// from any rotation (used by shape-set equality checks in tests).
func (p Polygon) Equal(other Polygon) bool {
	if len(p.Points) != len(other.Points) {
		return false
	}
	n := len(p.Points)
	if n == 0 {
		return true
	}
	for shift := 0; shift < n; shift++ {
		match := true
		for i := 0; i < n; i++ {
			if p.Points[i] != other.Points[(i+shift)%n] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Path is a sequence of points with a uniform width, as produced by routing
// geometry before it is rendered to a polygon outline.
type Path struct {
	Points []Point
	Width  int64
}

// BBox returns the path's bounding box, enlarged by half its width.
func (p Path) BBox() Box {
	if len(p.Points) == 0 {
		return EmptyBox()
	}
	b := Box{P0: p.Points[0], P1: p.Points[0]}
	for _, pt := range p.Points[1:] {
		if pt.X < b.P0.X {
			b.P0.X = pt.X
		}
		if pt.Y < b.P0.Y {
			b.P0.Y = pt.Y
		}
		if pt.X > b.P1.X {
			b.P1.X = pt.X
		}
		if pt.Y > b.P1.Y {
			b.P1.Y = pt.Y
		}
	}
	return b.Enlarged(p.Width / 2)
}

// AsPolygon renders the path to its simple rectangular-segment outline. Only
// straight single-segment paths are rendered exactly; multi-segment paths
// use a coarse per-segment rectangle union (sufficient for insert_as_polygons,
// which is the only spec operation that rasterizes a path).
func (p Path) AsPolygon() Polygon {
	if len(p.Points) < 2 || p.Width <= 0 {
		return Polygon{}
	}
	half := float64(p.Width) / 2
	var pts []Point
	for i := 0; i < len(p.Points)-1; i++ {
		a, b := p.Points[i], p.Points[i+1]
		dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
		length := math.Sqrt(dx*dx + dy*dy)
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half
		pts = append(pts,
			Point{a.X + int64(nx), a.Y + int64(ny)},
			Point{b.X + int64(nx), b.Y + int64(ny)},
			Point{b.X - int64(nx), b.Y - int64(ny)},
			Point{a.X - int64(nx), a.Y - int64(ny)},
		)
	}
	return Polygon{Points: pts}
}

// Text is a point-anchored string label, as produced by a layout's text
// layer before text expansion turns it into a box.
type Text struct {
	Anchor Point
	String string
}

// Transform is KLayout's "complex transformation": rotation in units of 90
// degrees plus optional mirroring about the x-axis, a magnification and a
// displacement, applied as  p' = disp + mag * rot(mirror(p)).
type Transform struct {
	Rot    int  // 0,1,2,3 meaning 0,90,180,270 degrees CCW
	Mirror bool // mirror about the x-axis before rotation
	Mag    float64
	Disp   Point
}

// Identity returns the identity transform.
func Identity() Transform { return Transform{Mag: 1} }

// Apply transforms a point.
func (t Transform) Apply(p Point) Point {
	x, y := float64(p.X), float64(p.Y)
	if t.Mirror {
		y = -y
	}
	switch ((t.Rot % 4) + 4) % 4 {
	case 1:
		x, y = -y, x
	case 2:
		x, y = -x, -y
	case 3:
		x, y = y, -x
	}
	mag := t.Mag
	if mag == 0 {
		mag = 1
	}
	x *= mag
	y *= mag
	return Point{t.Disp.X + int64(round(x)), t.Disp.Y + int64(round(y))}
}

// ApplyBox transforms a box by its two corners, re-normalizing afterward
// since rotation/mirroring can swap which corner is the minimum.
func (t Transform) ApplyBox(b Box) Box {
	return NewBox(t.Apply(b.P0), t.Apply(b.P1))
}

// Magnification returns the transform's scale factor, defaulting to 1.
func (t Transform) Magnification() float64 {
	if t.Mag == 0 {
		return 1
	}
	return t.Mag
}

// Inverted returns the inverse transform.
func (t Transform) Inverted() Transform {
	mag := t.Magnification()
	// A plain rotation inverts to the opposite rotation; a mirrored one keeps
	// its rotation, since mirror(rot(-r)) equals rot(r)(mirror).
	rot := t.Rot
	if !t.Mirror {
		rot = (4 - ((t.Rot%4)+4)%4) % 4
	}
	inv := Transform{Mag: 1 / mag, Rot: rot, Mirror: t.Mirror}
	// Apply inverse rotation/mirror to -disp/mag to find the inverse displacement.
	d := Point{X: -t.Disp.X, Y: -t.Disp.Y}
	scaled := Point{X: int64(float64(d.X) / mag), Y: int64(float64(d.Y) / mag)}
	inv.Disp = Point{}
	inv.Disp = inverseRotate(scaled, t.Rot, t.Mirror)
	return inv
}

func inverseRotate(p Point, rot int, mirror bool) Point {
	x, y := float64(p.X), float64(p.Y)
	switch ((rot % 4) + 4) % 4 {
	case 1:
		x, y = y, -x
	case 2:
		x, y = -x, -y
	case 3:
		x, y = -y, x
	}
	if mirror {
		y = -y
	}
	return Point{int64(round(x)), int64(round(y))}
}

// Concat returns the transform equivalent to applying t first, then outer
// (outer.Concat corresponds to outer * t in matrix-composition order).
func (outer Transform) Concat(t Transform) Transform {
	// Compose by sampling three points would lose the affine structure for
	// mirror; instead compose rotation/mirror state and displacement/mag
	// algebraically.
	rot := (outer.Rot + t.Rot) % 4
	if outer.Mirror {
		// Mirroring about the x-axis reverses the sense of t's rotation.
		rot = ((outer.Rot-t.Rot)%4 + 4) % 4
	}
	mirror := outer.Mirror != t.Mirror
	mag := outer.Magnification() * t.Magnification()
	disp := outer.Apply(t.Disp)
	// Remove t's own displacement contribution already folded via Apply above
	// by applying outer to the zero point and subtracting, then re-adding:
	// outer.Apply already incorporates outer.Disp, so `disp` above is
	// outer(t.Disp) which is exactly the composed displacement.
	return Transform{Rot: rot, Mirror: mirror, Mag: mag, Disp: disp}
}

func round(f float64) float64 {
	if f >= 0 {
		return math.Floor(f + 0.5)
	}
	return math.Ceil(f - 0.5)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
