package geom

// Kind identifies which geometry variant a Shape carries.
type Kind int

const (
	KindPolygon Kind = iota
	KindBox
	KindPath
	KindEdge
	KindEdgePair
	KindText
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPolygon:
		return "polygon"
	case KindBox:
		return "box"
	case KindPath:
		return "path"
	case KindEdge:
		return "edge"
	case KindEdgePair:
		return "edge_pair"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Shape is the tagged union yielded by a RecursiveShapeIterator and consumed
// by the receiver chain: exactly one of Poly/Box/Path/Edge/EdgePair/Txt is
// meaningful, selected by Kind. PropID, when non-zero, names a property
// attached to the shape in the source layout's properties repository (used
// by the store to carry terminal-id / text-string annotations).
type Shape struct {
	Kind     Kind
	Poly     Polygon
	Box      Box
	Path     Path
	Edge     Edge
	EdgePair EdgePair
	Txt      Text
	PropID   uint64
}

// NewPolygonShape wraps a polygon.
func NewPolygonShape(p Polygon) Shape { return Shape{Kind: KindPolygon, Poly: p} }

// NewBoxShape wraps a box.
func NewBoxShape(b Box) Shape { return Shape{Kind: KindBox, Box: b} }

// NewPathShape wraps a path.
func NewPathShape(p Path) Shape { return Shape{Kind: KindPath, Path: p} }

// NewEdgeShape wraps an edge.
func NewEdgeShape(e Edge) Shape { return Shape{Kind: KindEdge, Edge: e} }

// NewEdgePairShape wraps an edge pair.
func NewEdgePairShape(ep EdgePair) Shape { return Shape{Kind: KindEdgePair, EdgePair: ep} }

// NewTextShape wraps a text.
func NewTextShape(t Text) Shape { return Shape{Kind: KindText, Txt: t} }

// BBox returns the bounding box of whichever variant is active.
func (s Shape) BBox() Box {
	switch s.Kind {
	case KindPolygon:
		return s.Poly.BBox()
	case KindBox:
		return s.Box
	case KindPath:
		return s.Path.BBox()
	case KindEdge:
		return s.Edge.BBox()
	case KindEdgePair:
		return s.EdgePair.BBox()
	case KindText:
		return Box{P0: s.Txt.Anchor, P1: s.Txt.Anchor}
	default:
		return EmptyBox()
	}
}

// AsPolygon renders whichever variant is active to a single polygon,
// matching the spec's insert_as_polygons conversion table: edge-pair becomes
// its bounding box enlarged by edgePairEnlargement, path/polygon/box become a
// polygon, others have no polygon representation.
func (s Shape) AsPolygon(edgePairEnlargement int64) (Polygon, bool) {
	switch s.Kind {
	case KindPolygon:
		return s.Poly, true
	case KindBox:
		return s.Box.AsPolygon(), true
	case KindPath:
		return s.Path.AsPolygon(), true
	case KindEdgePair:
		b := s.EdgePair.BBox().Enlarged(edgePairEnlargement)
		return b.AsPolygon(), true
	default:
		return Polygon{}, false
	}
}

// Transformed applies t to whichever variant is active.
func (s Shape) Transformed(t Transform) Shape {
	out := s
	switch s.Kind {
	case KindPolygon:
		out.Poly = s.Poly.Transformed(t)
	case KindBox:
		out.Box = t.ApplyBox(s.Box)
	case KindPath:
		pts := make([]Point, len(s.Path.Points))
		for i, p := range s.Path.Points {
			pts[i] = t.Apply(p)
		}
		out.Path = Path{Points: pts, Width: int64(float64(s.Path.Width) * t.Magnification())}
	case KindEdge:
		out.Edge = Edge{P0: t.Apply(s.Edge.P0), P1: t.Apply(s.Edge.P1)}
	case KindEdgePair:
		out.EdgePair = EdgePair{
			First:  Edge{P0: t.Apply(s.EdgePair.First.P0), P1: t.Apply(s.EdgePair.First.P1)},
			Second: Edge{P0: t.Apply(s.EdgePair.Second.P0), P1: t.Apply(s.EdgePair.Second.P1)},
		}
	case KindText:
		out.Txt = Text{Anchor: t.Apply(s.Txt.Anchor), String: s.Txt.String}
	}
	return out
}
