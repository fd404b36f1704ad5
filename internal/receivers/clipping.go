// Package receivers implements the ShapeReceiver pipeline stages spec
// section 4.1 composes into a chain for each create_*_layer call: Clipping,
// Reducing, PolygonRefInterning (with text expansion), EdgeBuilding and
// EdgePairBuilding. Each stage wraps a "next" receiver and forwards shapes
// it accepts, letting the store link stages into a pipeline owned by the
// driving call (spec section 9's design notes).
package receivers

import (
	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/hierbuild"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// Clipping passes through shapes touching the iterator's clip region and
// clips polygons against it; shapes with no clip region configured pass
// through untouched.
type Clipping struct {
	hasRegion bool
	region    geom.Box
	next      hierbuild.ShapeReceiver
}

// NewClipping creates a Clipping stage. hasRegion false disables clipping
// entirely (every shape passes through).
func NewClipping(hasRegion bool, region geom.Box, next hierbuild.ShapeReceiver) *Clipping {
	return &Clipping{hasRegion: hasRegion, region: region, next: next}
}

func (c *Clipping) BeginCell(cell dsslayout.CellIndex) { c.next.BeginCell(cell) }
func (c *Clipping) EndCell(cell dsslayout.CellIndex)   { c.next.EndCell(cell) }
func (c *Clipping) NewLayerInserted(layer dsslayout.LayerID) { c.next.NewLayerInserted(layer) }

func (c *Clipping) Push(s geom.Shape, trans geom.Transform) {
	if !c.hasRegion {
		c.next.Push(s, trans)
		return
	}
	if !s.BBox().Touches(c.region) {
		return
	}
	if s.Kind == geom.KindPolygon {
		clipped, ok := clipPolygon(s.Poly, c.region)
		if !ok {
			return
		}
		s = geom.NewPolygonShape(clipped)
	}
	c.next.Push(s, trans)
}

// clipPolygon clips p against box using the Sutherland-Hodgman algorithm
// against the box's four half-planes. Returns false if nothing survives.
func clipPolygon(p geom.Polygon, box geom.Box) (geom.Polygon, bool) {
	pts := p.Points
	pts = clipHalfPlane(pts, func(pt geom.Point) bool { return pt.X >= box.P0.X },
		func(a, b geom.Point) geom.Point { return intersectX(a, b, box.P0.X) })
	pts = clipHalfPlane(pts, func(pt geom.Point) bool { return pt.X <= box.P1.X },
		func(a, b geom.Point) geom.Point { return intersectX(a, b, box.P1.X) })
	pts = clipHalfPlane(pts, func(pt geom.Point) bool { return pt.Y >= box.P0.Y },
		func(a, b geom.Point) geom.Point { return intersectY(a, b, box.P0.Y) })
	pts = clipHalfPlane(pts, func(pt geom.Point) bool { return pt.Y <= box.P1.Y },
		func(a, b geom.Point) geom.Point { return intersectY(a, b, box.P1.Y) })

	if len(pts) < 3 {
		return geom.Polygon{}, false
	}
	return geom.Polygon{Points: pts}, true
}

func clipHalfPlane(pts []geom.Point, inside func(geom.Point) bool, intersect func(a, b geom.Point) geom.Point) []geom.Point {
	if len(pts) == 0 {
		return pts
	}
	out := make([]geom.Point, 0, len(pts))
	prev := pts[len(pts)-1]
	prevIn := inside(prev)
	for _, cur := range pts {
		curIn := inside(cur)
		if curIn {
			if !prevIn {
				out = append(out, intersect(prev, cur))
			}
			out = append(out, cur)
		} else if prevIn {
			out = append(out, intersect(prev, cur))
		}
		prev, prevIn = cur, curIn
	}
	return out
}

func intersectX(a, b geom.Point, x int64) geom.Point {
	if b.X == a.X {
		return geom.Point{X: x, Y: a.Y}
	}
	t := float64(x-a.X) / float64(b.X-a.X)
	return geom.Point{X: x, Y: a.Y + int64(t*float64(b.Y-a.Y))}
}

func intersectY(a, b geom.Point, y int64) geom.Point {
	if b.Y == a.Y {
		return geom.Point{X: a.X, Y: y}
	}
	t := float64(y-a.Y) / float64(b.Y-a.Y)
	return geom.Point{X: a.X + int64(t*float64(b.X-a.X)), Y: y}
}
