package receivers

import (
	"strconv"
	"strings"

	"github.com/JiancunWang/klayout/internal/dsslayout"
	"github.com/JiancunWang/klayout/internal/hierbuild"
	"github.com/JiancunWang/klayout/pkg/dsscollections"
	"github.com/JiancunWang/klayout/pkg/geom"
)

// PolygonRefInterning is the terminal stage for polygon layers: it converts
// whatever survives upstream (polygon, box, path; text, if enabled) into a
// polygon and delivers it into the working layout's current cell, deduping
// identical polygon+property pairs within a cell so repeated pushes of the
// same fragment do not bloat the working layout (spec section 4.1).
//
// A text shape is dropped when textEnlargement < 0; otherwise it becomes a
// box of side 2*textEnlargement+1 centered on the text's anchor, optionally
// carrying its original string as a named property when textPropertyName is
// non-empty.
type PolygonRefInterning struct {
	builder          *hierbuild.Builder
	textEnlargement  int64
	textPropertyName string

	pool        *dsscollections.MapPool[string, struct{}]
	currentCell dsslayout.CellIndex
	seen        map[string]struct{}
}

// NewPolygonRefInterning creates a PolygonRefInterning stage bound to b's
// target layout and currently installed target layer.
func NewPolygonRefInterning(b *hierbuild.Builder, textEnlargement int64, textPropertyName string) *PolygonRefInterning {
	return &PolygonRefInterning{
		builder:          b,
		textEnlargement:  textEnlargement,
		textPropertyName: textPropertyName,
		pool:             dsscollections.NewMapPool[string, struct{}](64),
	}
}

func (p *PolygonRefInterning) BeginCell(cell dsslayout.CellIndex) {
	p.currentCell = cell
	p.seen = p.pool.Get()
}

func (p *PolygonRefInterning) EndCell(dsslayout.CellIndex) {
	p.pool.Put(p.seen)
	p.seen = nil
}

func (p *PolygonRefInterning) NewLayerInserted(dsslayout.LayerID) {}

func (p *PolygonRefInterning) Push(s geom.Shape, trans geom.Transform) {
	transformed := s.Transformed(trans)

	if transformed.Kind == geom.KindText {
		p.pushText(transformed)
		return
	}

	poly, ok := transformed.AsPolygon(0)
	if !ok {
		return
	}
	p.insert(poly, transformed.PropID)
}

func (p *PolygonRefInterning) pushText(s geom.Shape) {
	if p.textEnlargement < 0 {
		return
	}
	enl := p.textEnlargement
	anchor := s.Txt.Anchor
	box := geom.NewBox(
		geom.Point{X: anchor.X - enl, Y: anchor.Y - enl},
		geom.Point{X: anchor.X + enl + 1, Y: anchor.Y + enl + 1},
	)

	var propID uint64
	if p.textPropertyName != "" {
		repo := p.builder.Target().PropertiesRepository()
		propID = repo.PutNamedValue(repo.NameID(p.textPropertyName), s.Txt.String)
	}
	p.insert(box.AsPolygon(), propID)
}

func (p *PolygonRefInterning) insert(poly geom.Polygon, propID uint64) {
	key := polyKey(poly, propID)
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.builder.Target().InsertShape(p.currentCell, p.builder.TargetLayer(), geom.Shape{
		Kind: geom.KindPolygon, Poly: poly, PropID: propID,
	})
}

func polyKey(p geom.Polygon, propID uint64) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(propID, 10))
	for _, pt := range p.Points {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(pt.X, 10))
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(pt.Y, 10))
	}
	return b.String()
}
