// Package annotation holds the document model produced by the extraction
// engine: pages, annotation records and their geometric shapes.
package annotation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/golang/geo/r2"
)

// Kind identifies the annotation subtypes the engine understands.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindHighlight
	KindUnderline
	KindStrikeOut
	KindSquiggly
	KindText
)

var kindNames = map[Kind]string{
	KindHighlight: "Highlight",
	KindUnderline: "Underline",
	KindStrikeOut: "StrikeOut",
	KindSquiggly:  "Squiggly",
	KindText:      "Text",
}

// ParseKind maps a PDF /Subtype name to a Kind. Unsupported subtypes
// (Link, Popup, Widget and friends) report false.
func ParseKind(subtype string) (Kind, bool) {
	for k, name := range kindNames {
		if name == subtype {
			return k, true
		}
	}
	return KindUnknown, false
}

// Kinds lists the supported kinds, markup first.
func Kinds() []Kind {
	return []Kind{KindHighlight, KindUnderline, KindStrikeOut, KindSquiggly, KindText}
}

// String returns the PDF subtype name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// MarshalText lets Kind render as its subtype name in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsMarkup reports whether annotations of this kind cover document text.
func (k Kind) IsMarkup() bool {
	switch k {
	case KindHighlight, KindUnderline, KindStrikeOut, KindSquiggly:
		return true
	default:
		return false
	}
}

// Quad is one quadrilateral of a markup annotation, in page space. The
// points are not required to be axis-aligned.
type Quad struct {
	Points [4]r2.Point
}

// Bounds returns the axis-aligned bounding box of the quad.
func (q Quad) Bounds() r2.Rect {
	return r2.RectFromPoints(q.Points[:]...)
}

// QuadFromRect builds a quad covering an axis-aligned rectangle.
func QuadFromRect(r r2.Rect) Quad {
	return Quad{Points: [4]r2.Point{
		{X: r.X.Lo, Y: r.Y.Hi},
		{X: r.X.Hi, Y: r.Y.Hi},
		{X: r.X.Lo, Y: r.Y.Lo},
		{X: r.X.Hi, Y: r.Y.Lo},
	}}
}

// QuadsFromPoints groups a flat /QuadPoints array into quads of eight
// coordinates. A trailing partial group and groups containing NaN or
// infinite values are dropped.
func QuadsFromPoints(coords []float64) []Quad {
	var quads []Quad
	for i := 0; i+8 <= len(coords); i += 8 {
		var q Quad
		valid := true
		for j := 0; j < 4; j++ {
			x, y := coords[i+2*j], coords[i+2*j+1]
			if !finite(x) || !finite(y) {
				valid = false
				break
			}
			q.Points[j] = r2.Point{X: x, Y: y}
		}
		if valid {
			quads = append(quads, q)
		}
	}
	return quads
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Shape is the geometry of an annotation. It is implemented only by Markup
// and Note.
type Shape interface {
	Kind() Kind
	// Regions lists the page areas the shape occupies, in the order they
	// were authored.
	Regions() []r2.Rect
	shape()
}

// Markup is the shape of a text-covering annotation. It always has at least
// one quad.
type Markup struct {
	kind  Kind
	Quads []Quad
}

// NewMarkup validates kind and quads and returns a Markup shape.
func NewMarkup(kind Kind, quads []Quad) (Markup, error) {
	if !kind.IsMarkup() {
		return Markup{}, fmt.Errorf("%s is not a markup kind", kind)
	}
	if len(quads) == 0 {
		return Markup{}, fmt.Errorf("%s annotation has no quads", kind)
	}
	return Markup{kind: kind, Quads: quads}, nil
}

func (m Markup) Kind() Kind { return m.kind }

func (m Markup) Regions() []r2.Rect {
	out := make([]r2.Rect, len(m.Quads))
	for i, q := range m.Quads {
		out[i] = q.Bounds()
	}
	return out
}

func (Markup) shape() {}

// Note is the shape of a Text annotation: a sticky note anchored at a
// rectangle. It never covers text.
type Note struct {
	Anchor r2.Rect
}

func (Note) Kind() Kind { return KindText }

func (n Note) Regions() []r2.Rect { return []r2.Rect{n.Anchor} }

func (Note) shape() {}

// Annotation is one user-authored annotation on a page.
type Annotation struct {
	Page     int
	Shape    Shape
	Contents string
	Author   string
	Created  *time.Time
	Modified *time.Time

	text *string
}

// Kind returns the annotation subtype.
func (a *Annotation) Kind() Kind {
	if a.Shape == nil {
		return KindUnknown
	}
	return a.Shape.Kind()
}

// Text returns the document text covered by the annotation. The second
// result is false when no text was captured, which differs from an empty
// capture.
func (a *Annotation) Text() (string, bool) {
	if a.text == nil {
		return "", false
	}
	return *a.text, true
}

// SetText records the covered text. Empty strings are ignored so that the
// record keeps reporting "no text".
func (a *Annotation) SetText(s string) {
	if s == "" {
		return
	}
	a.text = &s
}

// Page describes the geometry of one page for ordering purposes.
type Page struct {
	Number   int
	MediaBox r2.Rect
	Columns  int
}

// ColumnCount returns the effective number of columns, at least one.
func (p Page) ColumnCount() int {
	if p.Columns < 1 {
		return 1
	}
	return p.Columns
}

// Column returns the zero-based column an x coordinate falls in. Columns are
// equal-width slices of the media box.
func (p Page) Column(x float64) int {
	n := p.ColumnCount()
	width := p.MediaBox.X.Length()
	if n == 1 || width <= 0 {
		return 0
	}
	c := int(math.Floor((x - p.MediaBox.X.Lo) / (width / float64(n))))
	if c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}

// Position is a sortable location on a page.
type Position struct {
	Column int
	X, Y   float64
}

// Before reports whether p sorts ahead of o in reading order: lower column
// first, then higher on the page.
func (p Position) Before(o Position) bool {
	if p.Column != o.Column {
		return p.Column < o.Column
	}
	return p.Y > o.Y
}

// Start returns the point where reading of a shape begins: the top-left
// corner of its earliest region in reading order.
func (p Page) Start(s Shape) Position {
	var best Position
	for i, r := range s.Regions() {
		pos := Position{Column: p.Column(r.X.Lo), X: r.X.Lo, Y: r.Y.Hi}
		if i == 0 || pos.Before(best) || (!best.Before(pos) && pos.X < best.X) {
			best = pos
		}
	}
	return best
}

// Sort orders annotations of one page by the position of their start point.
// Annotations that compare equal keep their relative order.
func (p Page) Sort(annots []*Annotation) {
	starts := make(map[*Annotation]Position, len(annots))
	for _, a := range annots {
		starts[a] = p.Start(a.Shape)
	}
	sort.SliceStable(annots, func(i, j int) bool {
		return starts[annots[i]].Before(starts[annots[j]])
	})
}
