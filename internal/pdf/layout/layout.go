// Package layout groups the positioned glyphs of a page into reading-order
// lines. The resulting Index is what annotation quads are matched against.
package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/annotation"
)

// Options holds the tuning constants of the indexer. All distances are
// expressed as multiples of the font size.
type Options struct {
	// BaselineTolerance is how far two baselines may differ and still share a row.
	BaselineTolerance float64
	// LineSplitGap is the horizontal gap that splits a row into separate lines.
	LineSplitGap float64
	// WordGap is the gap, relative to the larger dimension of the next glyph,
	// above which a virtual space is inserted.
	WordGap float64
	// ParagraphGap is the baseline distance that starts a new paragraph.
	ParagraphGap float64
}

// DefaultOptions returns the constants calibrated against typical
// single and two-column academic papers.
func DefaultOptions() Options {
	return Options{
		BaselineTolerance: 0.4,
		LineSplitGap:      2.0,
		WordGap:           0.1,
		ParagraphGap:      2.0,
	}
}

// paragraphSeparator is an explicit paragraph marker some producers emit.
const paragraphSeparator = "\u2029"

// Glyph is a positioned piece of text as produced by the content stream
// interpreter.
type Glyph struct {
	Text     string
	Box      r2.Rect
	Baseline float64
	Size     float64
}

// Item is one entry of a line: a glyph or a word separator.
type Item struct {
	Text  string
	Box   r2.Rect
	Space bool
}

// Line is a horizontal run of items in one column.
type Line struct {
	Items    []Item
	Box      r2.Rect
	Baseline float64
	Size     float64
	Column   int

	// ParagraphStart marks the first line of a paragraph within its column.
	ParagraphStart bool

	breakAfter bool
}

// Text renders the line with its separators.
func (l *Line) Text() string {
	var b strings.Builder
	for _, it := range l.Items {
		b.WriteString(it.Text)
	}
	return b.String()
}

// Index is the reading-order line list of one page. It is immutable once
// built and may be shared between goroutines.
type Index struct {
	Page  annotation.Page
	Lines []*Line
}

// Text renders the whole page, one line per row.
func (idx *Index) Text() string {
	lines := make([]string, len(idx.Lines))
	for i, l := range idx.Lines {
		lines[i] = l.Text()
	}
	return strings.Join(lines, "\n")
}

var quotes = strings.NewReplacer(
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", "\"",
	"\u201d", "\"",
)

// clean normalizes the text of a glyph. Control characters are removed and
// ligatures and the ellipsis are expanded.
func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)

	if strings.ContainsFunc(s, needsFolding) {
		var b strings.Builder
		for _, r := range s {
			if needsFolding(r) {
				b.WriteString(norm.NFKC.String(string(r)))
				continue
			}
			b.WriteRune(r)
		}
		s = b.String()
	}
	return quotes.Replace(s)
}

func needsFolding(r rune) bool {
	return (r >= '\uFB00' && r <= '\uFB06') || r == '\u2026'
}

type glyph struct {
	Glyph
	space  bool
	marker bool
}

func (g glyph) width() float64 { return g.Box.X.Length() }

// Build indexes the glyphs of a page.
func Build(glyphs []Glyph, page annotation.Page, opts Options) *Index {
	prepared := prepare(glyphs)

	var lines []*Line
	for _, row := range rows(prepared, opts) {
		for _, seg := range split(row, page, opts) {
			if line := newLine(seg, page, opts); line != nil {
				lines = append(lines, line)
			}
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.Baseline != b.Baseline {
			return a.Baseline > b.Baseline
		}
		return a.Box.X.Lo < b.Box.X.Lo
	})

	markParagraphs(lines, opts)
	return &Index{Page: page, Lines: lines}
}

func prepare(glyphs []Glyph) []glyph {
	out := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.Text == paragraphSeparator {
			out = append(out, glyph{Glyph: g, marker: true})
			continue
		}
		text := clean(g.Text)
		if text == "" {
			continue
		}
		if g.Size <= 0 {
			g.Size = math.Max(g.Box.Y.Length(), 1)
		}
		g.Text = text
		out = append(out, glyph{Glyph: g, space: strings.TrimSpace(text) == ""})
	}
	return out
}

// rows clusters glyphs whose baselines lie within the tolerance of the
// first glyph of the row.
func rows(glyphs []glyph, opts Options) [][]glyph {
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Baseline > sorted[j].Baseline
	})

	var out [][]glyph
	var cur []glyph
	for _, g := range sorted {
		if len(cur) > 0 {
			tol := opts.BaselineTolerance * math.Max(cur[0].Size, g.Size)
			if math.Abs(cur[0].Baseline-g.Baseline) > tol {
				out = append(out, cur)
				cur = nil
			}
		}
		cur = append(cur, g)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}

	for _, row := range out {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].Box.X.Lo < row[j].Box.X.Lo
		})
	}
	return out
}

// split cuts a row into segments at wide gaps and at column boundaries.
// Separators never decide a split; they follow the glyph before them.
func split(row []glyph, page annotation.Page, opts Options) [][]glyph {
	var out [][]glyph
	var cur []glyph
	var prev *glyph
	for i := range row {
		g := row[i]
		if g.space || g.marker {
			cur = append(cur, g)
			continue
		}
		if prev != nil {
			if duplicate(*prev, g) {
				continue
			}
			if splitBetween(*prev, g, page, opts) {
				out = append(out, cur)
				cur = nil
			}
		}
		cur = append(cur, g)
		prev = &row[i]
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// duplicate detects glyphs painted twice at the same spot, a common way of
// faking bold text.
func duplicate(a, b glyph) bool {
	return a.Text == b.Text && math.Abs(a.Box.X.Lo-b.Box.X.Lo) < 0.1*b.Size
}

func splitBetween(a, b glyph, page annotation.Page, opts Options) bool {
	gap := b.Box.X.Lo - a.Box.X.Hi
	size := math.Max(a.Size, b.Size)
	if gap > opts.LineSplitGap*size {
		return true
	}
	if page.ColumnCount() > 1 && gap > opts.WordGap*size {
		return page.Column(a.Box.Center().X) != page.Column(b.Box.Center().X)
	}
	return false
}

func newLine(seg []glyph, page annotation.Page, opts Options) *Line {
	// Separators at the edges of a segment carry no information.
	for len(seg) > 0 && seg[0].space {
		seg = seg[1:]
	}
	for len(seg) > 0 && seg[len(seg)-1].space {
		seg = seg[:len(seg)-1]
	}

	line := &Line{Box: r2.EmptyRect()}
	var prev *glyph
	pendingSpace := false
	for i := range seg {
		g := seg[i]
		switch {
		case g.marker:
			line.breakAfter = true
			continue
		case g.space:
			pendingSpace = true
			continue
		}

		if prev != nil {
			gap := g.Box.X.Lo - prev.Box.X.Hi
			virtual := gap > opts.WordGap*math.Max(g.width(), g.Box.Y.Length())
			if pendingSpace || virtual {
				line.Items = append(line.Items, Item{
					Text:  " ",
					Box:   spaceBox(*prev, g),
					Space: true,
				})
			}
		}
		pendingSpace = false

		line.Items = append(line.Items, Item{Text: g.Text, Box: g.Box})
		line.Box = line.Box.Union(g.Box)
		if g.Size > line.Size {
			line.Size = g.Size
			line.Baseline = g.Baseline
		}
		prev = &seg[i]
	}

	if len(line.Items) == 0 {
		return nil
	}
	line.Column = page.Column(line.Box.Center().X)
	return line
}

// spaceBox spans the gap between two glyphs over their common height.
func spaceBox(a, b glyph) r2.Rect {
	lo, hi := a.Box.X.Hi, b.Box.X.Lo
	if hi < lo {
		lo, hi = hi, lo
	}
	y := a.Box.Union(b.Box).Y
	return r2.Rect{X: r1.Interval{Lo: lo, Hi: hi}, Y: y}
}

// markParagraphs flags the first line of each paragraph. The first line of
// a column always starts one, as does the line after an explicit marker or
// a vertical gap wider than ParagraphGap.
func markParagraphs(lines []*Line, opts Options) {
	for i, line := range lines {
		if i == 0 || lines[i-1].Column != line.Column {
			line.ParagraphStart = true
			continue
		}
		prev := lines[i-1]
		pitch := prev.Baseline - line.Baseline
		if prev.breakAfter || pitch > opts.ParagraphGap*math.Max(prev.Size, line.Size) {
			line.ParagraphStart = true
		}
	}
}
