// Package correlate recovers the text covered by markup annotations by
// matching their quads against a page's line index.
package correlate

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/golang/geo/r2"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/annotation"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/layout"
)

// Options tunes glyph selection.
type Options struct {
	// MinOverlap is the fraction of a glyph's area a quad must cover for the
	// glyph to be selected.
	MinOverlap float64
}

// DefaultOptions returns the standard half-coverage rule.
func DefaultOptions() Options {
	return Options{MinOverlap: 0.5}
}

// Correlator is safe for concurrent use.
type Correlator struct {
	opts Options
}

func New(opts Options) *Correlator {
	return &Correlator{opts: opts}
}

// Correlate returns the text of idx covered by shape. Notes never cover
// text, and a markup that selects no glyph reports false.
func (c *Correlator) Correlate(idx *layout.Index, shape annotation.Shape) (string, bool) {
	markup, ok := shape.(annotation.Markup)
	if !ok || idx == nil {
		return "", false
	}

	hits := c.selectGlyphs(idx, markup.Regions())
	if len(hits) == 0 {
		return "", false
	}

	lines := make([]int, 0, len(hits))
	for li := range hits {
		lines = append(lines, li)
	}
	sort.Ints(lines)

	var parts []string
	prev := -1
	for _, li := range lines {
		seg := lineText(idx.Lines[li], hits[li])
		if seg == "" {
			continue
		}
		if len(parts) > 0 {
			switch {
			case paragraphBetween(idx, prev, li):
				parts = append(parts, "\n\n")
			case hyphenated(parts[len(parts)-1], seg):
				last := parts[len(parts)-1]
				parts[len(parts)-1] = last[:len(last)-1]
			default:
				parts = append(parts, " ")
			}
		}
		parts = append(parts, seg)
		prev = li
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", false
	}
	return text, true
}

// selectGlyphs maps line positions to per-item selection flags. Quad order
// does not matter: a glyph hit by several quads is selected once.
func (c *Correlator) selectGlyphs(idx *layout.Index, regions []r2.Rect) map[int][]bool {
	hits := make(map[int][]bool)
	for _, region := range regions {
		for li, line := range idx.Lines {
			if !line.Box.Intersects(region) {
				continue
			}
			for gi, item := range line.Items {
				if item.Space || !c.covers(region, item.Box) {
					continue
				}
				if hits[li] == nil {
					hits[li] = make([]bool, len(line.Items))
				}
				hits[li][gi] = true
			}
		}
	}
	return hits
}

// covers applies the overlap rule. Glyphs without area are judged on their
// horizontal extent, and glyphs without width on their center.
func (c *Correlator) covers(region, glyph r2.Rect) bool {
	inter := region.Intersection(glyph)
	if inter.IsEmpty() {
		return false
	}
	area := glyph.X.Length() * glyph.Y.Length()
	if area > 0 {
		return inter.X.Length()*inter.Y.Length() >= c.opts.MinOverlap*area
	}
	if w := glyph.X.Length(); w > 0 {
		return inter.X.Length() >= c.opts.MinOverlap*w
	}
	return region.ContainsPoint(glyph.Center())
}

// lineText renders the selected items of a line. Anything between two
// selected glyphs collapses to a single space.
func lineText(line *layout.Line, marks []bool) string {
	var b strings.Builder
	gap := false
	for i, item := range line.Items {
		if !marks[i] {
			gap = b.Len() > 0
			continue
		}
		if gap {
			b.WriteByte(' ')
			gap = false
		}
		b.WriteString(item.Text)
	}
	return b.String()
}

// paragraphBetween reports whether a paragraph starts after line prev and
// at or before line cur, within the same column.
func paragraphBetween(idx *layout.Index, prev, cur int) bool {
	col := idx.Lines[prev].Column
	for k := prev + 1; k <= cur; k++ {
		l := idx.Lines[k]
		if l.Column != col {
			return false
		}
		if l.ParagraphStart {
			return true
		}
	}
	return false
}

// hyphenated reports whether a line ending in a hyphenated word continues
// with a lowercase letter.
func hyphenated(before, after string) bool {
	if !strings.HasSuffix(before, "-") {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(before[:len(before)-1])
	if !unicode.IsLetter(r) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(after)
	return unicode.IsLower(first)
}
