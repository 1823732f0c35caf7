package correlate

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/annotation"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/layout"
)

func run(s string, x, baseline, size float64) []layout.Glyph {
	var out []layout.Glyph
	for _, r := range s {
		w := 0.6 * size
		out = append(out, layout.Glyph{
			Text:     string(r),
			Box:      box(x, baseline-0.2*size, x+w, baseline+0.8*size),
			Baseline: baseline,
			Size:     size,
		})
		x += w
	}
	return out
}

func box(x0, y0, x1, y1 float64) r2.Rect {
	return r2.RectFromPoints(r2.Point{X: x0, Y: y0}, r2.Point{X: x1, Y: y1})
}

func index(t *testing.T, columns int, runs ...[]layout.Glyph) *layout.Index {
	t.Helper()
	var glyphs []layout.Glyph
	for _, r := range runs {
		glyphs = append(glyphs, r...)
	}
	page := annotation.Page{MediaBox: box(0, 0, 600, 800), Columns: columns}
	return layout.Build(glyphs, page, layout.DefaultOptions())
}

func highlight(t *testing.T, regions ...r2.Rect) annotation.Shape {
	t.Helper()
	quads := make([]annotation.Quad, len(regions))
	for i, r := range regions {
		quads[i] = annotation.QuadFromRect(r)
	}
	m, err := annotation.NewMarkup(annotation.KindHighlight, quads)
	require.NoError(t, err)
	return m
}

func TestCorrelate_SingleWord(t *testing.T) {
	idx := index(t, 1, run("Hello World", 72, 700, 12))

	text, ok := New(DefaultOptions()).Correlate(idx, highlight(t, box(114, 697, 152, 711)))
	require.True(t, ok)
	assert.Equal(t, "World", text)
}

func TestCorrelate_NoOverlap(t *testing.T) {
	idx := index(t, 1, run("Hello World", 72, 700, 12))

	_, ok := New(DefaultOptions()).Correlate(idx, highlight(t, box(300, 300, 400, 320)))
	assert.False(t, ok)
}

func TestCorrelate_NoteNeverCorrelates(t *testing.T) {
	idx := index(t, 1, run("Hello World", 72, 700, 12))

	_, ok := New(DefaultOptions()).Correlate(idx, annotation.Note{Anchor: box(60, 690, 200, 720)})
	assert.False(t, ok)
}

func TestCorrelate_OverlapThreshold(t *testing.T) {
	// A single glyph spanning x 100..106.
	idx := index(t, 1, run("X", 100, 700, 10))
	c := New(DefaultOptions())

	_, ok := c.Correlate(idx, highlight(t, box(100, 690, 102.4, 720)))
	assert.False(t, ok, "40% coverage must not select the glyph")

	text, ok := c.Correlate(idx, highlight(t, box(100, 690, 103, 720)))
	assert.True(t, ok, "exactly half coverage selects the glyph")
	assert.Equal(t, "X", text)
}

func TestCorrelate_QuadOrderIndependent(t *testing.T) {
	idx := index(t, 1,
		run("first line", 72, 700, 10),
		run("second", 72, 688, 10),
	)
	c := New(DefaultOptions())
	line1 := box(70, 696, 140, 710)
	line2 := box(70, 684, 110, 697)

	forward, ok := c.Correlate(idx, highlight(t, line1, line2))
	require.True(t, ok)
	backward, ok := c.Correlate(idx, highlight(t, line2, line1))
	require.True(t, ok)

	assert.Equal(t, "first line second", forward)
	assert.Equal(t, forward, backward)
}

func TestCorrelate_GapInsideLineCollapses(t *testing.T) {
	idx := index(t, 1, run("abcdef", 100, 700, 10))

	text, ok := New(DefaultOptions()).Correlate(idx, highlight(t,
		box(100, 695, 112, 710),
		box(124, 695, 136, 710),
	))
	require.True(t, ok)
	assert.Equal(t, "ab ef", text)
}

func TestCorrelate_HyphenatedLineJoin(t *testing.T) {
	idx := index(t, 1,
		run("exam-", 72, 700, 10),
		run("ple text", 72, 688, 10),
	)
	text, ok := New(DefaultOptions()).Correlate(idx, highlight(t,
		box(70, 696, 110, 710),
		box(70, 684, 130, 697),
	))
	require.True(t, ok)
	assert.Equal(t, "example text", text)

	idx = index(t, 1,
		run("Foo-", 72, 700, 10),
		run("Bar", 72, 688, 10),
	)
	text, ok = New(DefaultOptions()).Correlate(idx, highlight(t,
		box(70, 696, 110, 710),
		box(70, 684, 130, 697),
	))
	require.True(t, ok)
	assert.Equal(t, "Foo- Bar", text)
}

func TestCorrelate_ParagraphBreak(t *testing.T) {
	idx := index(t, 1,
		run("alpha", 72, 700, 10),
		run("beta", 72, 650, 10),
	)
	text, ok := New(DefaultOptions()).Correlate(idx, highlight(t,
		box(70, 696, 110, 710),
		box(70, 646, 110, 660),
	))
	require.True(t, ok)
	assert.Equal(t, "alpha\n\nbeta", text)
}

func TestCorrelate_CrossColumn(t *testing.T) {
	idx := index(t, 2,
		run("left top", 50, 700, 10),
		run("left end", 50, 100, 10),
		run("right top", 320, 700, 10),
	)

	// Authored right column first; text still reads left to right.
	text, ok := New(DefaultOptions()).Correlate(idx, highlight(t,
		box(318, 696, 380, 710),
		box(48, 96, 100, 110),
	))
	require.True(t, ok)
	assert.Equal(t, "left end right top", text)
}

// A heading whose midpoint falls in the second column is read after the
// first column's body text, even when it sits above it on the page. This
// only happens with two columns: on a single-column page the heading is
// read first, in plain top-to-bottom order.
func TestCorrelate_HeadingInSecondColumnReadLast(t *testing.T) {
	runs := [][]layout.Glyph{
		run("Heading", 310, 712, 14),
		run("Link to heading that is working with vim-pandoc.", 50, 700, 10),
		run("Link to heading that", 50, 688, 10),
	}
	shape := highlight(t,
		box(305, 707, 375, 726),
		box(45, 696, 345, 709),
		box(45, 685, 175, 697),
	)

	text, ok := New(DefaultOptions()).Correlate(index(t, 2, runs...), shape)
	require.True(t, ok)
	assert.Equal(t, "Link to heading that is working with vim-pandoc. Link to heading that Heading", text)

	text, ok = New(DefaultOptions()).Correlate(index(t, 1, runs...), shape)
	require.True(t, ok)
	assert.Equal(t, "Heading Link to heading that is working with vim-pandoc. Link to heading that", text)
}
