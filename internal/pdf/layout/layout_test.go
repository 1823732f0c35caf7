package layout

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/annotation"
)

const advance = 0.6

// run lays out s as fixed-pitch glyphs starting at x on the given baseline.
func run(s string, x, baseline, size float64) []Glyph {
	var out []Glyph
	for _, r := range s {
		w := advance * size
		out = append(out, Glyph{
			Text:     string(r),
			Box:      r2.RectFromPoints(r2.Point{X: x, Y: baseline - 0.2*size}, r2.Point{X: x + w, Y: baseline + 0.8*size}),
			Baseline: baseline,
			Size:     size,
		})
		x += w
	}
	return out
}

func letterPage(columns int) annotation.Page {
	return annotation.Page{
		MediaBox: r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: 600, Y: 800}),
		Columns:  columns,
	}
}

func lineTexts(idx *Index) []string {
	out := make([]string, len(idx.Lines))
	for i, l := range idx.Lines {
		out[i] = l.Text()
	}
	return out
}

func concat(runs ...[]Glyph) []Glyph {
	var out []Glyph
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

func TestBuild_SingleColumnOrder(t *testing.T) {
	glyphs := concat(
		run("Second line", 72, 686, 10),
		run("Hello world", 72, 700, 10),
		run("Third", 72, 672, 10),
	)

	idx := Build(glyphs, letterPage(1), DefaultOptions())
	assert.Equal(t, []string{"Hello world", "Second line", "Third"}, lineTexts(idx))
	assert.Equal(t, "Hello world\nSecond line\nThird", idx.Text())
}

func TestBuild_TwoColumns(t *testing.T) {
	glyphs := concat(
		run("Left one", 50, 700, 10),
		run("Right one", 320, 700, 10),
		run("Left two", 50, 688, 10),
		run("Right two", 320, 688, 10),
	)

	idx := Build(glyphs, letterPage(2), DefaultOptions())
	assert.Equal(t, []string{"Left one", "Left two", "Right one", "Right two"}, lineTexts(idx))
	assert.Equal(t, 0, idx.Lines[0].Column)
	assert.Equal(t, 1, idx.Lines[2].Column)
}

func TestBuild_NonPositiveColumnsBehaveAsOne(t *testing.T) {
	glyphs := concat(
		run("Left one", 50, 700, 10),
		run("Right one", 320, 700, 10),
		run("Left two", 50, 688, 10),
	)

	want := []string{"Left one", "Right one", "Left two"}
	for _, cols := range []int{0, -1, 1} {
		idx := Build(glyphs, letterPage(cols), DefaultOptions())
		assert.Equal(t, want, lineTexts(idx), "columns=%d", cols)
	}
}

func TestBuild_ColumnBoundarySplitsNarrowGutter(t *testing.T) {
	// The gutter is narrower than LineSplitGap but crosses the page middle.
	glyphs := concat(
		run("aaaa", 270, 700, 10),
		run("bbbb", 310, 700, 10),
	)

	two := Build(glyphs, letterPage(2), DefaultOptions())
	assert.Equal(t, []string{"aaaa", "bbbb"}, lineTexts(two))

	one := Build(glyphs, letterPage(1), DefaultOptions())
	assert.Equal(t, []string{"aaaa bbbb"}, lineTexts(one))
}

func TestBuild_VirtualSpaces(t *testing.T) {
	tight := concat(run("ab", 100, 700, 10), run("cd", 112, 700, 10))
	idx := Build(tight, letterPage(1), DefaultOptions())
	assert.Equal(t, []string{"abcd"}, lineTexts(idx))

	gapped := concat(run("ab", 100, 700, 10), run("cd", 117, 700, 10))
	idx = Build(gapped, letterPage(1), DefaultOptions())
	require.Len(t, idx.Lines, 1)
	assert.Equal(t, "ab cd", idx.Lines[0].Text())
	assert.True(t, idx.Lines[0].Items[2].Space)
}

func TestBuild_ExplicitSpacesCollapse(t *testing.T) {
	glyphs := run("  one   two  ", 100, 700, 10)
	idx := Build(glyphs, letterPage(1), DefaultOptions())
	assert.Equal(t, []string{"one two"}, lineTexts(idx))
}

func TestBuild_GlyphCleanup(t *testing.T) {
	glyphs := concat(
		run("ﬁne “quoted” it’s…", 72, 700, 10),
		[]Glyph{{Text: "\n", Baseline: 700, Size: 10}},
		[]Glyph{{Text: "", Baseline: 700, Size: 10}},
	)

	idx := Build(glyphs, letterPage(1), DefaultOptions())
	assert.Equal(t, []string{`fine "quoted" it's...`}, lineTexts(idx))
}

func TestBuild_DuplicateGlyphsDropped(t *testing.T) {
	glyphs := concat(run("Bold", 72, 700, 10), run("Bold", 72.2, 700, 10))
	idx := Build(glyphs, letterPage(1), DefaultOptions())
	assert.Equal(t, []string{"Bold"}, lineTexts(idx))
}

func TestBuild_ParagraphMarks(t *testing.T) {
	glyphs := concat(
		run("first", 72, 700, 10),
		run("second", 72, 688, 10),
		run("third", 72, 650, 10),
		run("fourth", 72, 638, 10),
		run("other", 350, 700, 10),
	)

	idx := Build(glyphs, letterPage(2), DefaultOptions())
	require.Len(t, idx.Lines, 5)

	var starts []bool
	for _, l := range idx.Lines {
		starts = append(starts, l.ParagraphStart)
	}
	assert.Equal(t, []bool{true, false, true, false, true}, starts)
}

func TestBuild_ExplicitParagraphMarker(t *testing.T) {
	marker := Glyph{
		Text:     paragraphSeparator,
		Box:      r2.RectFromPoints(r2.Point{X: 102, Y: 698}, r2.Point{X: 103, Y: 708}),
		Baseline: 700,
		Size:     10,
	}
	glyphs := concat(run("end.", 72, 700, 10), []Glyph{marker}, run("next", 72, 688, 10))

	idx := Build(glyphs, letterPage(1), DefaultOptions())
	require.Len(t, idx.Lines, 2)
	assert.Equal(t, "end.", idx.Lines[0].Text())
	assert.True(t, idx.Lines[1].ParagraphStart)
}

func TestBuild_Empty(t *testing.T) {
	idx := Build(nil, letterPage(1), DefaultOptions())
	assert.Empty(t, idx.Lines)
	assert.Equal(t, "", idx.Text())
}
