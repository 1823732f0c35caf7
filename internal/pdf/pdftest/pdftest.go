// Package pdftest writes small, well-formed PDF files for tests. Pages use a
// fixed-pitch Courier font (600/1000 em advance) so glyph positions are easy
// to predict.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
)

// NoPage marks an outline entry without a destination.
const NoPage = -1

// Advance is the glyph advance of the test font as a fraction of font size.
const Advance = 0.6

// Annot is an annotation dictionary.
type Annot struct {
	Subtype    string
	Rect       [4]float64
	QuadPoints []float64
	Contents   string
	Author     string
	Created    string
}

// Page is one page. Width and Height default to US Letter.
type Page struct {
	Width, Height float64
	Content       string
	Annots        []Annot
}

// Bookmark is an outline entry. Page is a zero-based page index or NoPage;
// Named, when set, targets a named destination instead.
type Bookmark struct {
	Title    string
	Page     int
	Named    string
	Children []Bookmark
}

// Doc describes a whole document.
type Doc struct {
	Pages   []Page
	Outline []Bookmark
	// NamedDests maps destination names to zero-based page indexes.
	NamedDests map[string]int
}

// Text returns a content stream fragment showing s at (x, y).
func Text(x, y, size float64, s string) string {
	return fmt.Sprintf("BT /F1 %g Tf %g %g Td %s Tj ET\n", size, x, y, Literal(s))
}

// Literal encodes s as a PDF string, using UTF-16BE for non-ASCII text.
func Literal(s string) string {
	for _, r := range s {
		if r > 0x7e {
			var b strings.Builder
			b.WriteString("<FEFF")
			for _, u := range utf16.Encode([]rune(s)) {
				fmt.Fprintf(&b, "%04X", u)
			}
			b.WriteString(">")
			return b.String()
		}
	}
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

// Writer accumulates numbered objects.
type Writer struct {
	objects []string
}

// Reserve allocates an object number to be filled with Set.
func (w *Writer) Reserve() int {
	w.objects = append(w.objects, "null")
	return len(w.objects)
}

// Set stores the body of a reserved object.
func (w *Writer) Set(num int, body string) {
	w.objects[num-1] = body
}

// Add appends an object and returns its number.
func (w *Writer) Add(body string) int {
	num := w.Reserve()
	w.Set(num, body)
	return num
}

// Stream appends an unfiltered stream object.
func (w *Writer) Stream(data string) int {
	return w.Add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data))
}

// Bytes serializes the objects with a cross-reference table.
func (w *Writer) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(w.objects))
	for i, body := range w.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(w.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(w.objects)+1, root, xref)
	return buf.Bytes()
}

func ref(num int) string { return fmt.Sprintf("%d 0 R", num) }

func numbers(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

const courier = "<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding" +
	" /FirstChar 32 /LastChar 126 /Widths %s >>"

// Build serializes doc.
func Build(doc Doc) []byte {
	w := &Writer{}
	catalog := w.Reserve()
	pages := w.Reserve()

	widths := make([]float64, 126-32+1)
	for i := range widths {
		widths[i] = Advance * 1000
	}
	font := w.Add(fmt.Sprintf(courier, numbers(widths)))

	pageRefs := make([]int, len(doc.Pages))
	for i := range doc.Pages {
		pageRefs[i] = w.Reserve()
	}

	for i, p := range doc.Pages {
		width, height := p.Width, p.Height
		if width == 0 {
			width = 612
		}
		if height == 0 {
			height = 792
		}
		content := w.Stream(p.Content)

		var annots []string
		for _, a := range p.Annots {
			annots = append(annots, ref(w.Add(a.dict(pageRefs[i]))))
		}
		annotsEntry := ""
		if len(annots) > 0 {
			annotsEntry = " /Annots [" + strings.Join(annots, " ") + "]"
		}

		w.Set(pageRefs[i], fmt.Sprintf(
			"<< /Type /Page /Parent %s /MediaBox [0 0 %g %g] /Resources << /Font << /F1 %s >> >> /Contents %s%s >>",
			ref(pages), width, height, ref(font), ref(content), annotsEntry))
	}

	kids := make([]string, len(pageRefs))
	for i, r := range pageRefs {
		kids[i] = ref(r)
	}
	w.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))

	var cat strings.Builder
	fmt.Fprintf(&cat, "<< /Type /Catalog /Pages %s", ref(pages))
	if len(doc.Outline) > 0 {
		outlines := w.Reserve()
		first, last := w.outline(doc.Outline, outlines, pageRefs)
		w.Set(outlines, fmt.Sprintf("<< /Type /Outlines /First %s /Last %s /Count %d >>",
			ref(first), ref(last), len(doc.Outline)))
		fmt.Fprintf(&cat, " /Outlines %s", ref(outlines))
	}
	if len(doc.NamedDests) > 0 {
		names := make([]string, 0, len(doc.NamedDests))
		for name := range doc.NamedDests {
			names = append(names, name)
		}
		sort.Strings(names)
		cat.WriteString(" /Dests <<")
		for _, name := range names {
			fmt.Fprintf(&cat, " /%s [%s /Fit]", name, ref(pageRefs[doc.NamedDests[name]]))
		}
		cat.WriteString(" >>")
	}
	cat.WriteString(" >>")
	w.Set(catalog, cat.String())

	return w.Bytes(catalog)
}

func (w *Writer) outline(items []Bookmark, parent int, pageRefs []int) (first, last int) {
	ids := make([]int, len(items))
	for i := range items {
		ids[i] = w.Reserve()
	}
	for i, it := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "<< /Title %s /Parent %s", Literal(it.Title), ref(parent))
		if i > 0 {
			fmt.Fprintf(&b, " /Prev %s", ref(ids[i-1]))
		}
		if i < len(items)-1 {
			fmt.Fprintf(&b, " /Next %s", ref(ids[i+1]))
		}
		if len(it.Children) > 0 {
			f, l := w.outline(it.Children, ids[i], pageRefs)
			fmt.Fprintf(&b, " /First %s /Last %s /Count %d", ref(f), ref(l), len(it.Children))
		}
		switch {
		case it.Named != "":
			fmt.Fprintf(&b, " /Dest /%s", it.Named)
		case it.Page >= 0 && it.Page < len(pageRefs):
			fmt.Fprintf(&b, " /Dest [%s /XYZ null null null]", ref(pageRefs[it.Page]))
		}
		b.WriteString(" >>")
		w.Set(ids[i], b.String())
	}
	return ids[0], ids[len(ids)-1]
}

func (a Annot) dict(page int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /Annot /Subtype /%s /Rect %s /P %s", a.Subtype, numbers(a.Rect[:]), ref(page))
	if len(a.QuadPoints) > 0 {
		fmt.Fprintf(&b, " /QuadPoints %s", numbers(a.QuadPoints))
	}
	if a.Contents != "" {
		fmt.Fprintf(&b, " /Contents %s", Literal(a.Contents))
	}
	if a.Author != "" {
		fmt.Fprintf(&b, " /T %s", Literal(a.Author))
	}
	if a.Created != "" {
		fmt.Fprintf(&b, " /CreationDate %s", Literal(a.Created))
	}
	b.WriteString(" >>")
	return b.String()
}

// Quad returns /QuadPoints coordinates for an axis-aligned rectangle in the
// usual upper-left, upper-right, lower-left, lower-right order.
func Quad(x0, y0, x1, y1 float64) []float64 {
	return []float64{x0, y1, x1, y1, x0, y0, x1, y0}
}

// TextBox returns the rectangle covering n glyphs of the test font shown at
// (x, baseline), with a little slack around it.
func TextBox(x, baseline, size float64, n int) (x0, y0, x1, y1 float64) {
	return x - 0.5, baseline - 0.3*size, x + float64(n)*Advance*size + 0.5, baseline + size
}
