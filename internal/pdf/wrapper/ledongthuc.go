package wrapper

import (
	"fmt"
	"io"
	"math"

	"github.com/ledongthuc/pdf"
)

const (
	// defaultFontSize is used when a text run reports no usable size.
	defaultFontSize = 10.0
	// descent and ascent place the glyph box around the baseline, as
	// fractions of the font size.
	descent = 0.2
	ascent  = 0.8
	// estimatedAdvance approximates glyph width for fonts without metrics.
	estimatedAdvance = 0.5
	// maxInheritDepth bounds the walk up the page tree.
	maxInheritDepth = 64
)

// US Letter, used when a page declares no media box.
var defaultMediaBox = NewRectangle(0, 0, 612, 792)

// LedongthucDocument interprets page content streams with ledongthuc/pdf to
// obtain positioned glyphs.
type LedongthucDocument struct {
	reader *pdf.Reader
	config FactoryConfig
	closed bool
}

// OpenLedongthuc opens the document held by ra. The configured password is
// offered once if the document is encrypted.
func OpenLedongthuc(ra io.ReaderAt, size int64, config FactoryConfig) (*LedongthucDocument, error) {
	offered := false
	password := func() string {
		if offered {
			return ""
		}
		offered = true
		return config.Password
	}

	reader, err := pdf.NewReaderEncrypted(ra, size, password)
	if err != nil {
		if err == pdf.ErrInvalidPassword {
			return nil, ErrPasswordRequired
		}
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	return &LedongthucDocument{reader: reader, config: config}, nil
}

// PageCount returns the number of pages
func (d *LedongthucDocument) PageCount() int {
	if d.closed {
		return 0
	}
	return d.reader.NumPage()
}

func (d *LedongthucDocument) page(index int) (pdf.Page, error) {
	if d.closed {
		return pdf.Page{}, ErrDocumentClosed
	}
	if index < 0 || index >= d.reader.NumPage() {
		return pdf.Page{}, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "page",
			Err:     fmt.Errorf("invalid page index %d (document has %d pages)", index, d.reader.NumPage()),
		}
	}
	page := d.reader.Page(index + 1)
	if page.V.IsNull() {
		return pdf.Page{}, ErrInvalidPage
	}
	return page, nil
}

// PageText returns the glyphs of a page in content stream order. The
// interpreter panics on malformed streams; that is reported as an error.
func (d *LedongthucDocument) PageText(index int) (elements []TextElement, err error) {
	page, err := d.page(index)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			elements = nil
			err = &WrapperError{
				Library: LibraryLedongthuc,
				Op:      "page_text",
				Err:     fmt.Errorf("content stream of page %d could not be interpreted: %v", index, r),
			}
		}
	}()

	content := page.Content()
	elements = make([]TextElement, 0, len(content.Text))
	for _, t := range content.Text {
		elements = append(elements, textElement(t))
	}
	return elements, nil
}

func textElement(t pdf.Text) TextElement {
	size := math.Abs(t.FontSize)
	if size == 0 || math.IsNaN(size) {
		size = defaultFontSize
	}
	// Fonts without a /Widths array report zero advance.
	width := t.W
	if width <= 0 && t.S != " " {
		width = estimatedAdvance * size
	}
	bottom := t.Y - descent*size

	return TextElement{
		Text:     t.S,
		Position: NewRectangle(t.X, bottom, t.X+width, bottom+(descent+ascent)*size),
		Baseline: t.Y,
		Font:     FontInfo{Name: t.Font, Size: size},
	}
}

// MediaBox returns the page's media box, following inheritance through the
// page tree.
func (d *LedongthucDocument) MediaBox(index int) (Rectangle, error) {
	page, err := d.page(index)
	if err != nil {
		return Rectangle{}, err
	}

	v := page.V
	for depth := 0; !v.IsNull() && depth < maxInheritDepth; depth++ {
		box := v.Key("MediaBox")
		if box.Kind() != pdf.Array || box.Len() != 4 {
			v = v.Key("Parent")
			continue
		}
		return NewRectangle(
			box.Index(0).Float64(), box.Index(1).Float64(),
			box.Index(2).Float64(), box.Index(3).Float64(),
		), nil
	}
	return defaultMediaBox, nil
}

// Close releases the reader
func (d *LedongthucDocument) Close() error {
	d.closed = true
	return nil
}
