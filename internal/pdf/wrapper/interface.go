package wrapper

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Document is the view of a PDF the extraction engine works against. Page
// indexes are zero-based.
type Document interface {
	PageCount() int
	Page(index int) (*PageContent, error)
	Bookmarks() ([]*Bookmark, error)
	ResolveDestination(dest Destination) (int, bool)
	Close() error
}

// StructureSource provides the object-level view of a document: pages,
// annotation dictionaries and the outline.
type StructureSource interface {
	PageCount() int
	Annotations(index int) ([]AnnotationElement, error)
	Bookmarks() ([]*Bookmark, error)
	ResolveDestination(dest Destination) (int, bool)
	Close() error
}

// TextSource provides the interpreted content of pages.
type TextSource interface {
	PageText(index int) ([]TextElement, error)
	MediaBox(index int) (Rectangle, error)
	Close() error
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
	LibraryHybrid     LibraryType = "hybrid"
)

// Point represents a coordinate point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rectangle represents a rectangular area
type Rectangle struct {
	LowerLeft  Point   `json:"lower_left"`
	UpperRight Point   `json:"upper_right"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// NewRectangle normalizes two opposite corners into a Rectangle.
func NewRectangle(x0, y0, x1, y1 float64) Rectangle {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rectangle{
		LowerLeft:  Point{X: x0, Y: y0},
		UpperRight: Point{X: x1, Y: y1},
		Width:      x1 - x0,
		Height:     y1 - y0,
	}
}

// R2 converts the rectangle for geometric computations.
func (r Rectangle) R2() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.LowerLeft.X, Y: r.LowerLeft.Y},
		r2.Point{X: r.UpperRight.X, Y: r.UpperRight.Y},
	)
}

// FontInfo represents font information
type FontInfo struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// TextElement is one glyph with its position. Baseline is the y coordinate
// the glyph sits on.
type TextElement struct {
	Text     string    `json:"text"`
	Position Rectangle `json:"position"`
	Baseline float64   `json:"baseline"`
	Font     FontInfo  `json:"font"`
}

// AnnotationElement holds the raw entries of an annotation dictionary.
type AnnotationElement struct {
	Subtype      string    `json:"subtype"`
	Position     Rectangle `json:"position"`
	QuadPoints   []float64 `json:"quad_points,omitempty"`
	Contents     string    `json:"contents,omitempty"`
	Author       string    `json:"author,omitempty"`
	CreationDate string    `json:"creation_date,omitempty"`
	ModDate      string    `json:"modification_date,omitempty"`
}

// PageContent is everything the engine needs from one page.
type PageContent struct {
	Index       int                 `json:"index"`
	MediaBox    Rectangle           `json:"media_box"`
	Annotations []AnnotationElement `json:"annotations,omitempty"`
	Text        []TextElement       `json:"text,omitempty"`
}

// DestinationKind tells how a destination names its target page.
type DestinationKind int

const (
	DestinationNone DestinationKind = iota
	// DestinationPageRef targets a page object by object number.
	DestinationPageRef
	// DestinationPageIndex targets a zero-based page index.
	DestinationPageIndex
	// DestinationNamed is resolved through the document's name tables.
	DestinationNamed
)

// Destination is an unresolved outline target.
type Destination struct {
	Kind         DestinationKind `json:"kind"`
	ObjectNumber int             `json:"object_number,omitempty"`
	PageIndex    int             `json:"page_index,omitempty"`
	Name         string          `json:"name,omitempty"`
}

// Bookmark is a node of the document's native outline.
type Bookmark struct {
	Title    string      `json:"title"`
	Dest     Destination `json:"destination"`
	Children []*Bookmark `json:"children,omitempty"`
}

// Error types for wrapper operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrDocumentClosed   = &WrapperError{Op: "document", Err: fmt.Errorf("document is closed")}
	ErrInvalidPage      = &WrapperError{Op: "page", Err: fmt.Errorf("invalid page number")}
	ErrPasswordRequired = &WrapperError{Op: "security", Err: fmt.Errorf("password required")}

	// ErrUnsupportedEncryption marks encrypted documents whose structure can
	// be decrypted but whose content streams cannot, such as AES-256 files.
	ErrUnsupportedEncryption = &WrapperError{Op: "security", Err: fmt.Errorf("encryption scheme not supported for text extraction")}
)
