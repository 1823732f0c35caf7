package wrapper

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

// PDFLibraryFactory opens documents by combining the libraries that are
// best at each part of the job.
type PDFLibraryFactory struct {
	config FactoryConfig
}

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// MaxFileSize limits the size of documents that are read into memory (in bytes)
	MaxFileSize int64 `json:"max_file_size"`

	// Password is offered to encrypted documents
	Password string `json:"-"`

	// DebugMode enables debug logging for library operations
	DebugMode bool `json:"debug_mode"`

	// Logger receives debug output; nil discards it
	Logger *log.Logger `json:"-"`
}

// NewPDFLibraryFactory creates a new factory with default configuration
func NewPDFLibraryFactory() *PDFLibraryFactory {
	return &PDFLibraryFactory{
		config: FactoryConfig{
			MaxFileSize: 100 * 1024 * 1024, // 100MB
		},
	}
}

// NewPDFLibraryFactoryWithConfig creates a factory with custom configuration
func NewPDFLibraryFactoryWithConfig(config FactoryConfig) *PDFLibraryFactory {
	return &PDFLibraryFactory{config: config}
}

// GetConfig returns the current factory configuration
func (f *PDFLibraryFactory) GetConfig() FactoryConfig {
	return f.config
}

// OperationType represents different types of PDF operations
type OperationType string

const (
	OperationTextExtraction OperationType = "text_extraction"
	OperationAnnotations    OperationType = "annotations"
	OperationOutline        OperationType = "outline"
	OperationSecurity       OperationType = "security"
	OperationValidation     OperationType = "validation"
)

// LibraryForOperation names the library a hybrid document uses for an operation.
func (f *PDFLibraryFactory) LibraryForOperation(operation OperationType) LibraryType {
	switch operation {
	case OperationTextExtraction, OperationValidation:
		// ledongthuc interprets content streams into positioned glyphs
		return LibraryLedongthuc
	default:
		// pdfcpu exposes object identity, which annotations and outlines need
		return LibraryPDFCPU
	}
}

// OpenFile opens a PDF from a file path
func (f *PDFLibraryFactory) OpenFile(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryHybrid,
			Op:      "open_file",
			Err:     fmt.Errorf("cannot access file: %w", err),
		}
	}
	if err := f.checkSize(info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryHybrid,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to read file: %w", err),
		}
	}
	return f.OpenBytes(data)
}

// Open reads a whole document from r.
func (f *PDFLibraryFactory) Open(r io.Reader) (Document, error) {
	limit := f.config.MaxFileSize
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryHybrid,
			Op:      "open",
			Err:     fmt.Errorf("failed to read document: %w", err),
		}
	}
	if err := f.checkSize(int64(len(data))); err != nil {
		return nil, err
	}
	return f.OpenBytes(data)
}

// OpenBytes opens an in-memory document with both libraries.
func (f *PDFLibraryFactory) OpenBytes(data []byte) (Document, error) {
	structure, err := OpenPDFCPU(bytes.NewReader(data), f.config)
	if err != nil {
		return nil, err
	}

	encrypted := structure.Encrypted()
	text, err := OpenLedongthuc(bytes.NewReader(data), int64(len(data)), f.config)
	if err != nil {
		structure.Close()
		if encrypted && !errors.Is(err, ErrPasswordRequired) {
			return nil, &WrapperError{
				Library: LibraryLedongthuc,
				Op:      "open",
				Err:     fmt.Errorf("%w: %v", ErrUnsupportedEncryption, err),
			}
		}
		return nil, err
	}

	f.debugf("opened %d bytes: structure from %s, text from %s", len(data),
		f.LibraryForOperation(OperationAnnotations), f.LibraryForOperation(OperationTextExtraction))
	if encrypted {
		f.debugf("document is encrypted, opened with the configured password")
	}
	if n, m := structure.PageCount(), text.PageCount(); n != m {
		f.debugf("page count mismatch: pdfcpu=%d ledongthuc=%d", n, m)
	}
	return NewHybridDocument(structure, text), nil
}

func (f *PDFLibraryFactory) checkSize(size int64) error {
	if f.config.MaxFileSize > 0 && size > f.config.MaxFileSize {
		return &WrapperError{
			Library: LibraryHybrid,
			Op:      "open",
			Err:     fmt.Errorf("file size %d exceeds maximum %d", size, f.config.MaxFileSize),
		}
	}
	return nil
}

func (f *PDFLibraryFactory) debugf(format string, args ...interface{}) {
	if f.config.DebugMode && f.config.Logger != nil {
		f.config.Logger.Printf(format, args...)
	}
}

// HybridDocument serves structure from one source and page text from another.
type HybridDocument struct {
	structure StructureSource
	text      TextSource
}

// NewHybridDocument combines a structure source and a text source into a Document.
func NewHybridDocument(structure StructureSource, text TextSource) *HybridDocument {
	return &HybridDocument{structure: structure, text: text}
}

// PageCount returns the number of pages
func (h *HybridDocument) PageCount() int {
	return h.structure.PageCount()
}

// Page gathers the media box, annotations and glyphs of one page.
func (h *HybridDocument) Page(index int) (*PageContent, error) {
	annots, err := h.structure.Annotations(index)
	if err != nil {
		return nil, err
	}

	content := &PageContent{Index: index, Annotations: annots}
	if len(annots) == 0 {
		// Nothing to correlate, so the content stream is not interpreted.
		content.MediaBox = defaultMediaBox
		if box, err := h.text.MediaBox(index); err == nil {
			content.MediaBox = box
		}
		return content, nil
	}

	box, err := h.text.MediaBox(index)
	if err != nil {
		return nil, err
	}
	glyphs, err := h.text.PageText(index)
	if err != nil {
		return nil, err
	}
	content.MediaBox = box
	content.Text = glyphs
	return content, nil
}

// Bookmarks returns the outline tree
func (h *HybridDocument) Bookmarks() ([]*Bookmark, error) {
	return h.structure.Bookmarks()
}

// ResolveDestination maps a destination to a zero-based page index
func (h *HybridDocument) ResolveDestination(dest Destination) (int, bool) {
	return h.structure.ResolveDestination(dest)
}

// Close closes both sources
func (h *HybridDocument) Close() error {
	err := h.structure.Close()
	if terr := h.text.Close(); err == nil {
		err = terr
	}
	return err
}
