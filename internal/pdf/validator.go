package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	pdferrors "github.com/a3tai/mcp-pdf-annots/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/wrapper"
)

// headerWindow is how far into a file the %PDF- marker may appear.
const headerWindow = 1024

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
	factory     *wrapper.PDFLibraryFactory
}

// NewValidator creates a validator that opens files through factory and
// applies its size limit.
func NewValidator(factory *wrapper.PDFLibraryFactory) *Validator {
	return &Validator{
		maxFileSize: factory.GetConfig().MaxFileSize,
		factory:     factory,
	}
}

// ValidateFile checks that a file exists, is a plausible PDF and can be
// opened by both parsers. Problems are reported in the result, not as an
// error.
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	pages, err := v.validatePDFFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	result.Valid = true
	result.Pages = pages
	return result, nil
}

// validatePDFFile performs detailed validation and returns the page count
func (v *Validator) validatePDFFile(filePath string) (int, error) {
	if filePath == "" {
		return 0, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return 0, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return 0, err
	}

	doc, err := v.factory.OpenFile(filePath)
	if err != nil {
		return 0, classifyOpenError(filePath, err)
	}
	defer doc.Close()

	return doc.PageCount(), nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	_, err := v.validatePDFFile(filePath)
	return err == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !isPDFName(filePath) {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

func isPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// classifyOpenError turns a failure to open a document into a PDFError
// naming what is wrong with the file.
func classifyOpenError(filePath string, err error) *pdferrors.PDFError {
	switch {
	case errors.Is(err, wrapper.ErrPasswordRequired):
		return pdferrors.WrapError(pdferrors.ErrorTypeSecurityRestriction,
			"encrypted PDF, password required", err).WithFile(filePath)
	case errors.Is(err, wrapper.ErrUnsupportedEncryption):
		return pdferrors.WrapError(pdferrors.ErrorTypeSecurityRestriction,
			"encrypted PDF, encryption scheme not supported", err).WithFile(filePath)
	case !hasPDFHeader(filePath):
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidHeader,
			"invalid PDF file, no %PDF- header", err).WithFile(filePath)
	default:
		return pdferrors.WrapError(pdferrors.ErrorTypeCorruptedXRef,
			"invalid PDF file, document structure unreadable", err).WithFile(filePath)
	}
}

func hasPDFHeader(filePath string) bool {
	f, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, headerWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	return bytes.Contains(head[:n], []byte("%PDF-"))
}
