package errors

import (
	"fmt"
	"strings"
)

// PDFError describes a problem found while extracting from a document. Most
// of them are diagnostics: the affected page or annotation is skipped and
// extraction carries on.
type PDFError struct {
	Type        ErrorType `json:"type" yaml:"type"`
	Message     string    `json:"message" yaml:"message"`
	Context     string    `json:"context,omitempty" yaml:"context,omitempty"`
	Recoverable bool      `json:"recoverable" yaml:"recoverable"`
	FilePath    string    `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	// PageNumber is zero-based; it is only meaningful when HasPage is set.
	PageNumber int  `json:"page_number" yaml:"page_number"`
	HasPage    bool `json:"-" yaml:"-"`

	err error
}

// ErrorType represents different categories of extraction problems
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidHeader
	ErrorTypeCorruptedXRef
	ErrorTypeSecurityRestriction
	ErrorTypeMalformedPage
	ErrorTypeInvalidAnnotation
	ErrorTypeInvalidOutline
	ErrorTypeInvalidDate
	ErrorTypeCanceled
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// Error implements the error interface
func (e *PDFError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", e.Type)
	if e.HasPage {
		fmt.Fprintf(&b, "page %d: ", e.PageNumber)
	}
	b.WriteString(e.Message)
	if e.Context != "" {
		b.WriteString(": ")
		b.WriteString(e.Context)
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *PDFError) Unwrap() error {
	return e.err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidHeader:
		return "INVALID_HEADER"
	case ErrorTypeCorruptedXRef:
		return "CORRUPTED_XREF"
	case ErrorTypeSecurityRestriction:
		return "SECURITY_RESTRICTION"
	case ErrorTypeMalformedPage:
		return "MALFORMED_PAGE"
	case ErrorTypeInvalidAnnotation:
		return "INVALID_ANNOTATION"
	case ErrorTypeInvalidOutline:
		return "INVALID_OUTLINE"
	case ErrorTypeInvalidDate:
		return "INVALID_DATE"
	case ErrorTypeCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the type by name in JSON and YAML output.
func (et ErrorType) MarshalText() ([]byte, error) {
	return []byte(et.String()), nil
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeInvalidHeader, ErrorTypeCorruptedXRef:
		return SeverityCritical
	case ErrorTypeSecurityRestriction, ErrorTypeCanceled:
		return SeverityError
	case ErrorTypeMalformedPage, ErrorTypeInvalidAnnotation, ErrorTypeInvalidOutline:
		return SeverityWarning
	case ErrorTypeInvalidDate:
		return SeverityInfo
	default:
		return SeverityError
	}
}

// IsRecoverable determines if extraction can continue past an error type
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeMalformedPage, ErrorTypeInvalidAnnotation, ErrorTypeInvalidOutline, ErrorTypeInvalidDate:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	e := NewPDFError(errorType, message)
	e.err = err
	if err != nil {
		e.Context = err.Error()
	}
	return e
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	e.HasPage = true
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsCritical returns true if this error is critical
func (e *PDFError) IsCritical() bool {
	return e.GetSeverity() == SeverityCritical
}

// ErrorCollection gathers the diagnostics of one extraction run
type ErrorCollection struct {
	Errors   []*PDFError `json:"errors" yaml:"errors"`
	Warnings []*PDFError `json:"warnings" yaml:"warnings"`
	FilePath string      `json:"file_path,omitempty" yaml:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PDFError, 0),
		Warnings: make([]*PDFError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *PDFError) {
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// All returns errors followed by warnings.
func (ec *ErrorCollection) All() []*PDFError {
	out := make([]*PDFError, 0, len(ec.Errors)+len(ec.Warnings))
	out = append(out, ec.Errors...)
	return append(out, ec.Warnings...)
}

// HasCriticalErrors returns true if any critical errors exist
func (ec *ErrorCollection) HasCriticalErrors() bool {
	for _, err := range ec.Errors {
		if err.IsCritical() {
			return true
		}
	}
	return false
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}

	summary := fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)

	if ec.HasCriticalErrors() {
		summary += " (including critical errors)"
	}

	return summary
}
