package pdf

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/a3tai/mcp-pdf-annots/internal/descriptions"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/wrapper"
)

const (
	serverInfoFileLimit = 100
	serverInfoTimeout   = 5 * time.Second
)

// Service handles PDF file operations for the tool layer. Every path is
// resolved inside the configured directory before it is opened.
type Service struct {
	maxFileSize   int64
	options       extraction.Options
	extractor     *Extractor
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	logger        *log.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceSettings)

type serviceSettings struct {
	options  extraction.Options
	password string
	logger   *log.Logger
}

// WithExtractionOptions sets the default engine options.
func WithExtractionOptions(opts extraction.Options) ServiceOption {
	return func(s *serviceSettings) { s.options = opts }
}

// WithPassword sets the password offered to encrypted documents.
func WithPassword(password string) ServiceOption {
	return func(s *serviceSettings) { s.password = password }
}

// WithLogger routes service and engine logs to logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *serviceSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new PDF service rooted at configuredDirectory
func NewService(maxFileSize int64, configuredDirectory string, opts ...ServiceOption) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	settings := serviceSettings{
		options: extraction.DefaultOptions(),
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(&settings)
	}

	factory := wrapper.NewPDFLibraryFactoryWithConfig(wrapper.FactoryConfig{
		MaxFileSize: maxFileSize,
		Password:    settings.password,
		Logger:      settings.logger,
	})
	validator := NewValidator(factory)

	return &Service{
		maxFileSize:   maxFileSize,
		options:       settings.options,
		extractor:     NewExtractor(factory, settings.options, settings.logger),
		validator:     validator,
		search:        NewSearch(validator),
		pathValidator: pathValidator,
		logger:        settings.logger,
	}, nil
}

// PDFAnnotations extracts annotations, their covered text and the outline
func (s *Service) PDFAnnotations(ctx context.Context, req PDFAnnotationsRequest) (*PDFAnnotationsResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.checkFile(path); err != nil {
		return nil, err
	}
	return s.extractor.Annotations(ctx, path, req)
}

// PDFOutline returns the document outline
func (s *Service) PDFOutline(req PDFOutlineRequest) (*PDFOutlineResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.checkFile(path); err != nil {
		return nil, err
	}
	return s.extractor.Outline(path)
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	dir, err := s.pathValidator.ResolveDirectory(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Directory = dir
	return s.search.SearchDirectory(req)
}

// PDFServerInfo returns server information and usage guidance. The
// directory listing is best effort and bounded in size and time.
func (s *Service) PDFServerInfo(_ PDFServerInfoRequest, serverName, version,
	defaultDirectory string,
) (*PDFServerInfoResult, error) {
	dir, err := s.pathValidator.ResolveDirectory(defaultDirectory)
	if err != nil {
		dir = s.pathValidator.Root()
	}

	resultChan := make(chan []FileInfo, 1)
	go func() {
		files, err := s.search.FindPDFsInDirectoryLimited(dir, serverInfoFileLimit)
		if err != nil {
			s.logger.Printf("Warning: directory scan of %s failed: %v", dir, err)
			files = []FileInfo{}
		}
		resultChan <- files
	}()

	directoryContents := []FileInfo{}
	select {
	case files := <-resultChan:
		directoryContents = files
	case <-time.After(serverInfoTimeout):
		s.logger.Printf("Warning: directory scan of %s timed out", dir)
	}

	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       s.maxFileSize,
		ColumnsPerPage:    s.options.ColumnsPerPage,
		SupportedKinds:    supportedKinds(),
		AvailableTools:    availableTools(),
		DirectoryContents: directoryContents,
		UsageGuidance:     s.usageGuidance(),
	}, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// checkFile rejects directories, non-PDF names and oversized files before
// any parser sees them.
func (s *Service) checkFile(path string) error {
	_, err := s.validator.validatePDFFile(path)
	if err != nil {
		return fmt.Errorf("file validation failed: %w", err)
	}
	return nil
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_annotations",
			Description: descriptions.GetToolDescription("pdf_annotations"),
			Usage: "Use this tool to list highlights, underlines, strike-outs, squiggles and notes " +
				"together with the document text each one covers, in reading order.",
			Parameters: "path (required): PDF file, columns (optional): text columns per page, " +
				"pages (optional): one-based page numbers, kinds (optional): annotation kinds",
		},
		{
			Name:        "pdf_outline",
			Description: descriptions.GetToolDescription("pdf_outline"),
			Usage:       "Use this tool to read the table of contents with the page each entry points to.",
			Parameters:  "path (required): PDF file",
		},
		{
			Name:        "pdf_validate_file",
			Description: descriptions.GetToolDescription("pdf_validate_file"),
			Usage:       "Use this tool to check if a file is a readable PDF before extracting from it.",
			Parameters:  "path (required): PDF file",
		},
		{
			Name:        "pdf_search_directory",
			Description: descriptions.GetToolDescription("pdf_search_directory"),
			Usage:       "Use this tool to find PDF files by name below the configured directory.",
			Parameters:  "directory (optional): directory to search, query (optional): fuzzy file name query",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to see the server configuration and the PDF files available.",
			Parameters:  "No parameters required",
		},
	}
}

func (s *Service) usageGuidance() string {
	return fmt.Sprintf(`PDF Annotation Server Usage Guide:

1. FIND FILES:
   - Use 'pdf_search_directory' to find PDF files by name
   - Use 'pdf_validate_file' to check that a file can be opened

2. EXTRACT ANNOTATIONS:
   - Use 'pdf_annotations' to list annotations in reading order
   - Markup annotations carry the covered document text in 'text'
   - Notes carry only the reviewer's 'contents'
   - Set 'columns' to 2 for two-column papers (server default: %d)

3. NAVIGATE:
   - Use 'pdf_outline' to read the table of contents

IMPORTANT NOTES:
- Paths are resolved inside %s
- The server can handle files up to %dMB
- Page numbers in requests and results start at 1
- Pages that cannot be read are reported in 'diagnostics' and skipped`,
		s.options.ColumnsPerPage, s.pathValidator.Root(), s.maxFileSize/(1024*1024))
}
