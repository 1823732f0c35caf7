package pdf

import (
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/errors"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path" yaml:"path"`
	Name         string `json:"name" yaml:"name"`
	Size         int64  `json:"size" yaml:"size"`
	ModifiedTime string `json:"modified_time" yaml:"modified_time"`
}

// Request Types

// PDFAnnotationsRequest represents a request to extract annotations from a PDF file.
// Pages are one-based; Columns of zero uses the server default.
type PDFAnnotationsRequest struct {
	Path    string   `json:"path"`
	Columns int      `json:"columns,omitempty"`
	Pages   []int    `json:"pages,omitempty"`
	Kinds   []string `json:"kinds,omitempty"`
}

// PDFOutlineRequest represents a request to read the outline of a PDF file
type PDFOutlineRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// PDFServerInfoRequest represents a request for server information
type PDFServerInfoRequest struct{}

// Response Types

// AnnotationInfo is one extracted annotation. Page is one-based. Text is
// absent for notes and for markup that covers no text.
type AnnotationInfo struct {
	Page     int     `json:"page" yaml:"page"`
	Kind     string  `json:"kind" yaml:"kind"`
	Text     *string `json:"text,omitempty" yaml:"text,omitempty"`
	Contents string  `json:"contents,omitempty" yaml:"contents,omitempty"`
	Author   string  `json:"author,omitempty" yaml:"author,omitempty"`
	Created  string  `json:"created,omitempty" yaml:"created,omitempty"`
	Modified string  `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// OutlineEntry is one outline item in preorder. Page is one-based and
// absent when the destination does not resolve.
type OutlineEntry struct {
	Title string `json:"title" yaml:"title"`
	Page  *int   `json:"page,omitempty" yaml:"page,omitempty"`
	Depth int    `json:"depth" yaml:"depth"`
}

// PDFAnnotationsResult represents the result of an annotation extraction
type PDFAnnotationsResult struct {
	Path        string             `json:"path" yaml:"path"`
	Pages       int                `json:"pages" yaml:"pages"`
	Annotations []AnnotationInfo   `json:"annotations" yaml:"annotations"`
	TotalCount  int                `json:"total_count" yaml:"total_count"`
	Outline     []OutlineEntry     `json:"outline,omitempty" yaml:"outline,omitempty"`
	Diagnostics []*errors.PDFError `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// PDFOutlineResult represents the outline of a PDF file
type PDFOutlineResult struct {
	Path       string         `json:"path" yaml:"path"`
	Pages      int            `json:"pages" yaml:"pages"`
	Entries    []OutlineEntry `json:"entries" yaml:"entries"`
	TotalCount int            `json:"total_count" yaml:"total_count"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFSearchDirectoryResult represents the result of a PDF search operation
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// PDFServerInfoResult represents server information and capabilities
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	ColumnsPerPage    int        `json:"columns_per_page"`
	SupportedKinds    []string   `json:"supported_kinds"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
