package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-annots/internal/config"
	"github.com/a3tai/mcp-pdf-annots/internal/descriptions"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/pagerange"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfAnnotationsTool := mcp.NewTool(
		"pdf_annotations",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_annotations")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
		mcp.WithNumber("columns",
			mcp.Description("Number of text columns per page (defaults to the server setting)"),
		),
		mcp.WithArray("pages",
			mcp.Description("One-based page numbers or ranges such as \"3-5\" to extract from (all pages if omitted)"),
			mcp.Items(map[string]any{"type": []string{"integer", "string"}}),
		),
		mcp.WithArray("kinds",
			mcp.Description("Annotation kinds to return: Highlight, Underline, StrikeOut, Squiggly, Text"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.mcpServer.AddTool(pdfAnnotationsTool, s.handlePDFAnnotations)

	pdfOutlineTool := mcp.NewTool(
		"pdf_outline",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_outline")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(pdfOutlineTool, s.handlePDFOutline)

	pdfValidateFileTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(pdfValidateFileTool, s.handlePDFValidateFile)

	pdfSearchDirectoryTool := mcp.NewTool(
		"pdf_search_directory",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_search_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	)
	s.mcpServer.AddTool(pdfSearchDirectoryTool, s.handlePDFSearchDirectory)

	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := pdf.PDFAnnotationsRequest{Path: path}
	if req.Columns, err = intArg(args, "columns"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Pages, err = pagesArg(args, "pages"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Kinds, err = stringsArg(args, "kinds"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFAnnotations(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFAnnotationsResult(result)), nil
}

func (s *Server) handlePDFOutline(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFOutline(pdf.PDFOutlineRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFOutlineResult(result)), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFSearchDirectory(_ context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := s.config.PDFDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	result, err := s.pdfService.PDFSearchDirectory(pdf.PDFSearchDirectoryRequest{
		Directory: directory,
		Query:     query,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatPDFSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(pdf.PDFServerInfoRequest{},
		s.config.ServerName, s.config.Version, s.config.PDFDirectory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// Argument helpers. JSON numbers arrive as float64.

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// pagesArg accepts an array of page numbers or selections, or a single
// selection string such as "1-3,5".
func pagesArg(args map[string]any, key string) ([]int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		pages, err := pagerange.ParsePages(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return pages, nil
	case []any:
		out := make([]int, 0, len(t))
		for _, item := range t {
			if sel, ok := item.(string); ok {
				pages, err := pagerange.ParsePages(sel)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				out = append(out, pages...)
				continue
			}
			n, err := toInt(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of page numbers", key)
	}
}

func stringsArg(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		// Accept "Highlight,Underline" from clients that cannot send arrays.
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be an array of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int(t), nil
	case int:
		return t, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

// Formatting methods
func (s *Server) formatPDFAnnotationsResult(result *pdf.PDFAnnotationsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Annotations in %s\n", result.Path)
	fmt.Fprintf(&b, "Pages: %d\n", result.Pages)
	fmt.Fprintf(&b, "Total annotations: %d\n", result.TotalCount)

	for i, a := range result.Annotations {
		fmt.Fprintf(&b, "\n%d. Page %d, %s", i+1, a.Page, a.Kind)
		if a.Author != "" {
			fmt.Fprintf(&b, " by %s", a.Author)
		}
		if a.Created != "" {
			fmt.Fprintf(&b, " (%s)", a.Created)
		}
		b.WriteString("\n")
		if a.Text != nil {
			fmt.Fprintf(&b, "   Text: %s\n", quoteBlock(*a.Text))
		}
		if a.Contents != "" {
			fmt.Fprintf(&b, "   Comment: %s\n", quoteBlock(a.Contents))
		}
	}

	if len(result.Outline) > 0 {
		b.WriteString("\nOutline:\n")
		writeOutline(&b, result.Outline)
	}

	if len(result.Diagnostics) > 0 {
		b.WriteString("\nDiagnostics:\n")
		for _, d := range result.Diagnostics {
			fmt.Fprintf(&b, "  - %s\n", d.Error())
		}
	}

	return b.String()
}

func (s *Server) formatPDFOutlineResult(result *pdf.PDFOutlineResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Outline of %s\n", result.Path)
	fmt.Fprintf(&b, "Pages: %d\n", result.Pages)
	if result.TotalCount == 0 {
		b.WriteString("\nThis document has no outline.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Entries: %d\n\n", result.TotalCount)
	writeOutline(&b, result.Entries)
	return b.String()
}

func writeOutline(b *strings.Builder, entries []pdf.OutlineEntry) {
	for _, e := range entries {
		b.WriteString(strings.Repeat("  ", e.Depth+1))
		b.WriteString("- ")
		b.WriteString(e.Title)
		if e.Page != nil {
			fmt.Fprintf(b, " (page %d)", *e.Page)
		}
		b.WriteString("\n")
	}
}

// quoteBlock indents continuation lines so multi-paragraph text stays
// inside its list item.
func quoteBlock(s string) string {
	return strings.ReplaceAll(s, "\n", "\n      ")
}

func (s *Server) formatPDFSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("📰 Columns Per Page: %d\n", result.ColumnsPerPage)
	text += fmt.Sprintf("🖍️  Annotation Kinds: %s\n\n", strings.Join(result.SupportedKinds, ", "))

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("server not started: %w", err)
	}
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF annotation MCP server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting PDF annotation MCP server on %s (SSE)", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		if err := sse.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
