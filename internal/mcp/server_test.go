package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-annots/internal/config"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/pdftest"
)

func annotatedPDF() []byte {
	x0, y0, x1, y1 := pdftest.TextBox(72+6*pdftest.Advance*12, 700, 12, 5)
	return pdftest.Build(pdftest.Doc{
		Pages: []pdftest.Page{
			{
				Content: pdftest.Text(72, 700, 12, "Hello World"),
				Annots: []pdftest.Annot{
					{
						Subtype:    "Highlight",
						Rect:       [4]float64{x0, y0, x1, y1},
						QuadPoints: pdftest.Quad(x0, y0, x1, y1),
						Contents:   "who?",
						Author:     "reviewer",
						Created:    "D:20190119212942-08'00'",
					},
					{Subtype: "Text", Rect: [4]float64{500, 100, 520, 120}, Contents: "first para\n\nsecond para"},
				},
			},
			{Content: pdftest.Text(72, 700, 12, "Second page")},
		},
		Outline: []pdftest.Bookmark{
			{Title: "Introduction", Page: 0, Children: []pdftest.Bookmark{
				{Title: "Details", Page: 1},
			}},
		},
	})
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paper.pdf"), annotatedPDF(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), make([]byte, 1024), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"

	svc, err := pdf.NewService(cfg.MaxFileSize, dir, pdf.WithExtractionOptions(cfg.ExtractionOptions()))
	require.NoError(t, err)
	s, err := NewServer(cfg, svc)
	require.NoError(t, err)
	return s, dir
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestNewServer(t *testing.T) {
	svc, err := pdf.NewService(1024, t.TempDir())
	require.NoError(t, err)

	_, err = NewServer(config.DefaultConfig(), nil)
	assert.Error(t, err)
	_, err = NewServer(nil, svc)
	assert.Error(t, err)

	s, err := NewServer(config.DefaultConfig(), svc)
	require.NoError(t, err)
	assert.NotNil(t, s.mcpServer)
}

func TestServer_HandlePDFAnnotations(t *testing.T) {
	s, dir := newTestServer(t)

	result, err := s.handlePDFAnnotations(context.Background(), call(map[string]any{
		"path": filepath.Join(dir, "paper.pdf"),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Total annotations: 2")
	assert.Contains(t, text, "1. Page 1, Highlight by reviewer (2019-01-19T21:29:42-08:00)")
	assert.Contains(t, text, "Text: World")
	assert.Contains(t, text, "Comment: who?")
	assert.Contains(t, text, "2. Page 1, Text")
	assert.Contains(t, text, "Comment: first para\n      \n      second para")
	assert.Contains(t, text, "  - Introduction (page 1)\n    - Details (page 2)")
}

func TestServer_HandlePDFAnnotationsFilters(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handlePDFAnnotations(context.Background(), call(map[string]any{
		"path":    "paper.pdf",
		"kinds":   []any{"text"},
		"pages":   []any{float64(1)},
		"columns": float64(2),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Total annotations: 1")
	assert.NotContains(t, text, "Highlight")
}

func TestServer_HandlePDFAnnotationsErrors(t *testing.T) {
	s, dir := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing path", args: map[string]any{}, want: "path"},
		{name: "outside directory", args: map[string]any{"path": filepath.Join(dir, "..", "x.pdf")}, want: "outside"},
		{name: "not a pdf", args: map[string]any{"path": "notes.txt"}, want: "not a PDF"},
		{name: "corrupt pdf", args: map[string]any{"path": "broken.pdf"}, want: "invalid PDF"},
		{name: "bad page", args: map[string]any{"path": "paper.pdf", "pages": []any{float64(0)}}, want: "start at 1"},
		{name: "fractional page", args: map[string]any{"path": "paper.pdf", "pages": []any{1.5}}, want: "not an integer"},
		{name: "reversed range", args: map[string]any{"path": "paper.pdf", "pages": "3-1"}, want: "end before start"},
		{name: "bad kind", args: map[string]any{"path": "paper.pdf", "kinds": []any{"Link"}}, want: "unsupported annotation kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handlePDFAnnotations(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestServer_HandlePDFOutline(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handlePDFOutline(context.Background(), call(map[string]any{"path": "paper.pdf"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Entries: 2")
	assert.Contains(t, text, "- Details (page 2)")
}

func TestServer_HandlePDFValidateFile(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handlePDFValidateFile(context.Background(), call(map[string]any{"path": "paper.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "is valid and readable (2 pages)")

	result, err = s.handlePDFValidateFile(context.Background(), call(map[string]any{"path": "broken.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "PDF validation failed")
}

func TestServer_HandlePDFSearchDirectory(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handlePDFSearchDirectory(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 2 PDF file(s)")
	assert.NotContains(t, text, "notes.txt")

	result, err = s.handlePDFSearchDirectory(context.Background(), call(map[string]any{"query": "pap"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "Found 1 PDF file(s)")

	result, err = s.handlePDFSearchDirectory(context.Background(), call(map[string]any{"query": "zzz"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "No PDF files found")
}

func TestServer_HandlePDFServerInfo(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handlePDFServerInfo(context.Background(), call(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server")
	assert.Contains(t, text, "Highlight, Underline, StrikeOut, Squiggly, Text")
	for _, tool := range []string{"pdf_annotations", "pdf_outline", "pdf_validate_file", "pdf_search_directory", "pdf_server_info"} {
		assert.Contains(t, text, tool)
	}
}

func TestArgumentHelpers(t *testing.T) {
	args := map[string]any{
		"n":      float64(3),
		"s":      "4",
		"pages":  []any{float64(1), "2-3"},
		"range":  "5, 1-2",
		"kinds":  "Highlight, Text",
		"list":   []any{"Squiggly"},
		"broken": []any{true},
	}

	n, err := intArg(args, "n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = intArg(args, "s")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = intArg(args, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	pages, err := pagesArg(args, "pages")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, pages)

	pages, err = pagesArg(args, "range")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 5}, pages)

	kinds, err := stringsArg(args, "kinds")
	require.NoError(t, err)
	assert.Equal(t, []string{"Highlight", "Text"}, kinds)

	kinds, err = stringsArg(args, "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"Squiggly"}, kinds)

	_, err = stringsArg(args, "broken")
	assert.Error(t, err)
	_, err = pagesArg(args, "broken")
	assert.Error(t, err)
}

func TestServer_RunCanceled(t *testing.T) {
	s, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "context canceled"))
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
