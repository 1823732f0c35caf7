package pdf

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/annotation"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/outline"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/wrapper"
)

// Extractor opens files and runs the extraction engine over them. It does
// no path sandboxing; Service layers that on top.
type Extractor struct {
	factory *wrapper.PDFLibraryFactory
	options extraction.Options
	logger  *log.Logger
}

// NewExtractor creates an extractor. A nil logger discards output.
func NewExtractor(factory *wrapper.PDFLibraryFactory, options extraction.Options, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Extractor{
		factory: factory,
		options: options,
		logger:  logger,
	}
}

// Annotations extracts the annotations and outline of the file at path.
func (x *Extractor) Annotations(ctx context.Context, path string, req PDFAnnotationsRequest) (*PDFAnnotationsResult, error) {
	opts, err := x.requestOptions(req)
	if err != nil {
		return nil, err
	}

	doc, err := x.factory.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	result, err := extraction.NewEngine(opts, extraction.WithLogger(x.logger)).Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract annotations from %s: %w", path, err)
	}

	out := &PDFAnnotationsResult{
		Path:        path,
		Pages:       result.PageCount,
		Annotations: make([]AnnotationInfo, 0, len(result.Annotations)),
		Outline:     outlineEntries(result.Outline),
	}
	for _, a := range result.Annotations {
		out.Annotations = append(out.Annotations, annotationInfo(a))
	}
	out.TotalCount = len(out.Annotations)
	for _, d := range result.Diagnostics.All() {
		out.Diagnostics = append(out.Diagnostics, d.WithFile(path))
	}
	return out, nil
}

// Outline reads only the outline of the file at path.
func (x *Extractor) Outline(path string) (*PDFOutlineResult, error) {
	doc, err := x.factory.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	bookmarks, err := doc.Bookmarks()
	if err != nil {
		return nil, fmt.Errorf("failed to read outline of %s: %w", path, err)
	}
	entries := outlineEntries(outline.Build(bookmarks, doc))

	return &PDFOutlineResult{
		Path:       path,
		Pages:      doc.PageCount(),
		Entries:    entries,
		TotalCount: len(entries),
	}, nil
}

// requestOptions applies per-request overrides to the configured options.
func (x *Extractor) requestOptions(req PDFAnnotationsRequest) (extraction.Options, error) {
	opts := x.options
	if req.Columns < 0 {
		return opts, fmt.Errorf("columns must not be negative: %d", req.Columns)
	}
	if req.Columns > 0 {
		opts.ColumnsPerPage = req.Columns
	}

	opts.Pages = nil
	for _, p := range req.Pages {
		if p < 1 {
			return opts, fmt.Errorf("page numbers start at 1, got %d", p)
		}
		opts.Pages = append(opts.Pages, p-1)
	}

	opts.Kinds = nil
	for _, name := range req.Kinds {
		kind, ok := lookupKind(name)
		if !ok {
			return opts, fmt.Errorf("unsupported annotation kind: %s", name)
		}
		opts.Kinds = append(opts.Kinds, kind)
	}
	return opts, nil
}

func lookupKind(name string) (annotation.Kind, bool) {
	name = strings.TrimSpace(name)
	for _, k := range annotation.Kinds() {
		if strings.EqualFold(k.String(), name) {
			return k, true
		}
	}
	return annotation.KindUnknown, false
}

func supportedKinds() []string {
	kinds := annotation.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

func annotationInfo(a *annotation.Annotation) AnnotationInfo {
	info := AnnotationInfo{
		Page:     a.Page + 1,
		Kind:     a.Kind().String(),
		Contents: a.Contents,
		Author:   a.Author,
	}
	if text, ok := a.Text(); ok {
		info.Text = &text
	}
	if a.Created != nil {
		info.Created = a.Created.Format(time.RFC3339)
	}
	if a.Modified != nil {
		info.Modified = a.Modified.Format(time.RFC3339)
	}
	return info
}

func outlineEntries(tree *outline.Tree) []OutlineEntry {
	entries := tree.Entries()
	out := make([]OutlineEntry, len(entries))
	for i, e := range entries {
		out[i] = OutlineEntry{Title: e.Title, Depth: e.Depth}
		if e.Page != nil {
			page := *e.Page + 1
			out[i].Page = &page
		}
	}
	return out
}
