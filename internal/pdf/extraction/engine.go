package extraction

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/annotation"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/correlate"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/layout"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/outline"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/pdfdate"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/wrapper"
)

// Engine extracts annotations and the outline from documents. An Engine
// holds no per-document state and may be reused.
type Engine struct {
	opts       Options
	logger     *log.Logger
	correlator *correlate.Correlator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine. Zero-valued tuning constants are replaced by
// their defaults.
func NewEngine(opts Options, options ...Option) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Layout == (layout.Options{}) {
		opts.Layout = layout.DefaultOptions()
	}
	if opts.Correlate == (correlate.Options{}) {
		opts.Correlate = correlate.DefaultOptions()
	}

	e := &Engine{
		opts:       opts,
		logger:     log.New(io.Discard, "", 0),
		correlator: correlate.New(opts.Correlate),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Extract walks the pages of doc in order and then reads its outline.
//
// A page that cannot be read is recorded in Result.Diagnostics and
// contributes no annotations. Cancellation and an unreadable outline abort
// the run.
func (e *Engine) Extract(ctx context.Context, doc wrapper.Document) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to extract from")
	}

	n := doc.PageCount()
	result := &Result{
		PageCount:   n,
		Diagnostics: errors.NewErrorCollection(""),
	}
	wanted := e.pageFilter()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, canceled(i, err)
		}
		if wanted != nil && !wanted[i] {
			continue
		}

		annots, err := e.extractPage(ctx, doc, i, result.Diagnostics)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, canceled(i, ctxErr)
			}
			diag := errors.WrapError(errors.ErrorTypeMalformedPage, "page skipped", err).WithPage(i)
			result.Diagnostics.Add(diag)
			e.logger.Printf("Warning: %v", diag)
			continue
		}
		result.Annotations = append(result.Annotations, annots...)
	}

	bookmarks, err := doc.Bookmarks()
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}
	result.Outline = outline.Build(bookmarks, doc)
	for _, entry := range result.Outline.Entries() {
		if entry.Page == nil {
			result.Diagnostics.Add(errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidOutline,
				"outline entry has no resolvable destination", entry.Title))
		}
	}

	e.logger.Printf("Extracted %d annotations and %d outline entries from %d pages (%s)",
		len(result.Annotations), result.Outline.Len(), n, result.Diagnostics.Summary())
	return result, nil
}

func canceled(page int, err error) error {
	return errors.WrapError(errors.ErrorTypeCanceled, "extraction canceled", err).WithPage(page)
}

func (e *Engine) extractPage(ctx context.Context, doc wrapper.Document, index int, diags *errors.ErrorCollection) (annots []*annotation.Annotation, err error) {
	defer func() {
		if r := recover(); r != nil {
			annots = nil
			err = fmt.Errorf("panic while processing page: %v", r)
		}
	}()

	content, err := doc.Page(index)
	if err != nil {
		return nil, err
	}

	page := annotation.Page{
		Number:   index,
		MediaBox: content.MediaBox.R2(),
		Columns:  e.opts.ColumnsPerPage,
	}

	for _, raw := range content.Annotations {
		if a, ok := e.newAnnotation(page, raw, diags); ok {
			annots = append(annots, a)
		}
	}
	if len(annots) == 0 {
		return nil, nil
	}

	if hasMarkup(annots) {
		idx := layout.Build(glyphs(content.Text), page, e.opts.Layout)
		if err := e.correlateAll(ctx, idx, annots); err != nil {
			return nil, err
		}
	}

	page.Sort(annots)
	return annots, nil
}

// correlateAll fills in the covered text of every markup annotation. Each
// goroutine writes only to its own record; the index is read-only.
func (e *Engine) correlateAll(ctx context.Context, idx *layout.Index, annots []*annotation.Annotation) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, a := range annots {
		if !a.Kind().IsMarkup() {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if text, ok := e.correlator.Correlate(idx, a.Shape); ok {
				a.SetText(text)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) newAnnotation(page annotation.Page, raw wrapper.AnnotationElement, diags *errors.ErrorCollection) (*annotation.Annotation, bool) {
	kind, ok := annotation.ParseKind(raw.Subtype)
	if !ok || !e.wantKind(kind) {
		return nil, false
	}

	a := &annotation.Annotation{
		Page:     page.Number,
		Contents: normalizeNewlines(raw.Contents),
		Author:   raw.Author,
	}

	if raw.CreationDate != "" {
		if t, ok := pdfdate.Decode(raw.CreationDate); ok {
			a.Created = &t
		} else {
			diags.Add(errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidDate,
				"unparseable creation date", raw.CreationDate).WithPage(page.Number))
		}
	}
	if t, ok := pdfdate.Decode(raw.ModDate); ok {
		a.Modified = &t
	}

	if !kind.IsMarkup() {
		a.Shape = annotation.Note{Anchor: raw.Position.R2()}
		return a, true
	}

	quads := annotation.QuadsFromPoints(raw.QuadPoints)
	if len(quads) == 0 {
		diags.Add(errors.NewPDFError(errors.ErrorTypeInvalidAnnotation,
			fmt.Sprintf("%s has no usable /QuadPoints, falling back to /Rect", kind)).WithPage(page.Number))
		quads = []annotation.Quad{annotation.QuadFromRect(raw.Position.R2())}
	}
	markup, err := annotation.NewMarkup(kind, quads)
	if err != nil {
		diags.Add(errors.WrapError(errors.ErrorTypeInvalidAnnotation, "annotation skipped", err).WithPage(page.Number))
		return nil, false
	}
	a.Shape = markup
	return a, true
}

func (e *Engine) pageFilter() map[int]bool {
	if len(e.opts.Pages) == 0 {
		return nil
	}
	wanted := make(map[int]bool, len(e.opts.Pages))
	for _, p := range e.opts.Pages {
		wanted[p] = true
	}
	return wanted
}

func (e *Engine) wantKind(kind annotation.Kind) bool {
	if len(e.opts.Kinds) == 0 {
		return true
	}
	for _, k := range e.opts.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func hasMarkup(annots []*annotation.Annotation) bool {
	for _, a := range annots {
		if a.Kind().IsMarkup() {
			return true
		}
	}
	return false
}

func glyphs(elements []wrapper.TextElement) []layout.Glyph {
	out := make([]layout.Glyph, len(elements))
	for i, el := range elements {
		out[i] = layout.Glyph{
			Text:     el.Text,
			Box:      el.Position.R2(),
			Baseline: el.Baseline,
			Size:     el.Font.Size,
		}
	}
	return out
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(s string) string {
	return newlines.Replace(s)
}
