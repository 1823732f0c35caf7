package extraction

import (
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/annotation"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/correlate"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/layout"
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/outline"
)

// Options configures an extraction run.
type Options struct {
	// ColumnsPerPage is the number of text columns on each page. Values
	// below one mean a single column.
	ColumnsPerPage int `json:"columns_per_page"`

	// Workers bounds how many annotations of one page are correlated
	// concurrently.
	Workers int `json:"workers"`

	// Pages restricts extraction to these zero-based page indexes. Empty
	// means every page.
	Pages []int `json:"pages,omitempty"`

	// Kinds restricts extraction to these annotation kinds. Empty means
	// every supported kind.
	Kinds []annotation.Kind `json:"kinds,omitempty"`

	Layout    layout.Options    `json:"-"`
	Correlate correlate.Options `json:"-"`
}

// DefaultOptions returns single-column, single-worker options.
func DefaultOptions() Options {
	return Options{
		ColumnsPerPage: 1,
		Workers:        1,
		Layout:         layout.DefaultOptions(),
		Correlate:      correlate.DefaultOptions(),
	}
}

// Result is everything extracted from one document.
type Result struct {
	PageCount   int
	Annotations []*annotation.Annotation
	Outline     *outline.Tree
	Diagnostics *errors.ErrorCollection
}
