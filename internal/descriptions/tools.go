package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	PDFAnnotationsDescription = `Extract reviewer annotations from a PDF together with the text they mark.

**When to use:** Need the highlights, underlines, strike-outs, squiggles and sticky notes someone left on a paper, report or draft.

**Why it's useful:** Each markup annotation comes back with the exact document text it covers, joined across line wraps and columns, so comments can be quoted without opening the PDF. Results are in reading order.

**Examples:**
• Collect review feedback: "List all annotations in draft-v3.pdf with the highlighted text"
• Two-column papers: "Get the highlights from hotos17.pdf with columns=2"
• Focus on corrections: "Show only StrikeOut and Squiggly annotations from pages 3 to 5 of thesis.pdf"

**Common workflows:**
1. Review Digest: Extract annotations → Group by page → Summarise feedback
2. Reading Notes: Extract highlights → Quote the covered text → Add to a notebook
3. Revision Tracking: Extract strike-outs → Apply edits to the source document

**Best practices:** Set columns to match the page layout; single-column reading order mixes the columns of two-column papers. Check 'diagnostics' for pages that could not be read.`

	PDFOutlineDescription = `Read the outline (table of contents) of a PDF document.

**When to use:** Need the section structure of a document or want to know which page a chapter starts on.

**Why it's useful:** Returns every bookmark in document order with its nesting depth and one-based target page, including bookmarks that use named destinations.

**Examples:**
• Section map: "Show the outline of hotos17.pdf"
• Locate a chapter: "Which page does 'Concluding remarks' start on in paper.pdf?"

**Common workflows:**
1. Navigation: Read outline → Pick a section → Extract annotations from its pages
2. Structure Check: Read outline → Compare against expected chapters

**Best practices:** Entries without a page point to a destination that does not resolve in this file.`

	PDFValidateFileDescription = `Verify that a PDF file can be opened before extracting from it.

**When to use:** Before processing files of unknown origin, or when an extraction fails and you need to know why.

**Why it's useful:** Checks the file type, size limit and that both the structure and text parsers can open it; reports the page count on success.

**Examples:**
• Upload verification: "Check that annotated-contract.pdf is readable"
• Batch safety: "Validate each PDF found by pdf_search_directory before extraction"

**Best practices:** Encrypted documents need the server to be started with a password.`

	PDFSearchDirectoryDescription = `Find PDF files by name below the configured directory.

**When to use:** Need to locate a document before extracting from it, or list what is available.

**Why it's useful:** Case-insensitive fuzzy matching on file names: substrings and word fragments both match, so "hot 17" finds "hotos17-paper.pdf".

**Examples:**
• Find a paper: "Search for 'sgx' in the papers directory"
• List everything: "Search the default directory with no query"

**Best practices:** Paths returned here can be passed straight to pdf_annotations and pdf_outline.`

	PDFServerInfoDescription = `Get server configuration, available tools and the PDF files in the default directory.

**When to use:** At the start of a session to learn what the server can do and which files it can reach.

**Why it's useful:** Reports the file size limit, the default column count, the supported annotation kinds and a bounded listing of the default directory.

**Best practices:** Call once per session; use pdf_search_directory for complete listings of large directories.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_annotations":      PDFAnnotationsDescription,
	"pdf_outline":          PDFOutlineDescription,
	"pdf_validate_file":    PDFValidateFileDescription,
	"pdf_search_directory": PDFSearchDirectoryDescription,
	"pdf_server_info":      PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
