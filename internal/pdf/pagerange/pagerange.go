// Package pagerange parses page selections such as "1-3,5" into one-based
// page ranges.
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PageRange represents an inclusive range of one-based pages.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// String renders the range the way Parse accepts it.
func (r PageRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Contains reports whether the one-based page lies in the range.
func (r PageRange) Contains(page int) bool {
	return page >= r.Start && page <= r.End
}

// Parse reads a comma-separated list of pages and ranges. Whitespace is
// ignored and an empty selection yields no ranges.
func Parse(selection string) ([]PageRange, error) {
	var ranges []PageRange
	for _, part := range strings.Split(selection, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parseRange(part string) (PageRange, error) {
	lo, hi, isRange := strings.Cut(part, "-")
	start, err := parsePage(lo)
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid page range %q: %w", part, err)
	}
	if !isRange {
		return PageRange{Start: start, End: start}, nil
	}

	end, err := parsePage(hi)
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid page range %q: %w", part, err)
	}
	if end < start {
		return PageRange{}, fmt.Errorf("invalid page range %q: end before start", part)
	}
	return PageRange{Start: start, End: end}, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a page number: %q", strings.TrimSpace(s))
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", n)
	}
	return n, nil
}

// Pages expands ranges into sorted, distinct one-based page numbers.
func Pages(ranges []PageRange) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, r := range ranges {
		for p := r.Start; p <= r.End; p++ {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	sort.Ints(pages)
	return pages
}

// ParsePages parses a selection and expands it in one step.
func ParsePages(selection string) ([]int, error) {
	ranges, err := Parse(selection)
	if err != nil {
		return nil, err
	}
	return Pages(ranges), nil
}

// Format renders ranges as a selection string.
func Format(ranges []PageRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}
