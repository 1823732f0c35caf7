package pagerange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		want      []PageRange
	}{
		{"empty", "", nil},
		{"single page", "4", []PageRange{{Start: 4, End: 4}}},
		{"range", "2-5", []PageRange{{Start: 2, End: 5}}},
		{"mixed with spaces", " 1 , 3 - 4 ,, 9", []PageRange{{1, 1}, {3, 4}, {9, 9}}},
		{"degenerate range", "7-7", []PageRange{{Start: 7, End: 7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.selection)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		selection string
		wantErr   string
	}{
		{"0", "page numbers start at 1"},
		{"-3", "not a page number"},
		{"3-", "not a page number"},
		{"5-2", "end before start"},
		{"one", "not a page number"},
		{"1-2-3", "not a page number"},
	}

	for _, tt := range tests {
		t.Run(tt.selection, func(t *testing.T) {
			_, err := Parse(tt.selection)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPages(t *testing.T) {
	ranges := []PageRange{{Start: 5, End: 6}, {Start: 1, End: 2}, {Start: 2, End: 3}}
	assert.Equal(t, []int{1, 2, 3, 5, 6}, Pages(ranges))
	assert.Empty(t, Pages(nil))
}

func TestParsePages(t *testing.T) {
	pages, err := ParsePages("3,1-2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, pages)

	_, err = ParsePages("x")
	assert.Error(t, err)
}

func TestPageRange_StringAndContains(t *testing.T) {
	r := PageRange{Start: 2, End: 4}
	assert.Equal(t, "2-4", r.String())
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(4))
	assert.False(t, r.Contains(5))
	assert.Equal(t, "3", PageRange{Start: 3, End: 3}.String())

	assert.Equal(t, "1,3-4", Format([]PageRange{{1, 1}, {3, 4}}))
}
