package outline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-annots/internal/pdf/wrapper"
)

type mapResolver map[int]int

func (m mapResolver) ResolveDestination(d wrapper.Destination) (int, bool) {
	switch d.Kind {
	case wrapper.DestinationPageRef:
		p, ok := m[d.ObjectNumber]
		return p, ok
	case wrapper.DestinationPageIndex:
		return d.PageIndex, d.PageIndex >= 0
	default:
		return 0, false
	}
}

func ref(obj int) wrapper.Destination {
	return wrapper.Destination{Kind: wrapper.DestinationPageRef, ObjectNumber: obj}
}

func intp(i int) *int { return &i }

func TestBuild_PreservesSiblingOrder(t *testing.T) {
	resolver := mapResolver{10: 0, 11: 1, 12: 2, 13: 3}
	bookmarks := []*wrapper.Bookmark{
		{Title: "Late", Dest: ref(13)},
		{Title: "Early", Dest: ref(10)},
		{Title: "Middle", Dest: ref(12), Children: []*wrapper.Bookmark{
			{Title: "Back", Dest: ref(11)},
			{Title: "Dangling", Dest: ref(999)},
			{Title: "Untargeted"},
		}},
	}

	tree := Build(bookmarks, resolver)
	require.Equal(t, 6, tree.Len())

	want := []Entry{
		{Title: "Late", Page: intp(3), Depth: 0},
		{Title: "Early", Page: intp(0), Depth: 0},
		{Title: "Middle", Page: intp(2), Depth: 0},
		{Title: "Back", Page: intp(1), Depth: 1},
		{Title: "Dangling", Page: nil, Depth: 1},
		{Title: "Untargeted", Page: nil, Depth: 1},
	}
	if diff := cmp.Diff(want, tree.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	var rootTitles []string
	for _, id := range tree.Roots {
		rootTitles = append(rootTitles, tree.Nodes[id].Title)
	}
	assert.Equal(t, []string{"Late", "Early", "Middle"}, rootTitles)

	middle := tree.Nodes[tree.Roots[2]]
	require.Len(t, middle.Children, 3)
	for _, child := range middle.Children {
		assert.Equal(t, tree.Roots[2], tree.Nodes[child].Parent)
	}
}

func TestBuild_PageIndexDestinations(t *testing.T) {
	tree := Build([]*wrapper.Bookmark{
		{Title: "By index", Dest: wrapper.Destination{Kind: wrapper.DestinationPageIndex, PageIndex: 4}},
	}, mapResolver{})

	require.Equal(t, 1, tree.Len())
	require.NotNil(t, tree.Nodes[0].Page)
	assert.Equal(t, 4, *tree.Nodes[0].Page)
}

func TestBuild_NilResolverLeavesPagesUnset(t *testing.T) {
	tree := Build([]*wrapper.Bookmark{{Title: "Only", Dest: ref(1)}}, nil)
	require.Equal(t, 1, tree.Len())
	assert.Nil(t, tree.Nodes[0].Page)
}

func TestBuild_Empty(t *testing.T) {
	tree := Build(nil, mapResolver{})
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.Entries())

	var nilTree *Tree
	assert.Equal(t, 0, nilTree.Len())
	assert.Empty(t, nilTree.Entries())
}

func TestBuild_DeepOutline(t *testing.T) {
	const depth = 50000
	root := &wrapper.Bookmark{Title: "level"}
	cur := root
	for i := 1; i < depth; i++ {
		child := &wrapper.Bookmark{Title: "level"}
		cur.Children = []*wrapper.Bookmark{child}
		cur = child
	}

	tree := Build([]*wrapper.Bookmark{root}, nil)
	require.Equal(t, depth, tree.Len())

	maxDepth := 0
	tree.Walk(func(_, d int) bool {
		if d > maxDepth {
			maxDepth = d
		}
		return true
	})
	assert.Equal(t, depth-1, maxDepth)
}

func TestTree_WalkStops(t *testing.T) {
	tree := Build([]*wrapper.Bookmark{{Title: "a"}, {Title: "b"}, {Title: "c"}}, nil)

	var seen []string
	tree.Walk(func(id, _ int) bool {
		seen = append(seen, tree.Nodes[id].Title)
		return len(seen) < 2
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}
