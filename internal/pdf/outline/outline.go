// Package outline flattens a document's bookmark tree into an arena of
// nodes with resolved page numbers.
package outline

import (
	"github.com/a3tai/mcp-pdf-annots/internal/pdf/wrapper"
)

// PageResolver maps a destination to a zero-based page index.
type PageResolver interface {
	ResolveDestination(dest wrapper.Destination) (int, bool)
}

// Node is one outline entry. Page is nil when the target could not be
// resolved. Parent is -1 for top-level entries.
type Node struct {
	Title    string `json:"title"`
	Page     *int   `json:"page"`
	Parent   int    `json:"-"`
	Children []int  `json:"-"`
}

// Tree owns all nodes; relations are expressed as indexes into Nodes.
type Tree struct {
	Nodes []Node
	Roots []int
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Nodes)
}

// Build converts bookmarks into a Tree, preserving sibling order and depth.
// The traversal uses an explicit stack so arbitrarily deep outlines are safe.
func Build(bookmarks []*wrapper.Bookmark, resolver PageResolver) *Tree {
	t := &Tree{}

	type frame struct {
		bm     *wrapper.Bookmark
		parent int
	}
	stack := make([]frame, 0, len(bookmarks))
	push := func(list []*wrapper.Bookmark, parent int) {
		for i := len(list) - 1; i >= 0; i-- {
			if list[i] != nil {
				stack = append(stack, frame{bm: list[i], parent: parent})
			}
		}
	}
	push(bookmarks, -1)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := len(t.Nodes)
		node := Node{Title: f.bm.Title, Parent: f.parent}
		if resolver != nil && f.bm.Dest.Kind != wrapper.DestinationNone {
			if page, ok := resolver.ResolveDestination(f.bm.Dest); ok {
				node.Page = &page
			}
		}
		t.Nodes = append(t.Nodes, node)

		if f.parent < 0 {
			t.Roots = append(t.Roots, id)
		} else {
			t.Nodes[f.parent].Children = append(t.Nodes[f.parent].Children, id)
		}
		push(f.bm.Children, id)
	}
	return t
}

// Walk visits nodes in document order, passing each node id and its depth.
// Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(id, depth int) bool) {
	if t == nil {
		return
	}
	type frame struct{ id, depth int }
	stack := make([]frame, 0, len(t.Roots))
	for i := len(t.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{t.Roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.id, f.depth) {
			return
		}
		children := t.Nodes[f.id].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
}

// Entry is a flattened view of a node.
type Entry struct {
	Title string `json:"title" yaml:"title"`
	Page  *int   `json:"page" yaml:"page"`
	Depth int    `json:"depth" yaml:"depth"`
}

// Entries lists the outline in document order.
func (t *Tree) Entries() []Entry {
	var out []Entry
	t.Walk(func(id, depth int) bool {
		n := t.Nodes[id]
		out = append(out, Entry{Title: n.Title, Page: n.Page, Depth: depth})
		return true
	})
	return out
}
