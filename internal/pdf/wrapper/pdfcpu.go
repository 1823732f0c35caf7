package wrapper

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCPUDocument reads the object structure of a PDF with pdfcpu: pages,
// annotation dictionaries, the outline and named destinations.
type PDFCPUDocument struct {
	ctx    *model.Context
	config FactoryConfig
	closed bool

	// pageRefs maps page object numbers to zero-based page indexes.
	pageRefs map[int]int

	namesOnce sync.Once
	names     map[string]types.Object
}

// OpenPDFCPU parses the document structure from rs.
func OpenPDFCPU(rs io.ReadSeeker, config FactoryConfig) (*PDFCPUDocument, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if config.Password != "" {
		conf.UserPW = config.Password
		conf.OwnerPW = config.Password
	}

	ctx, err := api.ReadContext(rs, conf)
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return nil, ErrPasswordRequired
	}
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	d := &PDFCPUDocument{
		ctx:      ctx,
		config:   config,
		pageRefs: make(map[int]int, ctx.PageCount),
	}
	for i := 1; i <= ctx.PageCount; i++ {
		_, ref, _, err := ctx.PageDict(i, false)
		if err != nil || ref == nil {
			continue
		}
		d.pageRefs[ref.ObjectNumber.Value()] = i - 1
	}
	return d, nil
}

// PageCount returns the number of pages
func (d *PDFCPUDocument) PageCount() int {
	if d.closed {
		return 0
	}
	return d.ctx.PageCount
}

// Encrypted reports whether the document carries an encryption dictionary.
func (d *PDFCPUDocument) Encrypted() bool {
	return d.ctx.Encrypt != nil
}

// Annotations returns the raw annotation dictionaries of a page. Entries that
// are not dictionaries are skipped.
func (d *PDFCPUDocument) Annotations(index int) ([]AnnotationElement, error) {
	if d.closed {
		return nil, ErrDocumentClosed
	}
	if index < 0 || index >= d.ctx.PageCount {
		return nil, ErrInvalidPage
	}

	pageDict, _, _, err := d.ctx.PageDict(index+1, false)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "annotations",
			Err:     fmt.Errorf("failed to read page %d: %w", index, err),
		}
	}

	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil, nil
	}
	annots, err := d.ctx.DereferenceArray(annotsObj)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "annotations",
			Err:     fmt.Errorf("invalid /Annots on page %d: %w", index, err),
		}
	}

	elements := make([]AnnotationElement, 0, len(annots))
	for _, obj := range annots {
		annotDict, err := d.ctx.DereferenceDict(obj)
		if err != nil || annotDict == nil {
			continue
		}
		elements = append(elements, d.annotationElement(annotDict))
	}
	return elements, nil
}

func (d *PDFCPUDocument) annotationElement(annotDict types.Dict) AnnotationElement {
	var elem AnnotationElement

	if obj, found := annotDict.Find("Subtype"); found {
		if name, err := d.ctx.DereferenceName(obj, model.V10, nil); err == nil {
			elem.Subtype = string(name)
		}
	}
	if obj, found := annotDict.Find("Rect"); found {
		if nums := d.numbers(obj); len(nums) == 4 {
			elem.Position = NewRectangle(nums[0], nums[1], nums[2], nums[3])
		}
	}
	if obj, found := annotDict.Find("QuadPoints"); found {
		elem.QuadPoints = d.numbers(obj)
	}
	elem.Contents = d.text(annotDict, "Contents")
	elem.Author = d.text(annotDict, "T")
	elem.CreationDate = d.text(annotDict, "CreationDate")
	elem.ModDate = d.text(annotDict, "M")
	return elem
}

func (d *PDFCPUDocument) text(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := d.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

// numbers dereferences an array of numbers. A non-numeric element
// invalidates the whole array.
func (d *PDFCPUDocument) numbers(obj types.Object) []float64 {
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, o := range arr {
		f, err := d.ctx.DereferenceNumber(o)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// Bookmarks walks the /Outlines tree. Sibling chains are followed
// iteratively and every outline item is visited at most once, so cyclic
// /Next or /First links terminate.
func (d *PDFCPUDocument) Bookmarks() ([]*Bookmark, error) {
	if d.closed {
		return nil, ErrDocumentClosed
	}

	root, err := d.ctx.Catalog()
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "outline", Err: err}
	}
	outlinesObj, found := root.Find("Outlines")
	if !found {
		return nil, nil
	}
	outlines, err := d.ctx.DereferenceDict(outlinesObj)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "outline",
			Err:     fmt.Errorf("invalid /Outlines dictionary: %w", err),
		}
	}
	if outlines == nil {
		return nil, nil
	}
	first, found := outlines.Find("First")
	if !found {
		return nil, nil
	}

	type chain struct {
		first  types.Object
		parent *Bookmark
	}
	var roots []*Bookmark
	seen := make(map[int]bool)
	stack := []chain{{first: first}}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for item := c.first; item != nil; {
			if ref, ok := item.(types.IndirectRef); ok {
				nr := ref.ObjectNumber.Value()
				if seen[nr] {
					break
				}
				seen[nr] = true
			}
			itemDict, err := d.ctx.DereferenceDict(item)
			if err != nil || itemDict == nil {
				break
			}

			bm := &Bookmark{
				Title: d.text(itemDict, "Title"),
				Dest:  d.itemDestination(itemDict),
			}
			if c.parent == nil {
				roots = append(roots, bm)
			} else {
				c.parent.Children = append(c.parent.Children, bm)
			}

			if child, found := itemDict.Find("First"); found {
				stack = append(stack, chain{first: child, parent: bm})
			}
			next, found := itemDict.Find("Next")
			if !found {
				break
			}
			item = next
		}
	}
	return roots, nil
}

// itemDestination reads /Dest, falling back to the /D entry of a GoTo action.
func (d *PDFCPUDocument) itemDestination(itemDict types.Dict) Destination {
	if obj, found := itemDict.Find("Dest"); found {
		return d.destination(obj)
	}
	obj, found := itemDict.Find("A")
	if !found {
		return Destination{}
	}
	action, err := d.ctx.DereferenceDict(obj)
	if err != nil || action == nil {
		return Destination{}
	}
	if s, found := action.Find("S"); found {
		if name, err := d.ctx.DereferenceName(s, model.V10, nil); err != nil || string(name) != "GoTo" {
			return Destination{}
		}
	}
	if dest, found := action.Find("D"); found {
		return d.destination(dest)
	}
	return Destination{}
}

func (d *PDFCPUDocument) destination(obj types.Object) Destination {
	o, err := d.ctx.Dereference(obj)
	if err != nil || o == nil {
		return Destination{}
	}

	switch v := o.(type) {
	case types.Array:
		if len(v) == 0 {
			return Destination{}
		}
		switch target := v[0].(type) {
		case types.IndirectRef:
			return Destination{Kind: DestinationPageRef, ObjectNumber: target.ObjectNumber.Value()}
		case types.Integer:
			return Destination{Kind: DestinationPageIndex, PageIndex: target.Value()}
		}
	case types.Name:
		return Destination{Kind: DestinationNamed, Name: string(v)}
	case types.StringLiteral, types.HexLiteral:
		if s, err := d.ctx.DereferenceStringOrHexLiteral(v, model.V10, nil); err == nil {
			return Destination{Kind: DestinationNamed, Name: s}
		}
	case types.Dict:
		if inner, found := v.Find("D"); found {
			return d.destination(inner)
		}
	}
	return Destination{}
}

// ResolveDestination maps a destination to a zero-based page index.
func (d *PDFCPUDocument) ResolveDestination(dest Destination) (int, bool) {
	if d.closed {
		return 0, false
	}
	switch dest.Kind {
	case DestinationPageRef:
		page, ok := d.pageRefs[dest.ObjectNumber]
		return page, ok
	case DestinationPageIndex:
		return dest.PageIndex, dest.PageIndex >= 0 && dest.PageIndex < d.ctx.PageCount
	case DestinationNamed:
		obj, ok := d.namedDestinations()[dest.Name]
		if !ok {
			return 0, false
		}
		target := d.destination(obj)
		if target.Kind == DestinationNamed {
			// Names resolving to names are not followed.
			return 0, false
		}
		return d.ResolveDestination(target)
	default:
		return 0, false
	}
}

// namedDestinations collects the catalog /Dests dictionary and the /Dests
// name tree once.
func (d *PDFCPUDocument) namedDestinations() map[string]types.Object {
	d.namesOnce.Do(func() {
		d.names = make(map[string]types.Object)

		root, err := d.ctx.Catalog()
		if err != nil {
			return
		}
		if obj, found := root.Find("Dests"); found {
			if dests, err := d.ctx.DereferenceDict(obj); err == nil {
				for k, v := range dests {
					d.names[k] = v
				}
			}
		}

		namesObj, found := root.Find("Names")
		if !found {
			return
		}
		names, err := d.ctx.DereferenceDict(namesObj)
		if err != nil || names == nil {
			return
		}
		treeObj, found := names.Find("Dests")
		if !found {
			return
		}
		d.walkNameTree(treeObj)
	})
	return d.names
}

func (d *PDFCPUDocument) walkNameTree(rootObj types.Object) {
	seen := make(map[int]bool)
	stack := []types.Object{rootObj}
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if ref, ok := obj.(types.IndirectRef); ok {
			if seen[ref.ObjectNumber.Value()] {
				continue
			}
			seen[ref.ObjectNumber.Value()] = true
		}
		node, err := d.ctx.DereferenceDict(obj)
		if err != nil || node == nil {
			continue
		}

		if namesObj, found := node.Find("Names"); found {
			if pairs, err := d.ctx.DereferenceArray(namesObj); err == nil {
				for i := 0; i+1 < len(pairs); i += 2 {
					key, err := d.ctx.DereferenceStringOrHexLiteral(pairs[i], model.V10, nil)
					if err != nil {
						continue
					}
					if _, exists := d.names[key]; !exists {
						d.names[key] = pairs[i+1]
					}
				}
			}
		}
		if kidsObj, found := node.Find("Kids"); found {
			if kids, err := d.ctx.DereferenceArray(kidsObj); err == nil {
				for i := len(kids) - 1; i >= 0; i-- {
					stack = append(stack, kids[i])
				}
			}
		}
	}
}

// Close releases the parsed context
func (d *PDFCPUDocument) Close() error {
	d.closed = true
	d.ctx = nil
	return nil
}
