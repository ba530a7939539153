// Package svgdom provides a retained-mode thicket.Painter that keeps one
// SVG element per drawn node and serializes them as an SVG document.
//
// Unlike canvas painters it never clears pixels. Each DrawNode call rebuilds
// the attribute map of the node's element and applies it only when it
// differs from the stored one, so the Mutations counter reflects exactly
// the DOM writes an incremental frame needs.
package svgdom

import (
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/phanxgames/thicket"
)

// Element is one retained SVG element.
type Element struct {
	// ID is the id of the node the element mirrors.
	ID       uint32
	Tag      string
	Attrs    map[string]string
	Children []*Element

	order int
}

// equal reports whether e and o render the same markup.
func (e *Element) equal(o *Element) bool {
	if e.Tag != o.Tag || !maps.Equal(e.Attrs, o.Attrs) || len(e.Children) != len(o.Children) {
		return false
	}
	for i := range e.Children {
		if !e.Children[i].equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Painter mirrors a thicket scene into retained SVG elements.
type Painter struct {
	width, height int

	elements map[uint32]*Element
	clips    map[uint32]*Element
	root     *thicket.Node

	mutations int
	frames    int
}

var (
	_ thicket.Painter     = (*Painter)(nil)
	_ thicket.NodeRemover = (*Painter)(nil)
)

// New returns an empty painter.
func New() *Painter {
	return &Painter{
		elements: make(map[uint32]*Element),
		clips:    make(map[uint32]*Element),
	}
}

// Resize sets the document size in device pixels.
func (p *Painter) Resize(width, height int) {
	if p.width != width || p.height != height {
		p.width, p.height = width, height
		p.mutations++
	}
}

// BeginFrame starts a frame. Retained elements need no clearing.
func (p *Painter) BeginFrame(f thicket.Frame) {
	p.frames++
}

// DrawNode rebuilds the element of n and stores it when it changed.
func (p *Painter) DrawNode(n *thicket.Node, f thicket.Frame) {
	if p.root == nil {
		r := n
		for r.Parent() != nil {
			r = r.Parent()
		}
		p.root = r
	}
	el := p.build(n)
	if el == nil {
		return
	}
	if clip := n.Clip(); clip != nil && clip.Shape() != nil {
		id := "clip" + strconv.FormatUint(uint64(clip.ID), 10)
		el.Attrs["clip-path"] = "url(#" + id + ")"
		p.storeClip(clip, id)
	}
	old, ok := p.elements[n.ID]
	if ok {
		el.order = old.order
		if old.equal(el) {
			return
		}
	} else {
		el.order = -1
	}
	p.elements[n.ID] = el
	p.mutations++
}

// build returns the element for a shape or use node.
func (p *Painter) build(n *thicket.Node) *Element {
	st := n.ComputedStyle()
	m, _ := n.GlobalTransform()
	var el *Element
	switch n.Kind {
	case thicket.KindShape:
		if n.Shape() == nil {
			return nil
		}
		el = shapeElement(n, st)
	case thicket.KindUse:
		el = &Element{Tag: "g", Attrs: map[string]string{}}
		if src := n.Source(); src != nil {
			el.Children = sourceElements(src, thicket.Identity, 0)
		}
		setOpacity(el.Attrs, st.Opacity)
	default:
		return nil
	}
	el.ID = n.ID
	el.Attrs["id"] = "n" + strconv.FormatUint(uint64(n.ID), 10)
	if !m.IsIdentity() {
		el.Attrs["transform"] = formatMatrix(m)
	}
	if !st.Visible {
		el.Attrs["display"] = "none"
	}
	return el
}

const maxUseDepth = 16

// sourceElements flattens a use source into path elements positioned
// relative to the use node. parent maps the source's parent space into the
// use node's space.
func sourceElements(n *thicket.Node, parent thicket.Matrix, depth int) []*Element {
	if !n.Attrs().Display || depth > maxUseDepth {
		return nil
	}
	m := parent
	if local, ok := n.Transform(); ok {
		m = parent.Multiply(local)
	}
	switch n.Kind {
	case thicket.KindShape:
		if n.Shape() == nil {
			return nil
		}
		el := shapeElement(n, n.ComputedStyle())
		if !m.IsIdentity() {
			el.Attrs["transform"] = formatMatrix(m)
		}
		return []*Element{el}
	case thicket.KindUse:
		if n.Source() == nil {
			return nil
		}
		g := &Element{Tag: "g", Attrs: map[string]string{}, Children: sourceElements(n.Source(), thicket.Identity, depth+1)}
		if !m.IsIdentity() {
			g.Attrs["transform"] = formatMatrix(m)
		}
		setOpacity(g.Attrs, n.Attrs().Opacity)
		return []*Element{g}
	default:
		var out []*Element
		for _, c := range n.OrderedChildren() {
			out = append(out, sourceElements(c, m, depth)...)
		}
		return out
	}
}

func shapeElement(n *thicket.Node, st thicket.ComputedStyle) *Element {
	a := map[string]string{"d": shapePath(n.Shape())}
	if st.HasFill {
		a["fill"] = formatColor(st.Fill)
		if st.Fill.A < 1 {
			a["fill-opacity"] = formatFloat(st.Fill.A)
		}
	} else {
		a["fill"] = "none"
	}
	if st.HasStroke && st.LineWidth > 0 {
		a["stroke"] = formatColor(st.Stroke)
		a["stroke-width"] = formatFloat(st.LineWidth)
		if st.Stroke.A < 1 {
			a["stroke-opacity"] = formatFloat(st.Stroke.A)
		}
	}
	setOpacity(a, st.Opacity)
	return &Element{ID: n.ID, Tag: "path", Attrs: a}
}

func setOpacity(a map[string]string, o float64) {
	if o < 1 {
		a["opacity"] = formatFloat(o)
	}
}

func (p *Painter) storeClip(clip *thicket.Node, id string) {
	el := &Element{ID: clip.ID, Tag: "clipPath", Attrs: map[string]string{"id": id}}
	path := &Element{Tag: "path", Attrs: map[string]string{"d": shapePath(clip.Shape())}}
	if m, ok := clip.Transform(); ok {
		path.Attrs["transform"] = formatMatrix(m)
	}
	el.Children = []*Element{path}
	if old, ok := p.clips[clip.ID]; ok && old.equal(el) {
		return
	}
	p.clips[clip.ID] = el
	p.mutations++
}

// EndFrame updates document order to match the scene's paint order. An
// element counts as moved when it now follows an element it used to
// precede.
func (p *Painter) EndFrame() error {
	if p.root == nil || p.root.IsDestroyed() {
		return nil
	}
	order, last := 0, -1
	var walk func(n *thicket.Node)
	walk = func(n *thicket.Node) {
		if el, ok := p.elements[n.ID]; ok {
			if el.order >= 0 {
				if el.order < last {
					p.mutations++
				} else {
					last = el.order
				}
			}
			el.order = order
			order++
		}
		for _, c := range n.OrderedChildren() {
			walk(c)
		}
	}
	walk(p.root)
	return nil
}

// RemoveNode drops the element of a destroyed node.
func (p *Painter) RemoveNode(id uint32) {
	if _, ok := p.elements[id]; ok {
		delete(p.elements, id)
		p.mutations++
	}
	if _, ok := p.clips[id]; ok {
		delete(p.clips, id)
		p.mutations++
	}
}

// Element returns the retained element of the node with the given id.
func (p *Painter) Element(id uint32) (*Element, bool) {
	el, ok := p.elements[id]
	return el, ok
}

// Len returns the number of retained node elements.
func (p *Painter) Len() int { return len(p.elements) }

// Mutations returns the number of element writes since the painter was
// created: inserts, attribute changes, moves and removals.
func (p *Painter) Mutations() int { return p.mutations }

// Frames returns the number of frames painted.
func (p *Painter) Frames() int { return p.frames }

// ordered returns the elements in document order.
func (p *Painter) ordered() []*Element {
	els := slices.Collect(maps.Values(p.elements))
	slices.SortFunc(els, func(a, b *Element) int {
		if a.order != b.order {
			return a.order - b.order
		}
		return int(a.ID) - int(b.ID)
	})
	return els
}

// WriteTo serializes the document as SVG.
func (p *Painter) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	enc := xml.NewEncoder(cw)
	enc.Indent("", "  ")
	if err := p.encode(enc); err != nil {
		return cw.n, fmt.Errorf("svgdom: encode: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return cw.n, fmt.Errorf("svgdom: flush: %w", err)
	}
	return cw.n, nil
}

func (p *Painter) encode(enc *xml.Encoder) error {
	svg := xml.StartElement{
		Name: xml.Name{Local: "svg"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: "http://www.w3.org/2000/svg"},
			{Name: xml.Name{Local: "width"}, Value: strconv.Itoa(p.width)},
			{Name: xml.Name{Local: "height"}, Value: strconv.Itoa(p.height)},
		},
	}
	if err := enc.EncodeToken(svg); err != nil {
		return err
	}
	if len(p.clips) > 0 {
		defs := xml.StartElement{Name: xml.Name{Local: "defs"}}
		if err := enc.EncodeToken(defs); err != nil {
			return err
		}
		ids := slices.Sorted(maps.Keys(p.clips))
		for _, id := range ids {
			if err := encodeElement(enc, p.clips[id]); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(defs.End()); err != nil {
			return err
		}
	}
	for _, el := range p.ordered() {
		if err := encodeElement(enc, el); err != nil {
			return err
		}
	}
	return enc.EncodeToken(svg.End())
}

func encodeElement(enc *xml.Encoder, el *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: el.Tag}}
	for _, k := range slices.Sorted(maps.Keys(el.Attrs)) {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: k}, Value: el.Attrs[k]})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range el.Children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
