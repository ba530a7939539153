package thicket

import "math"

// BBox returns the local, untransformed bounding box. Leaves delegate to
// their shape; groups union their visible children's boxes mapped through
// each child's local transform; use nodes take their source's box mapped
// through the source's local transform.
func (n *Node) BBox() Box {
	if n.bboxDirty {
		n.bbox, n.bboxEmpty = computeBBox(n)
		n.bboxDirty = false
	}
	return n.bbox
}

// BBoxEmpty reports whether BBox has no content at all: a group without
// visible children, a use node without a source or a shapeless leaf.
// Such nodes report the zero box, which is otherwise indistinguishable from
// content touching the origin.
func (n *Node) BBoxEmpty() bool {
	n.BBox()
	return n.bboxEmpty
}

// computeBBox recomputes the local bbox from scratch using the children's
// cached values.
func computeBBox(n *Node) (Box, bool) {
	switch n.Kind {
	case KindShape:
		if n.shape == nil {
			return Box{}, true
		}
		return n.shape.ComputeBBox(), false
	case KindUse:
		if n.source == nil {
			return Box{}, true
		}
		return contribution(n.source)
	default:
		var acc boxAccumulator
		for c := n.firstChild; c != nil; c = c.nextSibling {
			if !c.attrs.Display {
				continue
			}
			if b, empty := contribution(c); !empty {
				acc.add(b)
			}
		}
		if !acc.valid {
			return Box{}, true
		}
		return acc.box, false
	}
}

// contribution is c's bbox as seen from its parent's coordinate space.
func contribution(c *Node) (Box, bool) {
	b := c.BBox()
	if c.bboxEmpty {
		return Box{}, true
	}
	if m, ok := c.Transform(); ok {
		b = m.TransformBox(b)
	}
	return b, false
}

// strokeInflation is the distance a stroke of width w may reach beyond the
// geometry under any rotation.
func strokeInflation(w float64) float64 {
	if w <= 0 {
		return 0
	}
	return w * math.Sqrt2 / 2
}

// ClientRect returns the bbox inflated for the stroke and mapped into render
// coordinates. Hidden and empty nodes report the zero box.
func (n *Node) ClientRect() Box {
	if n.clientDirty {
		n.clientRect = computeClientRect(n)
		n.clientDirty = false
	}
	return n.clientRect
}

func computeClientRect(n *Node) Box {
	if !n.attrs.Display {
		return Box{}
	}
	b := n.BBox()
	if n.bboxEmpty {
		return Box{}
	}
	w := n.attrs.LineWidth
	if n.Kind == KindUse && n.source != nil {
		w = math.Max(w, n.source.attrs.LineWidth)
	}
	b = b.Inflate(strokeInflation(w))
	if m, ok := n.GlobalTransform(); ok {
		b = m.TransformBox(b)
	}
	return b
}

// CurrentDirtyRect returns the area the node paints: the client rect rounded
// out to whole pixels, unioned with the shadow and marker areas. A group's
// area also covers its visible children's. Hidden nodes report the zero box.
func (n *Node) CurrentDirtyRect() Box {
	if n.paintDirty {
		n.paintRect = computePaintRect(n)
		n.paintDirty = false
	}
	return n.paintRect
}

func computePaintRect(n *Node) Box {
	if !n.attrs.Display {
		return Box{}
	}
	var acc boxAccumulator
	client := n.ClientRect()
	if !client.IsEmpty() {
		acc.add(client.RoundOut())
		if s := n.attrs.Shadow; s.active() {
			acc.add(client.Offset(s.OffsetX, s.OffsetY).Inflate(s.Blur).RoundOut())
		}
	}
	if ms, ok := n.shape.(MarkerShape); ok {
		if mb, has := ms.MarkerBox(); has {
			if m, ok := n.GlobalTransform(); ok {
				mb = m.TransformBox(mb)
			}
			acc.add(mb.RoundOut())
		}
	}
	if n.Kind == KindUse && n.source != nil && !client.IsEmpty() {
		m, _ := n.GlobalTransform()
		addSourceExtent(&acc, n.source, m, 1)
	}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if cb := c.CurrentDirtyRect(); !cb.IsEmpty() {
			acc.add(cb)
		}
	}
	return acc.box
}

// addSourceExtent adds the area a use node paints for the source subtree s,
// drawn under parent. Every leaf contributes its own stroke, shadow and
// marker area, the same way CanvasPainter draws it.
func addSourceExtent(acc *boxAccumulator, s *Node, parent Matrix, depth int) {
	if !s.attrs.Display || depth > maxUseDepth {
		return
	}
	m := parent
	if local, ok := s.Transform(); ok {
		m = multiplyAffine(parent, local)
	}
	switch s.Kind {
	case KindShape:
		if s.shape == nil {
			return
		}
		b := m.TransformBox(s.BBox().Inflate(strokeInflation(s.attrs.LineWidth)))
		acc.add(b.RoundOut())
		if sh := s.attrs.Shadow; sh.active() {
			acc.add(b.Offset(sh.OffsetX, sh.OffsetY).Inflate(sh.Blur).RoundOut())
		}
		if ms, ok := s.shape.(MarkerShape); ok {
			if mb, has := ms.MarkerBox(); has {
				acc.add(m.TransformBox(mb).RoundOut())
			}
		}
	case KindUse:
		if s.source != nil {
			addSourceExtent(acc, s.source, m, depth+1)
		}
	default:
		for c := s.firstChild; c != nil; c = c.nextSibling {
			addSourceExtent(acc, c, m, depth)
		}
	}
}
