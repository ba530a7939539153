package thicket

// MarkDirty records that the node's visual output no longer matches what
// was last painted. Attribute setters call it before they mutate, so the
// first call of a dirty episode snapshots the pre-mutation paint area.
//
// When incremental repaint is disabled, the renderer already tracks more
// dirty nodes than Config.MaxDirtyRects, or the node is a group with more
// leaves than that cap, the snapshot is skipped and the next frame falls
// back to a full repaint.
func (n *Node) MarkDirty() {
	if n.destroyed || n.marking {
		return
	}
	r := n.renderer
	if r == nil || !n.inTree(r) {
		// Detached content reaches the screen only through its referrers.
		n.marking = true
		n.dirtyReferrers()
		n.marking = false
		return
	}
	first := !n.dirty
	if r.overDirtyCap() || n.leafCountExceeds(r.cfg.MaxDirtyRects) {
		r.forceFull = true
	} else if n.painted && !n.hasPrevPaint {
		n.prevPaintRect = n.CurrentDirtyRect()
		n.hasPrevPaint = true
	}
	r.addDirty(n)
	n.dirty = true
	n.dirtyReferrers()
	if first {
		n.notifyChildDirty(r)
	}
}

// dirtyReferrers dirties every use node and clip user showing n or one of
// its ancestors.
func (n *Node) dirtyReferrers() {
	for p := n; p != nil; p = p.parent {
		for _, ref := range p.referrers {
			if !ref.dirty {
				ref.MarkDirty()
			}
		}
	}
}

// notifyChildDirty counts the new dirty descendant on every ancestor. An
// ancestor holding more than the cap makes the next frame a full repaint.
func (n *Node) notifyChildDirty(r *Renderer) {
	for p := n.parent; p != nil; p = p.parent {
		p.dirtyDescendants++
		if p.dirtyDescendants > r.cfg.MaxDirtyRects {
			r.forceFull = true
		}
	}
}

// uncountDirty takes the dirty nodes of the subtree rooted at n off every
// ancestor's count before n leaves the tree.
func (n *Node) uncountDirty() {
	k := n.dirtyDescendants
	if n.dirty {
		k++
	}
	if k == 0 {
		return
	}
	for p := n.parent; p != nil; p = p.parent {
		p.dirtyDescendants = max(p.dirtyDescendants-k, 0)
	}
}

// markSubtreeDirty dirties n and every descendant, for changes to inherited
// attributes.
func (n *Node) markSubtreeDirty() {
	n.MarkDirty()
	for c := n.firstChild; c != nil; c = c.nextSibling {
		c.markSubtreeDirty()
	}
}

// DirtyRects returns the areas to repaint for this node: the current paint
// area, preceded by the area snapshotted before the first mutation of the
// episode when there is one.
func (n *Node) DirtyRects() []Box {
	cur := n.CurrentDirtyRect()
	if n.hasPrevPaint {
		return []Box{n.prevPaintRect, cur}
	}
	return []Box{cur}
}

// PreviousPaintRect returns the snapshot taken at the start of the current
// dirty episode.
func (n *Node) PreviousPaintRect() (Box, bool) {
	return n.prevPaintRect, n.hasPrevPaint
}

// ClearDirty resets the dirty flag after the node was painted and records
// that it has been painted at least once. Calling it twice is harmless.
func (n *Node) ClearDirty() {
	n.dirty = false
	n.painted = true
	n.hasPrevPaint = false
	n.prevPaintRect = Box{}
	n.dirtyDescendants = 0
}

// inTree reports whether n hangs below r's root. Clip sources and detached
// use sources carry a renderer for scheduling but paint nothing themselves.
func (n *Node) inTree(r *Renderer) bool {
	p := n
	for p.parent != nil {
		p = p.parent
	}
	return p == r.root
}
