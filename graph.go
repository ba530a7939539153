package thicket

// Add appends child at the tail of n's children and returns it.
//
// Re-adding a node that is already a child of n moves it to the tail without
// running its mount lifecycle again. Adding a node that is still attached to
// another parent is a contract violation: a warning is logged and nothing
// changes. Call Remove on the old parent first.
func (n *Node) Add(child *Node) *Node {
	return n.InsertBefore(child, nil)
}

// AppendChild is an alias for Add.
func (n *Node) AppendChild(child *Node) *Node {
	return n.Add(child)
}

// InsertBefore links child into n's children immediately before ref, or at
// the tail when ref is nil. The rules for re-inserting an existing child and
// for attached children match Add.
func (n *Node) InsertBefore(child, ref *Node) *Node {
	if !n.checkInsert(child, ref) {
		return nil
	}
	if child.parent == n {
		if child == ref || child.nextSibling == ref {
			return child
		}
		// Paint order changes, so the area under the child repaints.
		child.MarkDirty()
		n.unlink(child)
		n.link(child, ref)
		return child
	}

	n.link(child, ref)
	child.invalidateGlobal()
	child.invalidateStyle()
	n.invalidateBBox()
	if n.renderer != nil {
		child.attach(n.renderer)
	}
	child.MarkDirty()
	if n.debugging() {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
	return child
}

// checkInsert validates an insertion, logging a warning when it is refused.
func (n *Node) checkInsert(child, ref *Node) bool {
	switch {
	case n.destroyed:
		warnf("insert into destroyed node %q (id %d)", n.Name, n.ID)
	case child == nil:
		warnf("insert nil child into %q", n.Name)
	case child.destroyed:
		warnf("insert destroyed node %q (id %d) into %q", child.Name, child.ID, n.Name)
	case n.Kind != KindGroup:
		warnf("insert %q into %s node %q: only groups have children", child.Name, n.Kind, n.Name)
	case ref != nil && ref.parent != n:
		warnf("insert %q before %q: reference is not a child of %q", child.Name, ref.Name, n.Name)
	case child.parent != nil && child.parent != n:
		warnf("insert %q into %q: node is still attached to %q", child.Name, n.Name, child.parent.Name)
	case child.parent == nil && isAncestor(child, n):
		warnf("insert %q into %q would create a cycle", child.Name, n.Name)
	case n.renderer != nil && child.renderer != nil && child.renderer != n.renderer:
		warnf("insert %q into %q: node belongs to another renderer", child.Name, n.Name)
	default:
		return true
	}
	return false
}

// Remove unlinks child, schedules its last painted area for clearing,
// destroys it and its subtree, and dirties n's bounding box. Removing a node
// that is not a child of n logs a warning and does nothing.
func (n *Node) Remove(child *Node) {
	if child == nil || child.parent != n {
		name := "<nil>"
		if child != nil {
			name = child.Name
		}
		warnf("remove %q from %q: not a child", name, n.Name)
		return
	}
	if r := n.renderer; r != nil {
		r.vacate(child)
	}
	n.dirtyReferrers()
	child.uncountDirty()
	n.unlink(child)
	n.invalidateBBox()
	child.destroy()
}

// RemoveFromParent removes n from its parent. No-op for detached nodes.
func (n *Node) RemoveFromParent() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// RemoveChildren removes and destroys every child of n.
func (n *Node) RemoveChildren() {
	for n.lastChild != nil {
		n.Remove(n.lastChild)
	}
}

// detachChildren unlinks every child without destroying it and returns them
// in order. Used to hand a template's children to reconciliation.
func (n *Node) detachChildren() []*Node {
	kids := n.Children()
	for _, c := range kids {
		n.unlink(c)
	}
	n.invalidateBBox()
	return kids
}

// attach binds the subtree rooted at n to r, scheduling pending mount
// callbacks, animations and chunks.
func (n *Node) attach(r *Renderer) {
	if n.renderer == r {
		return
	}
	n.renderer = r
	n.hasFrame = false
	if n.OnMount != nil {
		n.mountPending = true
	}
	if n.mountPending || len(n.animations) > 0 || len(n.transitions) > 0 {
		r.scheduler.schedule(n)
	}
	for _, c := range n.chunks {
		r.chunks = append(r.chunks, c)
	}
	n.chunks = nil
	if n.clip != nil {
		n.clip.attach(r)
	}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		c.attach(r)
	}
}

// destroy releases caches, scheduler entries and reference links for the
// subtree rooted at n. The node keeps its ID; IDs are never reused.
func (n *Node) destroy() {
	if n.destroyed {
		return
	}
	r := n.renderer
	for c := n.firstChild; c != nil; {
		next := c.nextSibling
		c.parent = nil
		c.prevSibling = nil
		c.nextSibling = nil
		c.destroy()
		c = next
	}
	n.firstChild = nil
	n.lastChild = nil
	n.childCount = 0
	n.sortedChildren = nil

	if r != nil {
		r.scheduler.unschedule(n)
		r.forget(n)
		if rm, ok := r.painter.(NodeRemover); ok {
			rm.RemoveNode(n.ID)
		}
	}
	if n.source != nil {
		n.source.removeReferrer(n)
		n.source = nil
	}
	if n.clip != nil {
		n.clip.removeReferrer(n)
		n.clip = nil
	}
	for _, ref := range n.referrers {
		switch {
		case ref.source == n:
			ref.MarkDirty()
			ref.source = nil
			ref.invalidateBBox()
		case ref.clip == n:
			ref.MarkDirty()
			ref.clip = nil
		}
	}
	n.referrers = nil
	n.animations = nil
	n.transitions = nil
	n.chunks = nil
	n.mountPending = false
	n.dirty = false
	n.hasPrevPaint = false
	n.renderer = nil
	n.parent = nil
	n.prevSibling = nil
	n.nextSibling = nil
	n.OnMount = nil
	n.destroyed = true
}
