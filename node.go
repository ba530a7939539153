package thicket

import (
	"sync/atomic"
	"time"
)

// --- ID counter ---

// nodeIDCounter is shared by every renderer in the process, so IDs stay
// unique even when independent scenes are built on different goroutines.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// --- Node ---

// Node is the fundamental scene graph element. A single flat struct is used
// for all node kinds; Kind selects the branch taken by geometry and paint code.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Kind NodeKind

	// Key identifies the node across UpdateAll calls. Empty means unkeyed.
	Key string

	// SortByZIndex makes OrderedChildren sort by ZIndex instead of
	// returning insertion order.
	SortByZIndex bool

	// Transition, when set, makes ReplaceAttrs animate numeric attributes
	// instead of assigning them.
	Transition *TransitionOptions

	// OnMount runs on the first tick after the node joins a renderer.
	OnMount func(*Node)

	// Draggable lets the pointer move the node through its drag offset when
	// it runs under Run.
	Draggable bool

	// UserData is an arbitrary payload for the caller.
	UserData any

	attrs  Attrs
	shape  Shape
	source *Node // KindUse
	clip   *Node

	// referrers are the Use nodes and clip users that repaint when this
	// node changes.
	referrers []*Node

	// Hierarchy. The parent owns its children; sibling links are for
	// traversal only.
	parent      *Node
	firstChild  *Node
	lastChild   *Node
	prevSibling *Node
	nextSibling *Node
	childCount  int

	sortedChildren []*Node
	childrenSorted bool

	// Geometry cache
	transform      Matrix
	hasTransform   bool
	transformDirty bool
	global         Matrix
	hasGlobal      bool
	globalDirty    bool
	bbox           Box
	bboxEmpty      bool
	bboxDirty      bool
	clientRect     Box
	clientDirty    bool
	paintRect      Box
	paintDirty     bool
	style          ComputedStyle
	styleDirty     bool
	dragX, dragY   float64

	// Dirty tracking
	dirty            bool
	painted          bool
	inDirtySet       bool
	prevPaintRect    Box
	hasPrevPaint     bool
	dirtyDescendants int
	marking          bool

	// Scheduling
	renderer     *Renderer
	animations   []*animation
	transitions  []*transition
	mountPending bool
	scheduled    bool
	inScheduler  bool
	lastFrame    time.Duration
	hasFrame     bool
	chunks       []*chunk

	destroyed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.attrs = DefaultAttrs()
	n.transformDirty = true
	n.globalDirty = true
	n.bboxDirty = true
	n.clientDirty = true
	n.paintDirty = true
	n.styleDirty = true
	n.childrenSorted = true
}

// NewGroup creates a container node with no geometry of its own.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Kind: KindGroup}
	nodeDefaults(n)
	return n
}

// NewShape creates a leaf node drawing s.
func NewShape(name string, s Shape) *Node {
	n := &Node{Name: name, Kind: KindShape, shape: s}
	nodeDefaults(n)
	return n
}

// NewUse creates a node that repaints src under its own transform. src may
// live anywhere in the tree or outside it; every mutation of src or its
// descendants dirties the use node.
func NewUse(name string, src *Node) *Node {
	n := &Node{Name: name, Kind: KindUse}
	nodeDefaults(n)
	if src == nil || src.destroyed {
		warnf("NewUse %q: source is nil or destroyed", name)
		return n
	}
	n.source = src
	src.addReferrer(n)
	return n
}

// Shape returns the node's shape, or nil for groups and use nodes.
func (n *Node) Shape() Shape { return n.shape }

// Source returns the node referenced by a use node.
func (n *Node) Source() *Node { return n.source }

// Clip returns the node's clip source, or nil.
func (n *Node) Clip() *Node { return n.clip }

// Attrs returns a copy of the node's attributes.
func (n *Node) Attrs() Attrs { return n.attrs }

// Renderer returns the renderer the node is attached to, or nil.
func (n *Node) Renderer() *Renderer { return n.renderer }

// IsDestroyed reports whether the node was removed from its parent.
func (n *Node) IsDestroyed() bool { return n.destroyed }

// IsDirty reports whether the node's output differs from what was last painted.
func (n *Node) IsDirty() bool { return n.dirty }

// --- Hierarchy accessors ---

func (n *Node) Parent() *Node      { return n.parent }
func (n *Node) FirstChild() *Node  { return n.firstChild }
func (n *Node) LastChild() *Node   { return n.lastChild }
func (n *Node) NextSibling() *Node { return n.nextSibling }
func (n *Node) PrevSibling() *Node { return n.prevSibling }
func (n *Node) NumChildren() int   { return n.childCount }

// Children returns a snapshot of the children in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.childCount)
	for c := n.firstChild; c != nil; c = c.nextSibling {
		out = append(out, c)
	}
	return out
}

// OrderedChildren returns the children in paint order. Without SortByZIndex
// this is insertion order; with it, a stable sort by ZIndex. The returned
// slice is reused between calls and MUST NOT be mutated by the caller.
func (n *Node) OrderedChildren() []*Node {
	if !n.childrenSorted || len(n.sortedChildren) != n.childCount {
		n.rebuildSortedChildren()
	}
	return n.sortedChildren
}

// rebuildSortedChildren rebuilds the traversal order.
// Uses insertion sort: zero allocations, stable, and O(n) when the children
// are already nearly sorted.
func (n *Node) rebuildSortedChildren() {
	nc := n.childCount
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	i := 0
	for c := n.firstChild; c != nil; c = c.nextSibling {
		n.sortedChildren[i] = c
		i++
	}
	if n.SortByZIndex {
		for i := 1; i < nc; i++ {
			key := n.sortedChildren[i]
			j := i - 1
			for j >= 0 && n.sortedChildren[j].attrs.ZIndex > key.attrs.ZIndex {
				n.sortedChildren[j+1] = n.sortedChildren[j]
				j--
			}
			n.sortedChildren[j+1] = key
		}
	}
	n.childrenSorted = true
}

// Contains reports whether d is n or one of its descendants.
func (n *Node) Contains(d *Node) bool {
	return isAncestor(n, d)
}

// --- Helpers ---

// isAncestor reports whether candidate is node or an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// link inserts child before ref, or at the tail when ref is nil.
// child must be unlinked.
func (n *Node) link(child, ref *Node) {
	child.parent = n
	if ref == nil {
		child.prevSibling = n.lastChild
		child.nextSibling = nil
		if n.lastChild != nil {
			n.lastChild.nextSibling = child
		} else {
			n.firstChild = child
		}
		n.lastChild = child
	} else {
		child.nextSibling = ref
		child.prevSibling = ref.prevSibling
		if ref.prevSibling != nil {
			ref.prevSibling.nextSibling = child
		} else {
			n.firstChild = child
		}
		ref.prevSibling = child
	}
	n.childCount++
	n.childrenSorted = false
}

// unlink removes child from the sibling chain in O(1).
func (n *Node) unlink(child *Node) {
	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else {
		n.firstChild = child.nextSibling
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	} else {
		n.lastChild = child.prevSibling
	}
	child.prevSibling = nil
	child.nextSibling = nil
	child.parent = nil
	n.childCount--
	n.childrenSorted = false
}

func (n *Node) addReferrer(ref *Node) {
	for _, r := range n.referrers {
		if r == ref {
			return
		}
	}
	n.referrers = append(n.referrers, ref)
}

func (n *Node) removeReferrer(ref *Node) {
	for i, r := range n.referrers {
		if r == ref {
			copy(n.referrers[i:], n.referrers[i+1:])
			n.referrers[len(n.referrers)-1] = nil
			n.referrers = n.referrers[:len(n.referrers)-1]
			return
		}
	}
}

// leafCountExceeds reports whether the subtree below n holds more than limit
// leaves. The walk stops as soon as the answer is known.
func (n *Node) leafCountExceeds(limit int) bool {
	count := 0
	var walk func(*Node) bool
	walk = func(p *Node) bool {
		if p.firstChild == nil {
			count++
			return count > limit
		}
		for c := p.firstChild; c != nil; c = c.nextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	return n.Kind == KindGroup && walk(n)
}
