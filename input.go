package thicket

import "math"

const defaultDragDeadZone = 4.0 // pixels

// --- Hit testing ---

// IsInShape reports whether the render-space point (x, y) falls on the
// node's fill, or on its stroke when it has one. The client rect is used as
// a broad phase. Points that cannot be mapped through a singular transform
// are outside.
func (n *Node) IsInShape(x, y float64) bool {
	if n.destroyed || !n.ComputedStyle().Visible {
		return false
	}
	if !n.CurrentDirtyRect().Contains(x, y) {
		return false
	}
	lx, ly, ok := n.toLocal(x, y)
	if !ok {
		return false
	}
	return hitLocalContent(n, lx, ly)
}

// IsInClip reports whether (x, y) lies inside the node's clip. Nodes
// without a clip accept every point.
func (n *Node) IsInClip(x, y float64) bool {
	if n.clip == nil {
		return true
	}
	lx, ly, ok := n.toLocal(x, y)
	if !ok {
		return false
	}
	return hitInParent(n.clip, lx, ly, false)
}

// toLocal maps a render-space point into the node's local space.
func (n *Node) toLocal(x, y float64) (float64, float64, bool) {
	m, has := n.GlobalTransform()
	if !has {
		return x, y, true
	}
	inv, ok := m.Invert()
	if !ok {
		return 0, 0, false
	}
	lx, ly := inv.Apply(x, y)
	return lx, ly, true
}

// hitInParent tests a point given in n's parent space against n's content.
func hitInParent(n *Node, x, y float64, stroke bool) bool {
	if !n.attrs.Display {
		return false
	}
	if m, has := n.Transform(); has {
		inv, ok := m.Invert()
		if !ok {
			return false
		}
		x, y = inv.Apply(x, y)
	}
	if !stroke {
		return n.shape != nil && n.shape.IsPointInFill(x, y)
	}
	return hitLocalContent(n, x, y)
}

// hitLocalContent tests a point given in n's local space.
func hitLocalContent(n *Node, x, y float64) bool {
	switch n.Kind {
	case KindShape:
		if n.shape == nil {
			return false
		}
		if n.shape.IsPointInFill(x, y) {
			return true
		}
		return n.ComputedStyle().HasStroke && n.shape.IsPointInStroke(x, y, n.attrs.LineWidth)
	case KindUse:
		return n.source != nil && hitInParent(n.source, x, y, true)
	default:
		for c := n.firstChild; c != nil; c = c.nextSibling {
			if hitInParent(c, x, y, true) {
				return true
			}
		}
		return false
	}
}

// HitTest returns the topmost visible leaf at the render-space point
// (x, y), following paint order, or nil.
func (r *Renderer) HitTest(x, y float64) *Node {
	return hitTestNode(r.root, x, y)
}

func hitTestNode(n *Node, x, y float64) *Node {
	if !n.attrs.Display || !n.CurrentDirtyRect().Contains(x, y) || !n.IsInClip(x, y) {
		return nil
	}
	if n.Kind != KindGroup {
		if n.IsInShape(x, y) {
			return n
		}
		return nil
	}
	kids := n.OrderedChildren()
	for i := len(kids) - 1; i >= 0; i-- {
		if hit := hitTestNode(kids[i], x, y); hit != nil {
			return hit
		}
	}
	return nil
}

// --- Dragging ---

// pointerState runs the press/drag/release state machine for one pointer
// and moves Draggable nodes through their drag offset.
type pointerState struct {
	down         bool
	dragging     bool
	startX       float64
	startY       float64
	baseDX       float64
	baseDY       float64
	hitNode      *Node
	dragDeadZone float64
}

// update feeds one pointer sample in render coordinates.
func (ps *pointerState) update(r *Renderer, x, y float64, pressed bool) {
	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.dragging = false
		ps.startX, ps.startY = x, y
		ps.hitNode = draggableAncestor(r.HitTest(x, y))
		if ps.hitNode != nil {
			ps.baseDX, ps.baseDY = ps.hitNode.DragOffset()
		}
	case pressed && ps.down:
		if ps.hitNode == nil || ps.hitNode.destroyed {
			return
		}
		dx, dy := x-ps.startX, y-ps.startY
		if !ps.dragging {
			dz := ps.dragDeadZone
			if dz == 0 {
				dz = defaultDragDeadZone
			}
			if math.Hypot(dx, dy) <= dz {
				return
			}
			ps.dragging = true
		}
		ps.hitNode.SetDragOffset(ps.baseDX+dx, ps.baseDY+dy)
	case !pressed && ps.down:
		ps.down = false
		ps.dragging = false
		ps.hitNode = nil
	}
}

// draggableAncestor returns the nearest node at or above n with Draggable set.
func draggableAncestor(n *Node) *Node {
	for p := n; p != nil; p = p.parent {
		if p.Draggable {
			return p
		}
	}
	return nil
}
