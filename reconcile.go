package thicket

import (
	"reflect"
	"strconv"
)

// reconcileKey is the identity of a child across UpdateAll calls: its Key
// when set, otherwise its position combined with its kind and shape type.
func reconcileKey(n *Node, index int) string {
	if n.Key != "" {
		return "k:" + n.Key
	}
	t := ""
	if n.shape != nil {
		t = reflect.TypeOf(n.shape).String()
	}
	return "i:" + strconv.Itoa(index) + ":" + n.Kind.String() + ":" + t
}

// compatible reports whether prev can take over next's attributes.
func compatible(prev, next *Node) bool {
	if prev.Kind != next.Kind {
		return false
	}
	if prev.shape == nil || next.shape == nil {
		return prev.shape == next.shape
	}
	return reflect.TypeOf(prev.shape) == reflect.TypeOf(next.shape)
}

// UpdateAll reconciles n's children against next.
//
// Children are matched by reconcileKey. Matched children stay in the tree:
// when next holds a different instance its attributes are copied over with
// ReplaceAttrs and group children are reconciled recursively. Unmatched old
// children are removed, unmatched new ones are inserted, and matched ones
// at a different position are relinked without being recreated. Passing the
// current children in their current order changes nothing.
//
// Nodes in next that are not kept become owned by n; matched instances
// that were copied from are discarded and must not be reused.
func (n *Node) UpdateAll(next []*Node) {
	if !n.writable("UpdateAll") {
		return
	}
	if n.Kind != KindGroup {
		warnf("UpdateAll on %s node %q", n.Kind, n.Name)
		return
	}

	prev := n.Children()
	byKey := make(map[string]*Node, len(prev))
	for i, c := range prev {
		k := reconcileKey(c, i)
		if _, dup := byKey[k]; dup {
			warnf("UpdateAll %q: duplicate key %q", n.Name, c.Key)
			continue
		}
		byKey[k] = c
	}

	result := make([]*Node, 0, len(next))
	kept := make(map[*Node]bool, len(prev))
	for i, nx := range next {
		if nx == nil || kept[nx] {
			continue
		}
		if nx.parent == n {
			kept[nx] = true
			result = append(result, nx)
			continue
		}
		if p, ok := byKey[reconcileKey(nx, i)]; ok && !kept[p] && compatible(p, nx) {
			kept[p] = true
			p.ReplaceAttrs(nx)
			if p.Kind == KindGroup {
				p.UpdateAll(nx.detachChildren())
			}
			result = append(result, p)
			continue
		}
		if nx.parent != nil || nx.destroyed {
			warnf("UpdateAll %q: node %q is attached elsewhere or destroyed", n.Name, nx.Name)
			continue
		}
		kept[nx] = true
		result = append(result, nx)
	}

	for _, c := range prev {
		if !kept[c] {
			n.Remove(c)
		}
	}

	// Relink in order. cur walks the live chain; every node before it is
	// already in place.
	cur := n.firstChild
	for _, want := range result {
		if want == cur {
			cur = cur.nextSibling
			continue
		}
		n.InsertBefore(want, cur)
	}
}

// ReplaceAttrs copies src's attributes onto n. Numeric attributes move
// through TransitionTo when n.Transition is set, and are assigned otherwise.
// src is not modified.
func (n *Node) ReplaceAttrs(src *Node) {
	if !n.writable("ReplaceAttrs") || src == nil || src == n {
		return
	}
	n.Name = src.Name
	n.Key = src.Key
	n.SortByZIndex = src.SortByZIndex
	if n.SortByZIndex {
		n.childrenSorted = false
	}
	n.Draggable = src.Draggable
	if src.OnMount != nil {
		n.OnMount = src.OnMount
	}

	a, b := &n.attrs, &src.attrs
	n.SetOrigin(b.OriginX, b.OriginY)
	n.SetMatrix(b.Matrix)
	n.SetDisplay(b.Display)
	if b.Fill != nil {
		n.SetFill(*b.Fill)
	} else if a.Fill != nil {
		n.InheritFill()
	}
	if b.Stroke != nil {
		n.SetStroke(*b.Stroke)
	} else if a.Stroke != nil {
		n.InheritStroke()
	}
	if b.Shadow.Color != a.Shadow.Color {
		s := a.Shadow
		s.Color = b.Shadow.Color
		n.SetShadow(s)
	}

	if n.Kind == KindUse && n.source != src.source && src.source != nil {
		n.setSource(src.source)
	}
	if _, ok := n.shape.(ParamShape); !ok && n.shape != src.shape && src.shape != nil {
		n.SetShape(src.shape)
	}
	if src.clip != n.clip {
		n.SetClip(src.clip)
	}

	for _, k := range n.animatableKeys() {
		want, ok := src.Get(k)
		if !ok {
			continue
		}
		if k == AttrOriginX || k == AttrOriginY {
			continue
		}
		have, _ := n.Get(k)
		if have == want {
			continue
		}
		if n.Transition != nil && n.Transition.Duration > 0 {
			n.TransitionTo(k, want, *n.Transition)
		} else {
			n.Set(k, want)
		}
	}
}

// setSource points a use node at a different source.
func (n *Node) setSource(src *Node) {
	if src.destroyed {
		return
	}
	n.MarkDirty()
	if n.source != nil {
		n.source.removeReferrer(n)
	}
	n.source = src
	src.addReferrer(n)
	n.invalidateBBox()
}
