package thicket

// ComputedStyle is the resolved paint style of a node after inheritance.
type ComputedStyle struct {
	Fill      Color
	HasFill   bool
	Stroke    Color
	HasStroke bool
	LineWidth float64
	// Opacity is the product of the node's opacity and every ancestor's.
	Opacity float64
	// Visible is false when the node or any ancestor has Display off.
	Visible bool
}

// ComputedStyle returns the node's resolved style. The value is cached and
// recomputed only after the node or an ancestor changes an inherited
// attribute, so painting never walks the parent chain.
func (n *Node) ComputedStyle() ComputedStyle {
	if !n.styleDirty {
		return n.style
	}
	s := ComputedStyle{Opacity: 1, Visible: true}
	if n.parent != nil {
		s = n.parent.ComputedStyle()
	}
	if n.attrs.Fill != nil {
		s.Fill, s.HasFill = *n.attrs.Fill, true
	}
	if n.attrs.Stroke != nil {
		s.Stroke, s.HasStroke = *n.attrs.Stroke, true
	}
	s.LineWidth = n.attrs.LineWidth
	s.Opacity *= n.attrs.Opacity
	s.Visible = s.Visible && n.attrs.Display
	n.style = s
	n.styleDirty = false
	return s
}

// invalidateStyle drops the computed style of the subtree rooted at n.
func (n *Node) invalidateStyle() {
	n.styleDirty = true
	for c := n.firstChild; c != nil; c = c.nextSibling {
		c.invalidateStyle()
	}
}
