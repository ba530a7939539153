package thicket

import (
	"math"
	"slices"
)

// Shadow is a drop shadow painted under a node. Offsets are in render
// coordinates. Blur softens the edge: CanvasPainter fades it out over Blur
// render units with a few translucent rings, and the painted area grows by
// Blur on every side. The svgdom painter does not draw shadows.
type Shadow struct {
	OffsetX, OffsetY float64
	Blur             float64
	Color            Color
}

func (s Shadow) active() bool {
	return s.Color.A > 0 && (s.Blur > 0 || s.OffsetX != 0 || s.OffsetY != 0)
}

// Attrs holds the typed attributes of a node. They are the single source of
// truth for every cached value derived from them.
type Attrs struct {
	X, Y             float64
	Rotation         float64 // radians
	ScaleX, ScaleY   float64
	OriginX, OriginY Coord
	Matrix           *Matrix // applied after scale, before the sticky offset
	StickyX, StickyY float64

	Display   bool
	LineWidth float64
	Fill      *Color // nil inherits from the parent
	Stroke    *Color // nil inherits from the parent
	Opacity   float64
	Shadow    Shadow
	ZIndex    int
}

// DefaultAttrs returns the attributes every constructor starts from.
func DefaultAttrs() Attrs {
	return Attrs{
		ScaleX:    1,
		ScaleY:    1,
		Display:   true,
		LineWidth: 1,
		Opacity:   1,
	}
}

// Numeric attribute names accepted by Get, Set, Animate and TransitionTo.
// Shape parameters (see ParamShape) are addressed by their own names.
const (
	AttrX          = "x"
	AttrY          = "y"
	AttrRotation   = "rotation"
	AttrScaleX     = "scaleX"
	AttrScaleY     = "scaleY"
	AttrOriginX    = "originX"
	AttrOriginY    = "originY"
	AttrStickyX    = "stickyX"
	AttrStickyY    = "stickyY"
	AttrLineWidth  = "lineWidth"
	AttrOpacity    = "opacity"
	AttrZIndex     = "zIndex"
	AttrShadowX    = "shadowOffsetX"
	AttrShadowY    = "shadowOffsetY"
	AttrShadowBlur = "shadowBlur"
	AttrDisplay    = "display"
)

// nodeAttrKeys lists the numeric node attributes in a fixed order.
var nodeAttrKeys = []string{
	AttrX, AttrY, AttrRotation, AttrScaleX, AttrScaleY,
	AttrOriginX, AttrOriginY, AttrStickyX, AttrStickyY,
	AttrLineWidth, AttrOpacity, AttrZIndex,
	AttrShadowX, AttrShadowY, AttrShadowBlur,
}

// Get returns the numeric value of a node attribute or shape parameter.
func (n *Node) Get(key string) (float64, bool) {
	a := &n.attrs
	switch key {
	case AttrX:
		return a.X, true
	case AttrY:
		return a.Y, true
	case AttrRotation:
		return a.Rotation, true
	case AttrScaleX:
		return a.ScaleX, true
	case AttrScaleY:
		return a.ScaleY, true
	case AttrOriginX:
		return a.OriginX.Value, !a.OriginX.IsKeyword()
	case AttrOriginY:
		return a.OriginY.Value, !a.OriginY.IsKeyword()
	case AttrStickyX:
		return a.StickyX, true
	case AttrStickyY:
		return a.StickyY, true
	case AttrLineWidth:
		return a.LineWidth, true
	case AttrOpacity:
		return a.Opacity, true
	case AttrZIndex:
		return float64(a.ZIndex), true
	case AttrShadowX:
		return a.Shadow.OffsetX, true
	case AttrShadowY:
		return a.Shadow.OffsetY, true
	case AttrShadowBlur:
		return a.Shadow.Blur, true
	case AttrDisplay:
		if a.Display {
			return 1, true
		}
		return 0, true
	}
	if ps, ok := n.shape.(ParamShape); ok {
		return ps.Param(key)
	}
	return 0, false
}

// Set assigns a numeric attribute or shape parameter by name. It reports
// whether the key is known and the value was accepted.
func (n *Node) Set(key string, v float64) bool {
	if !n.writable("Set "+key, v) {
		return false
	}
	a := &n.attrs
	switch key {
	case AttrX:
		n.SetPosition(v, a.Y)
	case AttrY:
		n.SetPosition(a.X, v)
	case AttrRotation:
		n.SetRotation(v)
	case AttrScaleX:
		n.SetScale(v, a.ScaleY)
	case AttrScaleY:
		n.SetScale(a.ScaleX, v)
	case AttrOriginX:
		n.SetOrigin(Abs(v), a.OriginY)
	case AttrOriginY:
		n.SetOrigin(a.OriginX, Abs(v))
	case AttrStickyX:
		n.SetSticky(v, a.StickyY)
	case AttrStickyY:
		n.SetSticky(a.StickyX, v)
	case AttrLineWidth:
		n.SetLineWidth(v)
	case AttrOpacity:
		n.SetOpacity(v)
	case AttrZIndex:
		n.SetZIndex(int(math.Round(v)))
	case AttrShadowX:
		s := a.Shadow
		s.OffsetX = v
		n.SetShadow(s)
	case AttrShadowY:
		s := a.Shadow
		s.OffsetY = v
		n.SetShadow(s)
	case AttrShadowBlur:
		s := a.Shadow
		s.Blur = v
		n.SetShadow(s)
	case AttrDisplay:
		n.SetDisplay(v != 0)
	default:
		return n.SetParam(key, v)
	}
	return true
}

// writable reports whether n may be mutated with the given values. Destroyed
// nodes and non-finite numbers are refused with a warning.
func (n *Node) writable(op string, vals ...float64) bool {
	if n.destroyed {
		debugWarnDestroyed(n, op)
		return false
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			warnf("%s on %q (id %d): rejected non-finite value %v", op, n.Name, n.ID, v)
			return false
		}
	}
	return true
}

// --- Transform attributes ---

// SetPosition sets the translation.
func (n *Node) SetPosition(x, y float64) {
	if !n.writable("SetPosition", x, y) || (n.attrs.X == x && n.attrs.Y == y) {
		return
	}
	n.MarkDirty()
	n.attrs.X, n.attrs.Y = x, y
	n.invalidateTransform()
}

// SetRotation sets the rotation in radians around the origin.
func (n *Node) SetRotation(rad float64) {
	if !n.writable("SetRotation", rad) || n.attrs.Rotation == rad {
		return
	}
	n.MarkDirty()
	n.attrs.Rotation = rad
	n.invalidateTransform()
}

// SetScale sets the scale factors around the origin.
func (n *Node) SetScale(sx, sy float64) {
	if !n.writable("SetScale", sx, sy) || (n.attrs.ScaleX == sx && n.attrs.ScaleY == sy) {
		return
	}
	n.MarkDirty()
	n.attrs.ScaleX, n.attrs.ScaleY = sx, sy
	n.invalidateTransform()
}

// SetOrigin sets the rotation and scale origin.
func (n *Node) SetOrigin(x, y Coord) {
	if !n.writable("SetOrigin", x.Value, y.Value) || (n.attrs.OriginX == x && n.attrs.OriginY == y) {
		return
	}
	n.MarkDirty()
	n.attrs.OriginX, n.attrs.OriginY = x, y
	n.invalidateTransform()
}

// SetMatrix sets the explicit override matrix; nil removes it.
func (n *Node) SetMatrix(m *Matrix) {
	var vals []float64
	if m != nil {
		vals = m[:]
	}
	if !n.writable("SetMatrix", vals...) {
		return
	}
	if (m == nil && n.attrs.Matrix == nil) || (m != nil && n.attrs.Matrix != nil && *m == *n.attrs.Matrix) {
		return
	}
	n.MarkDirty()
	if m != nil {
		cp := *m
		n.attrs.Matrix = &cp
	} else {
		n.attrs.Matrix = nil
	}
	n.invalidateTransform()
}

// SetSticky sets the translation applied after every other transform
// component, used to pin content while its parent scrolls.
func (n *Node) SetSticky(x, y float64) {
	if !n.writable("SetSticky", x, y) || (n.attrs.StickyX == x && n.attrs.StickyY == y) {
		return
	}
	n.MarkDirty()
	n.attrs.StickyX, n.attrs.StickyY = x, y
	n.invalidateTransform()
}

// SetDragOffset sets the drag translation applied in front of the parent's
// global transform. The event layer calls it while a node is dragged.
func (n *Node) SetDragOffset(dx, dy float64) {
	if !n.writable("SetDragOffset", dx, dy) || (n.dragX == dx && n.dragY == dy) {
		return
	}
	n.MarkDirty()
	n.dragX, n.dragY = dx, dy
	n.invalidateGlobal()
	if n.parent != nil {
		// The group's paint area follows its children.
		n.parent.invalidateBBox()
	}
}

// DragOffset returns the current drag translation.
func (n *Node) DragOffset() (float64, float64) { return n.dragX, n.dragY }

// --- Geometry and paint attributes ---

// SetDisplay shows or hides the node. Hidden nodes contribute nothing to
// their parent's bounding box and report a zero paint area.
func (n *Node) SetDisplay(visible bool) {
	if !n.writable("SetDisplay") || n.attrs.Display == visible {
		return
	}
	n.markSubtreeDirty()
	n.attrs.Display = visible
	n.invalidateBBox()
	n.invalidatePaint()
	n.invalidateStyle()
}

// SetLineWidth sets the stroke width. It affects the client rect only.
func (n *Node) SetLineWidth(w float64) {
	if !n.writable("SetLineWidth", w) || n.attrs.LineWidth == w {
		return
	}
	n.MarkDirty()
	n.attrs.LineWidth = w
	n.invalidateClient()
	n.invalidateStyle()
}

// SetFill sets the fill color.
func (n *Node) SetFill(c Color) {
	n.setPaint("SetFill", &n.attrs.Fill, &c)
}

// SetStroke sets the stroke color.
func (n *Node) SetStroke(c Color) {
	n.setPaint("SetStroke", &n.attrs.Stroke, &c)
}

// InheritFill drops the node's own fill so it inherits its parent's.
func (n *Node) InheritFill() { n.setPaint("InheritFill", &n.attrs.Fill, nil) }

// InheritStroke drops the node's own stroke so it inherits its parent's.
func (n *Node) InheritStroke() { n.setPaint("InheritStroke", &n.attrs.Stroke, nil) }

func (n *Node) setPaint(op string, dst **Color, c *Color) {
	var vals []float64
	if c != nil {
		vals = []float64{c.R, c.G, c.B, c.A}
	}
	if !n.writable(op, vals...) {
		return
	}
	if (*dst == nil && c == nil) || (*dst != nil && c != nil && **dst == *c) {
		return
	}
	n.markSubtreeDirty()
	*dst = c
	n.invalidateStyle()
}

// SetOpacity sets the opacity multiplied into every descendant.
func (n *Node) SetOpacity(o float64) {
	if !n.writable("SetOpacity", o) || n.attrs.Opacity == o {
		return
	}
	n.markSubtreeDirty()
	n.attrs.Opacity = o
	n.invalidateStyle()
}

// SetShadow sets the drop shadow.
func (n *Node) SetShadow(s Shadow) {
	if !n.writable("SetShadow", s.OffsetX, s.OffsetY, s.Blur, s.Color.A) || n.attrs.Shadow == s {
		return
	}
	n.MarkDirty()
	n.attrs.Shadow = s
	n.invalidatePaint()
}

// SetZIndex sets the node's ZIndex and marks the parent's order as unsorted.
// It only changes paint order when the parent has SortByZIndex set.
func (n *Node) SetZIndex(z int) {
	if !n.writable("SetZIndex") || n.attrs.ZIndex == z {
		return
	}
	n.MarkDirty()
	n.attrs.ZIndex = z
	if n.parent != nil {
		n.parent.childrenSorted = false
	}
}

// --- Shape attributes ---

// SetShape replaces the node's shape.
func (n *Node) SetShape(s Shape) {
	if !n.writable("SetShape") {
		return
	}
	if n.Kind != KindShape {
		warnf("SetShape on %s node %q", n.Kind, n.Name)
		return
	}
	n.MarkDirty()
	n.shape = s
	n.invalidateBBox()
}

// SetParam sets a named shape parameter such as "cx" or "r".
func (n *Node) SetParam(name string, v float64) bool {
	if !n.writable("SetParam "+name, v) {
		return false
	}
	ps, ok := n.shape.(ParamShape)
	if !ok {
		warnf("SetParam %q on %q: shape has no parameters", name, n.Name)
		return false
	}
	cur, ok := ps.Param(name)
	if !ok {
		warnf("SetParam on %q: unknown parameter %q", n.Name, name)
		return false
	}
	if cur == v {
		return true
	}
	n.MarkDirty()
	ps.SetParam(name, v)
	n.invalidateBBox()
	return true
}

// UpdateShape runs fn on the node's shape between the dirty snapshot and
// the bbox invalidation. Use it for edits SetParam cannot express, such as
// replacing polygon points.
func (n *Node) UpdateShape(fn func(Shape)) {
	if !n.writable("UpdateShape") || n.shape == nil {
		return
	}
	n.MarkDirty()
	fn(n.shape)
	n.invalidateBBox()
}

// SetClip clips the node to the fill area of clip. clip is positioned in the
// node's local coordinates and is not part of the tree; nil removes the clip.
func (n *Node) SetClip(clip *Node) {
	if !n.writable("SetClip") || n.clip == clip {
		return
	}
	if clip != nil && (clip.destroyed || clip.Kind != KindShape || clip.parent != nil) {
		warnf("SetClip on %q: clip must be a detached shape node", n.Name)
		return
	}
	n.MarkDirty()
	if n.clip != nil {
		n.clip.removeReferrer(n)
	}
	n.clip = clip
	if clip != nil {
		clip.addReferrer(n)
		if n.renderer != nil {
			clip.attach(n.renderer)
		}
	}
}

// animatableKeys returns the numeric keys ReplaceAttrs compares, memoized per
// shape type by the renderer's registry when one is available.
func (n *Node) animatableKeys() []string {
	if n.renderer != nil {
		return n.renderer.registry.Keys(n)
	}
	return computeAnimatableKeys(n)
}

func computeAnimatableKeys(n *Node) []string {
	keys := slices.Clone(nodeAttrKeys)
	if ps, ok := n.shape.(ParamShape); ok {
		keys = append(keys, ps.ParamNames()...)
	}
	return keys
}
