package thicket

import "math"

// Matrix is a 2D affine transform stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Translate returns a translation matrix.
func Translate(x, y float64) Matrix { return Matrix{1, 0, 0, 1, x, y} }

// Scale returns a scaling matrix.
func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Rotate returns a rotation matrix for an angle in radians.
func Rotate(rad float64) Matrix {
	sin, cos := math.Sincos(rad)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Multiply returns m * c: c is applied first, then m.
func (m Matrix) Multiply(c Matrix) Matrix {
	return multiplyAffine(m, c)
}

// Invert returns the inverse of m. ok is false when m is singular.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return Identity, false
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}, true
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ScaleFactor returns the mean linear scale of m, used to map stroke widths
// from user units to device pixels.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix) IsIdentity() bool { return m == Identity }

// TransformBox returns the axis-aligned bounds of b's four corners under m.
func (m Matrix) TransformBox(b Box) Box {
	if m == Identity {
		return b
	}
	x0, y0 := m.Apply(b.X, b.Y)
	x1, y1 := m.Apply(b.Right(), b.Y)
	x2, y2 := m.Apply(b.X, b.Bottom())
	x3, y3 := m.Apply(b.Right(), b.Bottom())
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Box{minX, minY, maxX - minX, maxY - minY}
}

// multiplyAffine multiplies two affine matrices: result = parent * child.
func multiplyAffine(p, c Matrix) Matrix {
	return Matrix{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// aboutOrigin returns T(ox,oy) * m * T(-ox,-oy).
func aboutOrigin(m Matrix, ox, oy float64) Matrix {
	if ox == 0 && oy == 0 {
		return m
	}
	return multiplyAffine(Translate(ox, oy), multiplyAffine(m, Translate(-ox, -oy)))
}

// computeLocalTransform builds the node's local matrix from its attributes.
// Composition, outermost first:
//
//	Translate(X, Y) -> Rotate about origin -> Scale about origin -> Matrix -> Translate(sticky)
//
// ok is false when no component is active, in which case the identity is
// returned and callers may skip the multiply.
func computeLocalTransform(n *Node) (m Matrix, ok bool) {
	a := &n.attrs
	hasRotate := a.Rotation != 0
	hasScale := a.ScaleX != 1 || a.ScaleY != 1
	if a.X == 0 && a.Y == 0 && !hasRotate && !hasScale &&
		a.Matrix == nil && a.StickyX == 0 && a.StickyY == 0 {
		return Identity, false
	}

	m = Identity
	if hasRotate || hasScale {
		ox, oy := n.resolvedOrigin()
		if hasRotate {
			m = aboutOrigin(Rotate(a.Rotation), ox, oy)
		}
		if hasScale {
			m = multiplyAffine(m, aboutOrigin(Scale(a.ScaleX, a.ScaleY), ox, oy))
		}
	}
	if a.Matrix != nil {
		m = multiplyAffine(m, *a.Matrix)
	}
	if a.StickyX != 0 || a.StickyY != 0 {
		m = multiplyAffine(m, Translate(a.StickyX, a.StickyY))
	}
	if a.X != 0 || a.Y != 0 {
		m = multiplyAffine(Translate(a.X, a.Y), m)
	}
	return m, true
}

// resolvedOrigin returns the origin in local coordinates, resolving keyword
// components against the local bounding box.
func (n *Node) resolvedOrigin() (float64, float64) {
	ox, oy := n.attrs.OriginX, n.attrs.OriginY
	if !ox.IsKeyword() && !oy.IsKeyword() {
		return ox.Value, oy.Value
	}
	b := n.BBox()
	return ox.resolve(b.X, b.Width), oy.resolve(b.Y, b.Height)
}

// Transform returns the node's local transform. ok is false when the node
// has no transform components, in which case the identity is returned.
func (n *Node) Transform() (Matrix, bool) {
	if n.transformDirty {
		n.transform, n.hasTransform = computeLocalTransform(n)
		n.transformDirty = false
	}
	return n.transform, n.hasTransform
}

// GlobalTransform returns the transform from local to render coordinates:
// the drag offset, then every ancestor's transform, then the local one.
// ok is false when the result is the identity sentinel.
func (n *Node) GlobalTransform() (Matrix, bool) {
	if !n.globalDirty {
		return n.global, n.hasGlobal
	}
	m, ok := Identity, false
	if n.parent != nil {
		m, ok = n.parent.GlobalTransform()
	}
	if local, has := n.Transform(); has {
		if ok {
			m = multiplyAffine(m, local)
		} else {
			m = local
		}
		ok = true
	}
	if n.dragX != 0 || n.dragY != 0 {
		m = multiplyAffine(Translate(n.dragX, n.dragY), m)
		ok = true
	}
	n.global, n.hasGlobal = m, ok
	n.globalDirty = false
	return m, ok
}

// --- Cache invalidation ---

// invalidateTransform drops the local transform and, through it, every
// global transform below this node.
func (n *Node) invalidateTransform() {
	n.transformDirty = true
	n.invalidateGlobal()
	n.invalidateReferrerBoxes()
	if n.parent != nil {
		n.parent.invalidateBBox()
	}
}

// invalidateReferrerBoxes drops the bbox of every use node showing n.
func (n *Node) invalidateReferrerBoxes() {
	for _, ref := range n.referrers {
		if ref.source == n && !ref.bboxDirty {
			ref.invalidateBBox()
		}
	}
}

// invalidateGlobal drops the cached global transform and client rect for
// the subtree rooted at n.
func (n *Node) invalidateGlobal() {
	n.globalDirty = true
	n.clientDirty = true
	n.paintDirty = true
	for c := n.firstChild; c != nil; c = c.nextSibling {
		c.invalidateGlobal()
	}
}

// invalidateBBox drops the local bounding box of n and every ancestor.
// Keyword origins depend on the bbox, so they also drop the local transform.
func (n *Node) invalidateBBox() {
	for p := n; p != nil; p = p.parent {
		p.bboxDirty = true
		p.clientDirty = true
		p.paintDirty = true
		p.invalidateReferrerBoxes()
		if p.attrs.OriginX.IsKeyword() || p.attrs.OriginY.IsKeyword() {
			if !p.transformDirty {
				p.transformDirty = true
				p.invalidateGlobal()
			}
		}
	}
}

// invalidateClient drops the client and paint rects of n and the bboxes of
// its ancestors; used when the stroke width changes.
func (n *Node) invalidateClient() {
	n.clientDirty = true
	n.invalidatePaint()
	if n.parent != nil {
		n.parent.invalidateBBox()
	}
}

// invalidatePaint drops the paint rect of n and of every ancestor, since a
// group's paint area covers its children's, and of every use node showing
// one of them.
func (n *Node) invalidatePaint() {
	for p := n; p != nil; p = p.parent {
		p.paintDirty = true
		for _, ref := range p.referrers {
			if ref.source == p && !ref.paintDirty {
				ref.invalidatePaint()
			}
		}
	}
}
