package thicket

import "math"

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498307936

// --- Circle ---

// Circle is a circle centered at (Cx, Cy).
type Circle struct {
	Cx, Cy, R float64
}

// NewCircle creates a shape node drawing a circle.
func NewCircle(name string, cx, cy, r float64) *Node {
	return NewShape(name, &Circle{Cx: cx, Cy: cy, R: r})
}

func (c *Circle) ComputeBBox() Box {
	return Box{c.Cx - c.R, c.Cy - c.R, 2 * c.R, 2 * c.R}
}

func (c *Circle) IsPointInFill(x, y float64) bool {
	dx, dy := x-c.Cx, y-c.Cy
	return dx*dx+dy*dy <= c.R*c.R
}

func (c *Circle) IsPointInStroke(x, y, lineWidth float64) bool {
	d := math.Hypot(x-c.Cx, y-c.Cy)
	return math.Abs(d-c.R) <= lineWidth/2
}

func (c *Circle) Brush(ctx PathContext) {
	brushEllipse(ctx, c.Cx, c.Cy, c.R, c.R)
}

func (c *Circle) Param(name string) (float64, bool) {
	switch name {
	case "cx":
		return c.Cx, true
	case "cy":
		return c.Cy, true
	case "r":
		return c.R, true
	}
	return 0, false
}

func (c *Circle) SetParam(name string, v float64) bool {
	switch name {
	case "cx":
		c.Cx = v
	case "cy":
		c.Cy = v
	case "r":
		c.R = v
	default:
		return false
	}
	return true
}

func (c *Circle) ParamNames() []string { return []string{"cx", "cy", "r"} }

// --- Ellipse ---

// Ellipse is an axis-aligned ellipse centered at (Cx, Cy).
type Ellipse struct {
	Cx, Cy, Rx, Ry float64
}

func (e *Ellipse) ComputeBBox() Box {
	return Box{e.Cx - e.Rx, e.Cy - e.Ry, 2 * e.Rx, 2 * e.Ry}
}

func (e *Ellipse) IsPointInFill(x, y float64) bool {
	if e.Rx <= 0 || e.Ry <= 0 {
		return false
	}
	dx, dy := (x-e.Cx)/e.Rx, (y-e.Cy)/e.Ry
	return dx*dx+dy*dy <= 1
}

// IsPointInStroke tests against the ellipses inflated and deflated by half
// the line width, which is exact for circles and close for mild eccentricity.
func (e *Ellipse) IsPointInStroke(x, y, lineWidth float64) bool {
	h := lineWidth / 2
	outer := Ellipse{e.Cx, e.Cy, e.Rx + h, e.Ry + h}
	inner := Ellipse{e.Cx, e.Cy, e.Rx - h, e.Ry - h}
	return outer.IsPointInFill(x, y) && !inner.IsPointInFill(x, y)
}

func (e *Ellipse) Brush(ctx PathContext) {
	brushEllipse(ctx, e.Cx, e.Cy, e.Rx, e.Ry)
}

func (e *Ellipse) Param(name string) (float64, bool) {
	switch name {
	case "cx":
		return e.Cx, true
	case "cy":
		return e.Cy, true
	case "rx":
		return e.Rx, true
	case "ry":
		return e.Ry, true
	}
	return 0, false
}

func (e *Ellipse) SetParam(name string, v float64) bool {
	switch name {
	case "cx":
		e.Cx = v
	case "cy":
		e.Cy = v
	case "rx":
		e.Rx = v
	case "ry":
		e.Ry = v
	default:
		return false
	}
	return true
}

func (e *Ellipse) ParamNames() []string { return []string{"cx", "cy", "rx", "ry"} }

func brushEllipse(ctx PathContext, cx, cy, rx, ry float64) {
	kx, ky := rx*kappa, ry*kappa
	ctx.MoveTo(cx+rx, cy)
	ctx.CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	ctx.CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	ctx.CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	ctx.CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	ctx.ClosePath()
}

// --- Rect ---

// Rect is a rectangle with its top-left corner at the local origin. Position
// it with the node's X and Y.
type Rect struct {
	Width, Height float64
}

// NewRect creates a shape node drawing a w by h rectangle at (x, y).
func NewRect(name string, x, y, w, h float64) *Node {
	n := NewShape(name, &Rect{Width: w, Height: h})
	n.attrs.X, n.attrs.Y = x, y
	return n
}

func (r *Rect) ComputeBBox() Box { return Box{0, 0, r.Width, r.Height} }

func (r *Rect) IsPointInFill(x, y float64) bool {
	return r.ComputeBBox().Contains(x, y)
}

func (r *Rect) IsPointInStroke(x, y, lineWidth float64) bool {
	h := lineWidth / 2
	b := r.ComputeBBox()
	if !b.Inflate(h).Contains(x, y) {
		return false
	}
	inner := b.Inflate(-h)
	return inner.IsEmpty() || !inner.Contains(x, y)
}

func (r *Rect) Brush(ctx PathContext) {
	ctx.MoveTo(0, 0)
	ctx.LineTo(r.Width, 0)
	ctx.LineTo(r.Width, r.Height)
	ctx.LineTo(0, r.Height)
	ctx.ClosePath()
}

func (r *Rect) Param(name string) (float64, bool) {
	switch name {
	case "width":
		return r.Width, true
	case "height":
		return r.Height, true
	}
	return 0, false
}

func (r *Rect) SetParam(name string, v float64) bool {
	switch name {
	case "width":
		r.Width = v
	case "height":
		r.Height = v
	default:
		return false
	}
	return true
}

func (r *Rect) ParamNames() []string { return []string{"width", "height"} }

// --- Polygon ---

// Polygon is a polyline, closed when Closed is set. MarkerRadius > 0 draws a
// dot of that radius on every vertex.
type Polygon struct {
	Points       []Vec2
	Closed       bool
	MarkerRadius float64
}

// NewPolygon creates a shape node drawing a closed polygon.
func NewPolygon(name string, points ...Vec2) *Node {
	return NewShape(name, &Polygon{Points: points, Closed: true})
}

func (p *Polygon) ComputeBBox() Box {
	if len(p.Points) == 0 {
		return Box{}
	}
	minX, minY := p.Points[0].X, p.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Points[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Box{minX, minY, maxX - minX, maxY - minY}
}

// IsPointInFill uses the even-odd rule, so the polygon need not be convex.
func (p *Polygon) IsPointInFill(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.Points[i], p.Points[j]
		if (a.Y > y) != (b.Y > y) && x < (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

func (p *Polygon) IsPointInStroke(x, y, lineWidth float64) bool {
	h := lineWidth / 2
	n := len(p.Points)
	if n == 1 {
		return math.Hypot(x-p.Points[0].X, y-p.Points[0].Y) <= h
	}
	segs := n - 1
	if p.Closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		a, b := p.Points[i], p.Points[(i+1)%n]
		if segmentDistance(x, y, a, b) <= h {
			return true
		}
	}
	return false
}

func (p *Polygon) Brush(ctx PathContext) {
	if len(p.Points) == 0 {
		return
	}
	ctx.MoveTo(p.Points[0].X, p.Points[0].Y)
	for _, pt := range p.Points[1:] {
		ctx.LineTo(pt.X, pt.Y)
	}
	if p.Closed {
		ctx.ClosePath()
	}
	if p.MarkerRadius > 0 {
		for _, pt := range p.Points {
			brushEllipse(ctx, pt.X, pt.Y, p.MarkerRadius, p.MarkerRadius)
		}
	}
}

func (p *Polygon) MarkerBox() (Box, bool) {
	if p.MarkerRadius <= 0 || len(p.Points) == 0 {
		return Box{}, false
	}
	return p.ComputeBBox().Inflate(p.MarkerRadius), true
}

// segmentDistance returns the distance from (x, y) to the segment ab.
func segmentDistance(x, y float64, a, b Vec2) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(x-a.X, y-a.Y)
	}
	t := ((x-a.X)*dx + (y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(x-(a.X+t*dx), y-(a.Y+t*dy))
}
