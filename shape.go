package thicket

// PathContext receives path construction calls. Canvas implementations and
// the Recorder both satisfy it.
type PathContext interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadTo(cx, cy, x, y float64)
	CubicTo(c1x, c1y, c2x, c2y, x, y float64)
	ClosePath()
}

// Shape is the geometry of a leaf node, expressed in the node's local
// coordinates.
type Shape interface {
	// ComputeBBox returns the untransformed geometry box, stroke excluded.
	ComputeBBox() Box
	IsPointInFill(x, y float64) bool
	IsPointInStroke(x, y, lineWidth float64) bool
	// Brush emits the outline into ctx.
	Brush(ctx PathContext)
}

// ParamShape is a Shape whose geometry is driven by named numeric
// parameters. Parameters are animatable and take part in reconciliation.
type ParamShape interface {
	Shape
	Param(name string) (float64, bool)
	SetParam(name string, v float64) bool
	// ParamNames lists the parameters in a fixed order.
	ParamNames() []string
}

// MarkerShape is a Shape that paints decorations outside its bbox.
type MarkerShape interface {
	Shape
	// MarkerBox returns the local box covered by markers, if any.
	MarkerBox() (Box, bool)
}
