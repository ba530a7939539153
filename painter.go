package thicket

import (
	"fmt"
	"image"
)

// maxUseDepth bounds nested use nodes so a use placed inside its own
// source cannot recurse forever.
const maxUseDepth = 16

// shadowBlurSteps is the number of rings a blurred shadow edge is drawn with.
const shadowBlurSteps = 3

// CanvasPainter paints nodes onto any Canvas.
type CanvasPainter struct {
	canvas  Canvas
	dpr     float64
	clipped bool
}

// NewCanvasPainter returns a painter drawing onto c.
func NewCanvasPainter(c Canvas) *CanvasPainter {
	return &CanvasPainter{canvas: c, dpr: 1}
}

// Canvas returns the painter's canvas.
func (p *CanvasPainter) Canvas() Canvas { return p.canvas }

// Resize resizes the canvas when it supports resizing.
func (p *CanvasPainter) Resize(width, height int) {
	if rs, ok := p.canvas.(Resizer); ok {
		if err := rs.Resize(width, height); err != nil {
			warnf("resize canvas to %dx%d: %v", width, height, err)
		}
	}
}

// BeginFrame clears the frame's regions, or the whole canvas for a full
// frame, and clips drawing to the regions.
func (p *CanvasPainter) BeginFrame(f Frame) {
	p.dpr = f.DevicePixelRatio
	if p.dpr <= 0 {
		p.dpr = 1
	}
	c := p.canvas
	c.SetTransform(Identity)
	if f.Full {
		c.Clear(nil)
		return
	}
	device := make([]Box, len(f.Regions))
	for i, r := range f.Regions {
		device[i] = r.Scale(p.dpr).RoundOut()
	}
	c.Clear(device)
	c.Save()
	p.clipped = true
	if len(device) == 1 {
		c.ClipRect(device[0])
		return
	}
	c.BeginPath()
	for _, b := range device {
		c.MoveTo(b.X, b.Y)
		c.LineTo(b.Right(), b.Y)
		c.LineTo(b.Right(), b.Bottom())
		c.LineTo(b.X, b.Bottom())
		c.ClosePath()
	}
	c.ClipPath()
}

// DrawNode paints a shape or use node with its computed style.
func (p *CanvasPainter) DrawNode(n *Node, f Frame) {
	st := n.ComputedStyle()
	if !st.Visible || n.Kind == KindGroup {
		return
	}
	m, _ := n.GlobalTransform()
	device := multiplyAffine(Scale(p.dpr, p.dpr), m)
	switch n.Kind {
	case KindShape:
		p.drawShape(n, device, st)
	case KindUse:
		if n.source != nil {
			p.drawSubtree(n.source, device, st.Opacity, 1)
		}
	}
}

// EndFrame drops the region clip and flushes the canvas.
func (p *CanvasPainter) EndFrame() error {
	if p.clipped {
		p.canvas.Restore()
		p.clipped = false
	}
	if fl, ok := p.canvas.(Flusher); ok {
		return fl.Flush()
	}
	return nil
}

// Image reads back the canvas when it implements ImageSource.
func (p *CanvasPainter) Image() (image.Image, error) {
	src, ok := p.canvas.(ImageSource)
	if !ok {
		return nil, fmt.Errorf("thicket: canvas %T cannot read back pixels", p.canvas)
	}
	return src.Image()
}

// drawSubtree paints a use node's source. parent maps the source's parent
// space to device pixels; opacity is the use node's.
func (p *CanvasPainter) drawSubtree(n *Node, parent Matrix, opacity float64, depth int) {
	if !n.attrs.Display || depth > maxUseDepth {
		return
	}
	m := parent
	if local, ok := n.Transform(); ok {
		m = multiplyAffine(parent, local)
	}
	switch n.Kind {
	case KindShape:
		st := n.ComputedStyle()
		st.Opacity *= opacity
		p.drawShape(n, m, st)
	case KindUse:
		if n.source != nil {
			p.drawSubtree(n.source, m, opacity*n.attrs.Opacity, depth+1)
		}
	default:
		for _, c := range n.OrderedChildren() {
			p.drawSubtree(c, m, opacity, depth)
		}
	}
}

func (p *CanvasPainter) drawShape(n *Node, m Matrix, st ComputedStyle) {
	if n.shape == nil || st.Opacity <= 0 {
		return
	}
	c := p.canvas
	c.Save()
	defer c.Restore()
	if clip := n.clip; clip != nil && clip.shape != nil {
		cm := m
		if local, ok := clip.Transform(); ok {
			cm = multiplyAffine(m, local)
		}
		c.SetTransform(cm)
		c.BeginPath()
		clip.shape.Brush(c)
		c.ClipPath()
	}
	if s := n.attrs.Shadow; s.active() {
		p.drawShadow(n, m, s, st.Opacity)
	}
	c.SetTransform(m)
	c.BeginPath()
	n.shape.Brush(c)
	if st.HasFill {
		c.Fill(st.Fill.withAlpha(st.Opacity))
	}
	if st.HasStroke && st.LineWidth > 0 {
		c.Stroke(st.Stroke.withAlpha(st.Opacity), st.LineWidth)
	}
}

// drawShadow fills the shadow and, for a blurred shadow, fades its edge out
// with shadowBlurSteps translucent strokes that reach Blur render units
// beyond the shape.
func (p *CanvasPainter) drawShadow(n *Node, m Matrix, s Shadow, opacity float64) {
	sm := multiplyAffine(Translate(s.OffsetX*p.dpr, s.OffsetY*p.dpr), m)
	c := p.canvas
	c.SetTransform(sm)
	c.BeginPath()
	n.shape.Brush(c)
	col := s.Color.withAlpha(opacity)
	if s.Blur <= 0 {
		c.Fill(col)
		return
	}
	c.Fill(col.withAlpha(0.5))
	scale := sm.ScaleFactor() / p.dpr
	if scale <= 0 {
		return
	}
	ring := col.withAlpha(1.0 / shadowBlurSteps)
	for k := shadowBlurSteps; k >= 1; k-- {
		c.Stroke(ring, 2*s.Blur*float64(k)/shadowBlurSteps/scale)
	}
}
