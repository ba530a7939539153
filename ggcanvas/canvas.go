// Package ggcanvas provides a thicket.Canvas that rasterizes into a
// software pixmap with github.com/gogpu/gg. It is useful for headless
// rendering, golden-image tests and PNG export.
package ggcanvas

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"

	"github.com/phanxgames/thicket"
)

// ErrClosed is returned when drawing to or exporting a closed canvas.
var ErrClosed = errors.New("ggcanvas: canvas is closed")

// Option configures a Canvas.
type Option func(*Canvas)

// WithBackground sets the color cleared areas are filled with. The default
// is transparent.
func WithBackground(c thicket.Color) Option {
	return func(cv *Canvas) { cv.background = c }
}

// Canvas is a thicket.Canvas backed by a gg.Context. Drawing errors are
// collected and reported by Flush, which the painter calls at the end of
// every frame.
type Canvas struct {
	ctx        *gg.Context
	background thicket.Color
	m          thicket.Matrix
	stack      []thicket.Matrix
	err        error
	closed     bool
}

var (
	_ thicket.Canvas  = (*Canvas)(nil)
	_ thicket.Resizer = (*Canvas)(nil)
	_ thicket.Flusher = (*Canvas)(nil)
)

// New creates a canvas of width×height device pixels.
func New(width, height int, opts ...Option) *Canvas {
	c := &Canvas{ctx: gg.NewContext(width, height), m: thicket.Identity}
	for _, opt := range opts {
		opt(c)
	}
	c.Clear(nil)
	return c
}

// Context returns the underlying gg context.
func (c *Canvas) Context() *gg.Context { return c.ctx }

// toMatrix converts a thicket matrix (x' = a*x + c*y + tx) to gg's row
// layout (x' = A*x + B*y + C).
func toMatrix(m thicket.Matrix) gg.Matrix {
	return gg.Matrix{
		A: m[0], B: m[2], C: m[4],
		D: m[1], E: m[3], F: m[5],
	}
}

func toRGBA(c thicket.Color) gg.RGBA {
	return gg.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// fail records the first drawing error of the frame.
func (c *Canvas) fail(op string, err error) {
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("ggcanvas: %s: %w", op, err)
	}
}

func (c *Canvas) Size() (int, int) {
	if c.closed {
		return 0, 0
	}
	return c.ctx.Width(), c.ctx.Height()
}

// Resize reallocates the pixmap. The contents are lost; the renderer
// repaints the whole surface after a resize.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.ctx.Resize(width, height); err != nil {
		return fmt.Errorf("ggcanvas: resize: %w", err)
	}
	c.Clear(nil)
	return nil
}

func (c *Canvas) Clear(regions []thicket.Box) {
	if c.closed {
		c.fail("clear", ErrClosed)
		return
	}
	if regions == nil {
		c.ctx.ClearWithColor(toRGBA(c.background))
		return
	}
	c.ctx.Push()
	c.ctx.Identity()
	for _, r := range regions {
		r = r.RoundOut()
		c.ctx.FillRectCPU(r.X, r.Y, r.Width, r.Height, toRGBA(c.background))
	}
	c.ctx.Pop()
}

func (c *Canvas) Save() {
	if !c.closed {
		c.ctx.Push()
		c.stack = append(c.stack, c.m)
	}
}

func (c *Canvas) Restore() {
	if c.closed || len(c.stack) == 0 {
		return
	}
	c.ctx.Pop()
	c.m = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Canvas) ClipRect(b thicket.Box) {
	if !c.closed {
		c.ctx.ClipRect(b.X, b.Y, b.Width, b.Height)
	}
}

func (c *Canvas) ClipPath() {
	if !c.closed {
		c.ctx.Clip()
	}
}

func (c *Canvas) SetTransform(m thicket.Matrix) {
	if !c.closed {
		c.m = m
		c.ctx.SetTransform(toMatrix(m))
	}
}

func (c *Canvas) BeginPath() {
	if !c.closed {
		c.ctx.ClearPath()
	}
}

func (c *Canvas) MoveTo(x, y float64) {
	if !c.closed {
		c.ctx.MoveTo(x, y)
	}
}

func (c *Canvas) LineTo(x, y float64) {
	if !c.closed {
		c.ctx.LineTo(x, y)
	}
}

func (c *Canvas) QuadTo(cx, cy, x, y float64) {
	if !c.closed {
		c.ctx.QuadraticTo(cx, cy, x, y)
	}
}

func (c *Canvas) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if !c.closed {
		c.ctx.CubicTo(c1x, c1y, c2x, c2y, x, y)
	}
}

func (c *Canvas) ClosePath() {
	if !c.closed {
		c.ctx.ClosePath()
	}
}

func (c *Canvas) Fill(col thicket.Color) {
	if c.closed {
		c.fail("fill", ErrClosed)
		return
	}
	if col.A <= 0 {
		return
	}
	c.ctx.SetRGBA(col.R, col.G, col.B, col.A)
	c.ctx.SetFillRule(gg.FillRuleNonZero)
	c.fail("fill", c.ctx.FillPreserve())
}

// Stroke strokes the current path. gg transforms path points when they are
// added, so the width is scaled here by the transform's scale factor.
func (c *Canvas) Stroke(col thicket.Color, width float64) {
	if c.closed {
		c.fail("stroke", ErrClosed)
		return
	}
	if col.A <= 0 || width <= 0 {
		return
	}
	c.ctx.SetRGBA(col.R, col.G, col.B, col.A)
	c.ctx.SetLineWidth(width * c.m.ScaleFactor())
	c.fail("stroke", c.ctx.StrokePreserve())
}

// Flush returns and resets the first error recorded since the last flush.
func (c *Canvas) Flush() error {
	err := c.err
	c.err = nil
	return err
}

// Image returns a snapshot of the pixels.
func (c *Canvas) Image() (image.Image, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return c.ctx.Image(), nil
}

// EncodePNG writes the pixels to w as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.ctx.EncodePNG(w); err != nil {
		return fmt.Errorf("ggcanvas: encode png: %w", err)
	}
	return nil
}

// SavePNG writes the pixels to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	if c.closed {
		return ErrClosed
	}
	if err := c.ctx.SavePNG(path); err != nil {
		return fmt.Errorf("ggcanvas: save %s: %w", path, err)
	}
	return nil
}

// Close releases the context. Further drawing is recorded as ErrClosed.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.ctx.Close(); err != nil {
		return fmt.Errorf("ggcanvas: close: %w", err)
	}
	return nil
}
