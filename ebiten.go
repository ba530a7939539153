package thicket

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// whiteSubImage is the solid source for path triangles, created on first use.
var whiteSubImage *ebiten.Image

func whitePixel() *ebiten.Image {
	if whiteSubImage == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whiteSubImage
}

// maskBlend keeps the destination only where the source is opaque.
var maskBlend = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorZero,
	BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
	BlendFactorDestinationRGB:   ebiten.BlendFactorSourceAlpha,
	BlendFactorDestinationAlpha: ebiten.BlendFactorSourceAlpha,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// pathMask is a non-rectangular clip, tessellated in device space.
type pathMask struct {
	vs []ebiten.Vertex
	is []uint16
}

// ebitenState is the part of EbitenCanvas saved by Save.
type ebitenState struct {
	m     Matrix
	clips []image.Rectangle
	clip  bool
	masks []*pathMask
}

// EbitenCanvas draws onto an ebiten image. Paths are tessellated with the
// vector package in device space.
//
// Ebiten has no clip stack, so clips are kept as a list of rectangles and
// every fill is drawn once per rectangle through a sub-image. ClipPath clips
// to the exact rectangles when the path is made only of axis-aligned
// rectangles. Any other path becomes a mask: while one is active, fills are
// drawn into an offscreen layer, masked by the path's coverage and then
// composited onto the target.
type EbitenCanvas struct {
	target     *ebiten.Image
	owned      bool
	background Color

	m     Matrix
	clips []image.Rectangle
	clip  bool
	masks []*pathMask
	stack []ebitenState

	layer     *ebiten.Image
	maskLayer *ebiten.Image

	path    vector.Path
	polys   [][]Vec2
	curved  bool
	started bool

	vs []ebiten.Vertex
	is []uint16
}

// NewEbitenCanvas returns a canvas drawing onto target. Cleared areas are
// filled with background; a transparent background clears to zero.
func NewEbitenCanvas(target *ebiten.Image, background Color) *EbitenCanvas {
	return &EbitenCanvas{target: target, background: background, m: Identity}
}

// SetTarget switches the destination image, for example when the screen
// image changes between frames.
func (c *EbitenCanvas) SetTarget(target *ebiten.Image) {
	c.target = target
	c.owned = false
}

// Target returns the destination image.
func (c *EbitenCanvas) Target() *ebiten.Image { return c.target }

func (c *EbitenCanvas) Size() (int, int) {
	if c.target == nil {
		return 0, 0
	}
	b := c.target.Bounds()
	return b.Dx(), b.Dy()
}

// Resize replaces the target with a new image of the given size. A target
// supplied through NewEbitenCanvas or SetTarget belongs to the caller and is
// left alone.
func (c *EbitenCanvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("thicket: invalid canvas size %dx%d", width, height)
	}
	if c.target != nil && !c.owned {
		return nil
	}
	if c.target != nil {
		if w, h := c.Size(); w == width && h == height {
			return nil
		}
		c.target.Deallocate()
	}
	c.target = ebiten.NewImage(width, height)
	c.owned = true
	return nil
}

func (c *EbitenCanvas) Clear(regions []Box) {
	if c.target == nil {
		return
	}
	if regions == nil {
		c.clearImage(c.target)
		return
	}
	bounds := c.target.Bounds()
	for _, b := range regions {
		r := toRect(b).Intersect(bounds)
		if r.Empty() {
			continue
		}
		c.clearImage(c.target.SubImage(r).(*ebiten.Image))
	}
}

// Image reads the target back as straight-alpha NRGBA. It must be called
// while the game loop is running.
func (c *EbitenCanvas) Image() (image.Image, error) {
	if c.target == nil {
		return nil, fmt.Errorf("thicket: canvas has no target")
	}
	b := c.target.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 4*w*h)
	c.target.ReadPixels(pixels)
	return unpremultiply(pixels, w, h), nil
}

func (c *EbitenCanvas) clearImage(img *ebiten.Image) {
	if c.background.A > 0 {
		img.Fill(toNRGBA(c.background))
		return
	}
	img.Clear()
}

func (c *EbitenCanvas) Save() {
	c.stack = append(c.stack, ebitenState{m: c.m, clips: c.clips, clip: c.clip, masks: c.masks})
}

func (c *EbitenCanvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	s := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.m, c.clips, c.clip, c.masks = s.m, s.clips, s.clip, s.masks
}

func (c *EbitenCanvas) ClipRect(b Box) {
	c.intersectClip([]image.Rectangle{toRect(c.m.TransformBox(b))})
}

func (c *EbitenCanvas) ClipPath() {
	var rects []image.Rectangle
	if !c.curved {
		for _, poly := range c.polys {
			r, ok := polyRect(poly)
			if !ok {
				rects = nil
				break
			}
			rects = append(rects, r)
		}
	}
	if rects == nil {
		var acc boxAccumulator
		for _, poly := range c.polys {
			for _, p := range poly {
				acc.add(Box{p.X, p.Y, 0, 0})
			}
		}
		rects = []image.Rectangle{toRect(acc.box)}
		var mask pathMask
		mask.vs, mask.is = c.path.AppendVerticesAndIndicesForFilling(nil, nil)
		for i := range mask.vs {
			mask.vs[i].SrcX, mask.vs[i].SrcY = 1, 1
			mask.vs[i].ColorR, mask.vs[i].ColorG, mask.vs[i].ColorB, mask.vs[i].ColorA = 1, 1, 1, 1
		}
		// Never append into a slice a saved state still holds.
		c.masks = append(c.masks[:len(c.masks):len(c.masks)], &mask)
	}
	c.intersectClip(rects)
	c.BeginPath()
}

// Masks returns the number of non-rectangular clips in effect.
func (c *EbitenCanvas) Masks() int { return len(c.masks) }

// intersectClip replaces the clip with its intersection with rects. The
// new slice never aliases a saved state.
func (c *EbitenCanvas) intersectClip(rects []image.Rectangle) {
	var out []image.Rectangle
	if !c.clip {
		for _, r := range rects {
			if !r.Empty() {
				out = append(out, r)
			}
		}
	} else {
		for _, a := range c.clips {
			for _, b := range rects {
				if r := a.Intersect(b); !r.Empty() {
					out = append(out, r)
				}
			}
		}
	}
	c.clips = out
	c.clip = true
}

func (c *EbitenCanvas) SetTransform(m Matrix) { c.m = m }

func (c *EbitenCanvas) BeginPath() {
	c.path = vector.Path{}
	c.polys = c.polys[:0]
	c.curved = false
	c.started = false
}

func (c *EbitenCanvas) MoveTo(x, y float64) {
	x, y = c.m.Apply(x, y)
	c.path.MoveTo(float32(x), float32(y))
	c.polys = append(c.polys, []Vec2{{x, y}})
	c.started = true
}

func (c *EbitenCanvas) LineTo(x, y float64) {
	if !c.started {
		c.MoveTo(x, y)
		return
	}
	x, y = c.m.Apply(x, y)
	c.path.LineTo(float32(x), float32(y))
	last := len(c.polys) - 1
	c.polys[last] = append(c.polys[last], Vec2{x, y})
}

func (c *EbitenCanvas) QuadTo(cx, cy, x, y float64) {
	if !c.started {
		c.MoveTo(cx, cy)
	}
	cx, cy = c.m.Apply(cx, cy)
	x, y = c.m.Apply(x, y)
	c.path.QuadTo(float32(cx), float32(cy), float32(x), float32(y))
	c.curved = true
	// Control points bound the curve.
	last := len(c.polys) - 1
	c.polys[last] = append(c.polys[last], Vec2{cx, cy}, Vec2{x, y})
}

func (c *EbitenCanvas) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if !c.started {
		c.MoveTo(c1x, c1y)
	}
	c1x, c1y = c.m.Apply(c1x, c1y)
	c2x, c2y = c.m.Apply(c2x, c2y)
	x, y = c.m.Apply(x, y)
	c.path.CubicTo(float32(c1x), float32(c1y), float32(c2x), float32(c2y), float32(x), float32(y))
	c.curved = true
	last := len(c.polys) - 1
	c.polys[last] = append(c.polys[last], Vec2{c1x, c1y}, Vec2{c2x, c2y}, Vec2{x, y})
}

func (c *EbitenCanvas) ClosePath() {
	c.path.Close()
	c.started = false
}

func (c *EbitenCanvas) Fill(col Color) {
	if col.A <= 0 {
		return
	}
	c.vs, c.is = c.path.AppendVerticesAndIndicesForFilling(c.vs[:0], c.is[:0])
	c.draw(col, ebiten.FillRuleNonZero)
}

func (c *EbitenCanvas) Stroke(col Color, width float64) {
	w := width * c.m.ScaleFactor()
	if col.A <= 0 || w <= 0 {
		return
	}
	c.vs, c.is = c.path.AppendVerticesAndIndicesForStroke(c.vs[:0], c.is[:0], &vector.StrokeOptions{
		Width:      float32(w),
		LineJoin:   vector.LineJoinMiter,
		MiterLimit: 4,
	})
	c.draw(col, ebiten.FillRuleFillAll)
}

// draw submits the tessellated vertices once per clip rectangle.
func (c *EbitenCanvas) draw(col Color, rule ebiten.FillRule) {
	if c.target == nil || len(c.is) == 0 {
		return
	}
	r, g, b, a := float32(col.R*col.A), float32(col.G*col.A), float32(col.B*col.A), float32(col.A)
	for i := range c.vs {
		c.vs[i].SrcX = 1
		c.vs[i].SrcY = 1
		c.vs[i].ColorR = r
		c.vs[i].ColorG = g
		c.vs[i].ColorB = b
		c.vs[i].ColorA = a
	}
	op := &ebiten.DrawTrianglesOptions{
		ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha,
		AntiAlias:      true,
		FillRule:       rule,
	}
	src := whitePixel()
	if len(c.masks) > 0 {
		c.drawMasked(op)
		return
	}
	if !c.clip {
		c.target.DrawTriangles(c.vs, c.is, src, op)
		return
	}
	bounds := c.target.Bounds()
	for _, clip := range c.clips {
		rect := clip.Intersect(bounds)
		if rect.Empty() {
			continue
		}
		c.target.SubImage(rect).(*ebiten.Image).DrawTriangles(c.vs, c.is, src, op)
	}
}

// drawMasked draws the tessellated vertices into the offscreen layer, cuts
// the layer down to every active mask and composites it onto the target
// through the rectangle clips.
func (c *EbitenCanvas) drawMasked(op *ebiten.DrawTrianglesOptions) {
	bounds := c.target.Bounds()
	area := image.Rectangle{}
	for _, r := range c.clips {
		area = area.Union(r.Intersect(bounds))
	}
	if !c.clip {
		area = bounds
	}
	if area.Empty() {
		return
	}
	c.layer = c.ensureLayer(c.layer)
	c.maskLayer = c.ensureLayer(c.maskLayer)
	layer := c.layer.SubImage(area).(*ebiten.Image)
	layer.Clear()
	layer.DrawTriangles(c.vs, c.is, whitePixel(), op)

	maskLayer := c.maskLayer.SubImage(area).(*ebiten.Image)
	for _, m := range c.masks {
		maskLayer.Clear()
		maskLayer.DrawTriangles(m.vs, m.is, whitePixel(), &ebiten.DrawTrianglesOptions{
			AntiAlias: true,
			FillRule:  ebiten.FillRuleNonZero,
		})
		mop := &ebiten.DrawImageOptions{Blend: maskBlend}
		mop.GeoM.Translate(float64(area.Min.X), float64(area.Min.Y))
		layer.DrawImage(maskLayer, mop)
	}

	for _, r := range c.clips {
		r = r.Intersect(area)
		if r.Empty() {
			continue
		}
		dop := &ebiten.DrawImageOptions{}
		dop.GeoM.Translate(float64(area.Min.X), float64(area.Min.Y))
		c.target.SubImage(r).(*ebiten.Image).DrawImage(layer, dop)
	}
}

// ensureLayer returns img when it matches the target size, or a new image
// that does.
func (c *EbitenCanvas) ensureLayer(img *ebiten.Image) *ebiten.Image {
	w, h := c.Size()
	if img != nil {
		if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
			return img
		}
		img.Deallocate()
	}
	return ebiten.NewImage(w, h)
}

// toRect converts b to the smallest enclosing integer rectangle.
func toRect(b Box) image.Rectangle {
	b = b.RoundOut()
	return image.Rect(int(b.X), int(b.Y), int(b.Right()), int(b.Bottom()))
}

// polyRect reports whether poly is an axis-aligned rectangle and returns it.
func polyRect(poly []Vec2) (image.Rectangle, bool) {
	if n := len(poly); n == 5 && poly[4] == poly[0] {
		poly = poly[:4]
	}
	if len(poly) != 4 {
		return image.Rectangle{}, false
	}
	for i := range 4 {
		p, q := poly[i], poly[(i+1)%4]
		if p.X != q.X && p.Y != q.Y {
			return image.Rectangle{}, false
		}
	}
	x0 := math.Min(math.Min(poly[0].X, poly[1].X), math.Min(poly[2].X, poly[3].X))
	y0 := math.Min(math.Min(poly[0].Y, poly[1].Y), math.Min(poly[2].Y, poly[3].Y))
	x1 := math.Max(math.Max(poly[0].X, poly[1].X), math.Max(poly[2].X, poly[3].X))
	y1 := math.Max(math.Max(poly[0].Y, poly[1].Y), math.Max(poly[2].Y, poly[3].Y))
	return toRect(Box{x0, y0, x1 - x0, y1 - y0}), true
}

func toNRGBA(c Color) color.NRGBA {
	clamp := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.NRGBA{clamp(c.R), clamp(c.G), clamp(c.B), clamp(c.A)}
}
