package thicket

// Canvas is an immediate-mode 2D drawing surface in device pixels.
// Implementations: EbitenCanvas, ggcanvas.Canvas and Recorder.
type Canvas interface {
	PathContext
	// Size returns the surface size in device pixels.
	Size() (width, height int)
	// Clear resets the given device-pixel regions to the background, or
	// the whole surface when regions is nil. Clip and transform are ignored.
	Clear(regions []Box)
	Save()
	Restore()
	// ClipRect intersects the clip with a rectangle in current coordinates.
	ClipRect(b Box)
	// ClipPath intersects the clip with the current path and clears it.
	ClipPath()
	SetTransform(m Matrix)
	// BeginPath discards the current path.
	BeginPath()
	// Fill and Stroke paint the current path and keep it.
	Fill(c Color)
	Stroke(c Color, width float64)
}

// Resizer is implemented by canvases that can change size.
type Resizer interface {
	Resize(width, height int) error
}

// Flusher is implemented by canvases that report deferred drawing errors
// at the end of a frame.
type Flusher interface {
	Flush() error
}

// Frame describes one paint pass.
type Frame struct {
	// Full is set when the whole surface is repainted.
	Full bool
	// Regions are the areas to repaint, in render coordinates. Empty when
	// Full is set.
	Regions []Box
	// DevicePixelRatio scales render coordinates to device pixels.
	DevicePixelRatio float64
	Width, Height    int
}

// Painter turns the scene into output. The Renderer calls BeginFrame, then
// DrawNode for every leaf that is dirty or intersects the frame's regions,
// in paint order, then EndFrame.
type Painter interface {
	Resize(width, height int)
	BeginFrame(f Frame)
	DrawNode(n *Node, f Frame)
	EndFrame() error
}

// NodeRemover is implemented by painters that keep per-node state and must
// drop it when a node is destroyed.
type NodeRemover interface {
	RemoveNode(id uint32)
}
