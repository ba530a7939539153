package thicket

import "time"

// Config holds renderer settings.
type Config struct {
	// Width and Height are the drawing surface size in render coordinates.
	Width, Height int
	// DevicePixelRatio scales render coordinates to device pixels.
	DevicePixelRatio float64
	// DirtyRects enables incremental repaint. When false every frame is a
	// full repaint.
	DirtyRects bool
	// MaxDirtyRects caps the number of dirty nodes, and the leaf count of a
	// single dirtied subtree, tracked individually before a frame falls back
	// to a full repaint.
	MaxDirtyRects int
	// MaxRegions bounds how many separate regions an incremental frame
	// repaints. 1 repaints the bounding union of all dirty areas.
	MaxRegions int
	// ChunkSize is the default number of nodes AddChunk mounts per frame.
	ChunkSize int
	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Width:            640,
		Height:           480,
		DevicePixelRatio: 1,
		DirtyRects:       true,
		MaxDirtyRects:    42,
		MaxRegions:       1,
		ChunkSize:        100,
		ScreenshotDir:    "screenshots",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DevicePixelRatio <= 0 {
		c.DevicePixelRatio = def.DevicePixelRatio
	}
	if c.MaxDirtyRects <= 0 {
		c.MaxDirtyRects = def.MaxDirtyRects
	}
	if c.MaxRegions <= 0 {
		c.MaxRegions = def.MaxRegions
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = def.ScreenshotDir
	}
	return c
}

// FrameStats describes the last paint pass.
type FrameStats struct {
	// Full is set when the pass repainted the whole surface.
	Full bool
	// Regions is the number of merged regions repainted. Zero for full
	// frames and skipped frames.
	Regions int
	// Dirty is the size of the dirty set when the pass started.
	Dirty int
	// Visited counts the nodes walked; Painted counts DrawNode calls.
	Visited int
	Painted int
}

// Renderer owns a node tree and repaints the parts of it that changed since
// the previous frame. It is not safe for concurrent use; all mutation and
// ticking happens on one goroutine.
type Renderer struct {
	cfg     Config
	root    *Node
	painter Painter

	scheduler Scheduler
	registry  Registry
	chunks    []*chunk
	deferred  []func()

	dirty      []*Node
	dirtyCount int
	vacated    []Box
	firstFrame bool
	forceFull  bool

	pointer     pointerState
	injectQueue []pointerEvent
	runner      *ScriptRunner
	screenshots []string

	stats      FrameStats
	updateTime time.Duration
	debug      bool
}

// NewRenderer creates a renderer painting through p. The root group is
// created and attached; the first frame is always a full repaint.
func NewRenderer(p Painter, cfg Config) *Renderer {
	r := &Renderer{
		cfg:        cfg.withDefaults(),
		painter:    p,
		firstFrame: true,
	}
	r.root = NewGroup("root")
	r.root.attach(r)
	r.resizePainter()
	return r
}

// Root returns the renderer's root group.
func (r *Renderer) Root() *Node { return r.root }

// Config returns the active configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Painter returns the painter the renderer draws through.
func (r *Renderer) Painter() Painter { return r.painter }

// Registry returns the renderer's animatable-key registry.
func (r *Renderer) Registry() *Registry { return &r.registry }

// Scheduler returns the renderer's frame scheduler.
func (r *Renderer) Scheduler() *Scheduler { return &r.scheduler }

// SetDebugMode enables or disables debug mode. When enabled, every paint
// checks cache consistency and logs frame stats, and structural warnings
// include extra tree checks.
func (r *Renderer) SetDebugMode(enabled bool) {
	r.debug = enabled
}

// SetDirtyRects toggles incremental repaint. Turning it on again forces one
// full frame so the surface starts from a known state.
func (r *Renderer) SetDirtyRects(enabled bool) {
	if r.cfg.DirtyRects == enabled {
		return
	}
	r.cfg.DirtyRects = enabled
	r.forceFull = true
}

// Resize changes the surface size in render coordinates, resizes the
// painter and forces a full repaint.
func (r *Renderer) Resize(width, height int) {
	r.cfg.Width, r.cfg.Height = width, height
	r.resizePainter()
	r.forceFull = true
}

// SetDevicePixelRatio changes the device pixel ratio and forces a full
// repaint. Values <= 0 are ignored.
func (r *Renderer) SetDevicePixelRatio(dpr float64) {
	if dpr <= 0 || dpr == r.cfg.DevicePixelRatio {
		return
	}
	r.cfg.DevicePixelRatio = dpr
	r.resizePainter()
	r.forceFull = true
}

func (r *Renderer) resizePainter() {
	if w, h := r.deviceSize(); r.painter != nil && w > 0 && h > 0 {
		r.painter.Resize(w, h)
	}
}

func (r *Renderer) deviceSize() (int, int) {
	dpr := r.cfg.DevicePixelRatio
	return int(float64(r.cfg.Width)*dpr + 0.5), int(float64(r.cfg.Height)*dpr + 0.5)
}

// Defer queues fn to run at the start of the next Tick, before animations
// advance and before paint. Functions deferred while the queue drains run
// on the tick after.
func (r *Renderer) Defer(fn func()) {
	if fn != nil {
		r.deferred = append(r.deferred, fn)
	}
}

// Tick runs one frame: Update, then Paint.
func (r *Renderer) Tick(now time.Duration) error {
	r.Update(now)
	return r.Paint()
}

// Update drains deferred work, advances an attached ScriptRunner, feeds one
// injected pointer event, advances animations, transitions and mount
// callbacks, and mounts the next slice of every pending chunk.
func (r *Renderer) Update(now time.Duration) {
	start := time.Now()
	defer func() { r.updateTime = time.Since(start) }()
	if len(r.deferred) > 0 {
		batch := r.deferred
		r.deferred = nil
		for _, fn := range batch {
			fn()
		}
	}
	if r.runner != nil {
		r.runner.step(r)
	}
	r.processInjectedInput()
	r.scheduler.tick(now)
	r.mountChunks()
}

// InvalidateRect schedules an area, in render coordinates, for repaint on
// the next frame. Overlays drawn outside the tree use it to erase
// themselves.
func (r *Renderer) InvalidateRect(b Box) {
	if !b.IsEmpty() {
		r.vacated = append(r.vacated, b)
	}
}

// ForceFullRepaint makes the next frame repaint the whole surface.
func (r *Renderer) ForceFullRepaint() { r.forceFull = true }

// Idle reports whether the next Tick would do nothing.
func (r *Renderer) Idle() bool {
	return !r.firstFrame && !r.forceFull && r.dirtyCount == 0 &&
		len(r.vacated) == 0 && len(r.deferred) == 0 &&
		len(r.chunks) == 0 && r.scheduler.Len() == 0 &&
		len(r.screenshots) == 0 && !r.scripted()
}

// Stats returns statistics about the last paint pass.
func (r *Renderer) Stats() FrameStats { return r.stats }

// DirtyNodes returns the nodes marked dirty since the last paint, in the
// order they were first marked.
func (r *Renderer) DirtyNodes() []*Node {
	out := make([]*Node, 0, r.dirtyCount)
	for _, n := range r.dirty {
		if n.inDirtySet {
			out = append(out, n)
		}
	}
	return out
}

// addDirty adds n to the dirty set once per episode.
func (r *Renderer) addDirty(n *Node) {
	if n.inDirtySet {
		return
	}
	n.inDirtySet = true
	r.dirty = append(r.dirty, n)
	r.dirtyCount++
}

// forget drops a destroyed node from the dirty set. The slot is skipped
// and reclaimed when the frame settles.
func (r *Renderer) forget(n *Node) {
	if n.inDirtySet {
		n.inDirtySet = false
		r.dirtyCount--
	}
}

// overDirtyCap reports whether the frame can no longer track dirty nodes
// individually.
func (r *Renderer) overDirtyCap() bool {
	return !r.cfg.DirtyRects || r.dirtyCount > r.cfg.MaxDirtyRects
}

// vacate records the painted area of the subtree rooted at n so the next
// frame clears it once n is gone.
func (r *Renderer) vacate(n *Node) {
	if !n.inTree(r) {
		return
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.painted {
			for _, b := range n.DirtyRects() {
				r.InvalidateRect(b)
			}
		}
		for c := n.firstChild; c != nil; c = c.nextSibling {
			walk(c)
		}
	}
	walk(n)
}
