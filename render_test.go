package thicket

import (
	"errors"
	"testing"
)

// --- Helpers ---

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 200, 200
	return cfg
}

func newHeadlessRenderer() *Renderer {
	return NewRenderer(nil, testConfig())
}

func newHeadlessRendererWith(cfg Config) *Renderer {
	return NewRenderer(nil, cfg)
}

func newRecordingRenderer(cfg Config) (*Renderer, *Recorder) {
	rec := NewRecorder(0, 0)
	return NewRenderer(NewCanvasPainter(rec), cfg), rec
}

// clearOp returns the first recorded clear call.
func clearOp(t *testing.T, rec *Recorder) DrawOp {
	t.Helper()
	for _, op := range rec.Ops {
		if op.Op == "clear" {
			return op
		}
	}
	t.Fatalf("no clear op in %v", rec.Ops)
	return DrawOp{}
}

// trackingPainter records the calls the renderer makes.
type trackingPainter struct {
	width, height int
	frames        []Frame
	drawn         []string
	removed       []uint32
	err           error
}

func (p *trackingPainter) Resize(w, h int)           { p.width, p.height = w, h }
func (p *trackingPainter) BeginFrame(f Frame)        { p.frames = append(p.frames, f) }
func (p *trackingPainter) DrawNode(n *Node, _ Frame) { p.drawn = append(p.drawn, n.Name) }
func (p *trackingPainter) EndFrame() error           { return p.err }
func (p *trackingPainter) RemoveNode(id uint32)      { p.removed = append(p.removed, id) }

// --- Config ---

func TestConfigDefaults(t *testing.T) {
	r := NewRenderer(nil, Config{Width: 10, Height: 10})
	cfg := r.Config()
	if cfg.DevicePixelRatio != 1 {
		t.Errorf("DevicePixelRatio = %v, want 1", cfg.DevicePixelRatio)
	}
	if cfg.MaxDirtyRects != 42 {
		t.Errorf("MaxDirtyRects = %d, want 42", cfg.MaxDirtyRects)
	}
	if cfg.MaxRegions != 1 || cfg.ChunkSize != 100 {
		t.Errorf("MaxRegions, ChunkSize = %d, %d, want 1, 100", cfg.MaxRegions, cfg.ChunkSize)
	}
	if cfg.DirtyRects {
		t.Error("an explicit zero Config keeps DirtyRects off")
	}
	if !DefaultConfig().DirtyRects {
		t.Error("DefaultConfig should enable DirtyRects")
	}
}

// --- Full and incremental frames ---

func TestFirstFrameIsFull(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	c := r.Root().Add(NewCircle("c", 50, 50, 10))
	c.SetFill(Color{1, 0, 0, 1})
	if err := r.Tick(0); err != nil {
		t.Fatal(err)
	}
	st := r.Stats()
	if !st.Full || st.Regions != 0 {
		t.Errorf("Stats = %+v, want full frame", st)
	}
	if st.Painted != 1 || st.Visited != 2 {
		t.Errorf("Painted, Visited = %d, %d, want 1, 2", st.Painted, st.Visited)
	}
	if op := clearOp(t, rec); len(op.Regions) != 0 {
		t.Errorf("clear regions = %v, want whole surface", op.Regions)
	}
	if rec.Count("fill") != 1 {
		t.Errorf("fill count = %d, want 1", rec.Count("fill"))
	}
	if rec.Count("clipRect") != 0 {
		t.Error("full frames are not clipped")
	}
}

func TestIncrementalFrameRepaintsUnion(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	a := r.Root().Add(NewCircle("a", 50, 50, 10))
	r.Root().Add(NewCircle("b", 150, 150, 10))
	r.Tick(0)
	rec.Reset()

	a.SetParam("cx", 60)
	if err := r.Tick(16); err != nil {
		t.Fatal(err)
	}
	st := r.Stats()
	if st.Full || st.Regions != 1 || st.Dirty != 1 {
		t.Errorf("Stats = %+v, want one incremental region", st)
	}
	if st.Painted != 1 {
		t.Errorf("Painted = %d, want 1 (b is outside the region)", st.Painted)
	}
	want := Box{39, 39, 32, 22}
	op := clearOp(t, rec)
	if len(op.Regions) != 1 {
		t.Fatalf("clear regions = %v, want 1", op.Regions)
	}
	assertBox(t, "cleared", op.Regions[0], want)
	if rec.Count("clipRect") != 1 {
		t.Errorf("clipRect count = %d, want 1", rec.Count("clipRect"))
	}
}

func TestIncrementalFrameRepaintsOverlappingNeighbor(t *testing.T) {
	p := &trackingPainter{}
	r := NewRenderer(p, testConfig())
	a := r.Root().Add(NewCircle("a", 50, 50, 10))
	r.Root().Add(NewCircle("b", 65, 50, 10))
	r.Root().Add(NewCircle("far", 150, 150, 10))
	r.Tick(0)
	p.drawn = nil

	a.SetFill(ColorBlack)
	r.Tick(16)
	if len(p.drawn) != 2 || p.drawn[0] != "a" || p.drawn[1] != "b" {
		t.Errorf("drawn = %v, want [a b] in paint order", p.drawn)
	}
}

func TestNothingDirtySkipsFrame(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	r.Root().Add(NewCircle("c", 50, 50, 10))
	r.Tick(0)
	rec.Reset()

	if !r.Idle() {
		t.Error("renderer should be idle after painting")
	}
	r.Tick(16)
	if len(rec.Ops) != 0 {
		t.Errorf("ops = %v, want none", rec.Ops)
	}
	if st := r.Stats(); st.Full || st.Regions != 0 || st.Painted != 0 {
		t.Errorf("Stats = %+v, want empty", st)
	}
}

func TestOffscreenChangeSkipsFrame(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	c := r.Root().Add(NewCircle("c", -100, -100, 10))
	r.Tick(0)
	rec.Reset()

	c.SetParam("r", 20)
	r.Tick(16)
	if len(rec.Ops) != 0 {
		t.Errorf("ops = %v, want none", rec.Ops)
	}
	if c.IsDirty() {
		t.Error("skipped frame should still settle dirty nodes")
	}
}

func TestRegionsClippedToSurface(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	c := r.Root().Add(NewCircle("c", 190, 100, 10))
	r.Tick(0)
	rec.Reset()

	c.SetFill(ColorWhite)
	r.Tick(16)
	op := clearOp(t, rec)
	assertBox(t, "cleared", op.Regions[0], Box{179, 89, 21, 22})
}

func TestDevicePixelRatioScalesClear(t *testing.T) {
	cfg := testConfig()
	cfg.DevicePixelRatio = 2
	r, rec := newRecordingRenderer(cfg)
	if rec.Width != 400 || rec.Height != 400 {
		t.Errorf("canvas size = %dx%d, want 400x400", rec.Width, rec.Height)
	}
	a := r.Root().Add(NewCircle("a", 50, 50, 10))
	r.Tick(0)
	rec.Reset()

	a.SetParam("cx", 60)
	r.Tick(16)
	assertBox(t, "cleared", clearOp(t, rec).Regions[0], Box{78, 78, 64, 44})

	var move DrawOp
	for _, op := range rec.Ops {
		if op.Op == "moveTo" {
			move = op
			break
		}
	}
	if len(move.Args) != 2 {
		t.Fatalf("no moveTo recorded: %v", rec.Ops)
	}
	// The circle path starts at its rightmost point.
	assertNear(t, "moveTo x", move.Args[0], 140)
	assertNear(t, "moveTo y", move.Args[1], 100)
}

func TestSetDevicePixelRatioForcesFull(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	r.Root().Add(NewCircle("c", 50, 50, 10))
	r.Tick(0)

	r.SetDevicePixelRatio(1.5)
	if rec.Width != 300 {
		t.Errorf("canvas width = %d, want 300", rec.Width)
	}
	r.Tick(16)
	if !r.Stats().Full {
		t.Error("changing the pixel ratio should repaint fully")
	}
}

func TestResizeForcesFull(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	r.Root().Add(NewCircle("c", 50, 50, 10))
	r.Tick(0)

	r.Resize(320, 240)
	if rec.Width != 320 || rec.Height != 240 {
		t.Errorf("canvas size = %dx%d, want 320x240", rec.Width, rec.Height)
	}
	r.Tick(16)
	if !r.Stats().Full {
		t.Error("Resize should force a full repaint")
	}
}

func TestDirtyCapForcesFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDirtyRects = 3
	r, rec := newRecordingRenderer(cfg)
	var nodes []*Node
	for i := 0; i < 4; i++ {
		nodes = append(nodes, r.Root().Add(NewCircle("c", float64(20+i*40), 20, 5)))
	}
	r.Tick(0)
	rec.Reset()

	for _, n := range nodes {
		n.SetFill(Color{0, 1, 0, 1})
	}
	r.Tick(16)
	if !r.Stats().Full {
		t.Errorf("Stats = %+v, want full repaint", r.Stats())
	}
	if op := clearOp(t, rec); len(op.Regions) != 0 {
		t.Errorf("clear regions = %v, want whole surface", op.Regions)
	}
	for i, n := range nodes {
		if n.IsDirty() {
			t.Errorf("node %d still dirty", i)
		}
	}
}

func TestSetDirtyRectsOff(t *testing.T) {
	r := newHeadlessRenderer()
	c := r.Root().Add(NewCircle("c", 50, 50, 10))
	r.Tick(0)

	r.SetDirtyRects(false)
	c.SetPosition(1, 0)
	r.Tick(16)
	if !r.Stats().Full {
		t.Error("frames without dirty rects should be full")
	}
	c.SetPosition(2, 0)
	r.Tick(32)
	if !r.Stats().Full {
		t.Error("every frame should be full while dirty rects are off")
	}

	r.SetDirtyRects(true)
	r.Tick(48)
	if !r.Stats().Full {
		t.Error("turning dirty rects back on should repaint fully once")
	}
	c.SetPosition(3, 0)
	r.Tick(64)
	if r.Stats().Full {
		t.Error("incremental repaint should resume")
	}
}

func TestMultipleRegions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRegions = 2
	r, rec := newRecordingRenderer(cfg)
	a := r.Root().Add(NewCircle("a", 20, 20, 10))
	b := r.Root().Add(NewCircle("b", 150, 150, 10))
	r.Tick(0)
	rec.Reset()

	a.SetParam("cx", 25)
	b.SetParam("cx", 155)
	r.Tick(16)
	if r.Stats().Regions != 2 {
		t.Fatalf("Regions = %d, want 2", r.Stats().Regions)
	}
	op := clearOp(t, rec)
	if len(op.Regions) != 2 {
		t.Fatalf("clear regions = %v, want 2", op.Regions)
	}
	assertBox(t, "region a", op.Regions[0], Box{9, 9, 27, 22})
	assertBox(t, "region b", op.Regions[1], Box{139, 139, 27, 22})
	if rec.Count("clipPath") < 1 {
		t.Error("multiple regions should clip with a path")
	}
}

func TestRemoveClearsVacatedArea(t *testing.T) {
	p := &trackingPainter{}
	r := NewRenderer(p, testConfig())
	g := r.Root().Add(NewGroup("g"))
	c := g.Add(NewCircle("c", 50, 50, 10))
	id := c.ID
	r.Tick(0)

	r.Root().Remove(g)
	r.Tick(16)
	f := p.frames[len(p.frames)-1]
	if f.Full || len(f.Regions) != 1 {
		t.Fatalf("frame = %+v, want one region", f)
	}
	assertBox(t, "vacated", f.Regions[0], Box{39, 39, 22, 22})
	found := false
	for _, rid := range p.removed {
		if rid == id {
			found = true
		}
	}
	if !found {
		t.Errorf("RemoveNode not called for %d, got %v", id, p.removed)
	}
}

func TestInvalidateRect(t *testing.T) {
	p := &trackingPainter{}
	r := NewRenderer(p, testConfig())
	r.Tick(0)

	r.InvalidateRect(Box{10, 10, 5, 5})
	r.InvalidateRect(Box{})
	if r.Idle() {
		t.Error("pending invalidation should keep the renderer busy")
	}
	r.Tick(16)
	f := p.frames[len(p.frames)-1]
	if len(f.Regions) != 1 {
		t.Fatalf("Regions = %v, want 1", f.Regions)
	}
	assertBox(t, "region", f.Regions[0], Box{10, 10, 5, 5})
}

func TestForceFullRepaint(t *testing.T) {
	r := newHeadlessRenderer()
	r.Tick(0)
	r.ForceFullRepaint()
	r.Tick(16)
	if !r.Stats().Full {
		t.Error("ForceFullRepaint should make the next frame full")
	}
	r.Tick(32)
	if r.Stats().Full {
		t.Error("ForceFullRepaint should last one frame")
	}
}

func TestEndFrameErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	p := &trackingPainter{err: boom}
	r := NewRenderer(p, testConfig())
	err := r.Tick(0)
	if !errors.Is(err, boom) {
		t.Errorf("Tick error = %v, want to wrap %v", err, boom)
	}
}

func TestHiddenNodesAreNotDrawn(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	g := r.Root().Add(NewGroup("g"))
	g.SetFill(ColorBlack)
	g.Add(NewCircle("c", 50, 50, 10))
	g.SetDisplay(false)
	r.Tick(0)
	if rec.Count("fill") != 0 {
		t.Errorf("fill count = %d, want 0", rec.Count("fill"))
	}
}

func TestUseNodeDrawsSource(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	src := NewRect("src", 0, 0, 10, 10)
	src.SetFill(ColorBlack)
	u := r.Root().Add(NewUse("u", src))
	u.SetPosition(100, 50)
	r.Tick(0)
	if rec.Count("fill") != 1 {
		t.Fatalf("fill count = %d, want 1", rec.Count("fill"))
	}
	for _, op := range rec.Ops {
		if op.Op == "moveTo" {
			assertNear(t, "moveTo x", op.Args[0], 100)
			assertNear(t, "moveTo y", op.Args[1], 50)
			break
		}
	}
}

// --- Frame work ---

func TestDeferRunsBeforePaint(t *testing.T) {
	r := newHeadlessRenderer()
	var order []string
	var c *Node
	r.Defer(func() {
		order = append(order, "first")
		c = r.Root().Add(NewCircle("c", 50, 50, 10))
		r.Defer(func() { order = append(order, "later") })
	})
	r.Defer(func() { order = append(order, "second") })
	r.Defer(nil)

	r.Tick(0)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
	if c == nil || c.IsDirty() {
		t.Error("node added by deferred work should be painted the same tick")
	}
	r.Tick(16)
	if len(order) != 3 || order[2] != "later" {
		t.Errorf("order = %v, want later on the next tick", order)
	}
}

func TestChunksMountProgressively(t *testing.T) {
	r := newHeadlessRenderer()
	g := r.Root().Add(NewGroup("g"))
	nodes := make([]*Node, 10)
	for i := range nodes {
		nodes[i] = NewRect("r", float64(i*10), 0, 5, 5)
	}
	g.AddChunk(nodes, 3)
	if g.PendingChunkNodes() != 10 {
		t.Fatalf("PendingChunkNodes = %d, want 10", g.PendingChunkNodes())
	}

	wantChildren := []int{3, 6, 9, 10}
	for i, want := range wantChildren {
		r.Tick(0)
		if g.NumChildren() != want {
			t.Errorf("tick %d: NumChildren = %d, want %d", i, g.NumChildren(), want)
		}
		if g.PendingChunkNodes() != 10-want {
			t.Errorf("tick %d: PendingChunkNodes = %d, want %d", i, g.PendingChunkNodes(), 10-want)
		}
	}
	for i, c := range g.Children() {
		if c != nodes[i] {
			t.Errorf("child %d out of order", i)
		}
	}
	if !r.Idle() {
		t.Error("renderer should be idle once every chunk is mounted")
	}
}

func TestChunkQueuedBeforeAttach(t *testing.T) {
	r := newHeadlessRenderer()
	g := NewGroup("g")
	g.AddChunk([]*Node{NewGroup("a"), NewGroup("b")}, 0)
	if g.PendingChunkNodes() != 2 {
		t.Fatalf("PendingChunkNodes = %d, want 2", g.PendingChunkNodes())
	}
	r.Root().Add(g)
	r.Tick(0)
	if g.NumChildren() != 2 {
		t.Errorf("NumChildren = %d, want 2 with the default chunk size", g.NumChildren())
	}
}

func TestChunkDroppedWithParent(t *testing.T) {
	r := newHeadlessRenderer()
	g := r.Root().Add(NewGroup("g"))
	g.AddChunk([]*Node{NewGroup("a"), NewGroup("b")}, 1)
	r.Tick(0)
	r.Root().Remove(g)
	r.Tick(16)
	if !r.Idle() {
		t.Error("chunks of a destroyed parent should be dropped")
	}
}

func TestNilPainter(t *testing.T) {
	r := newHeadlessRenderer()
	r.Root().Add(NewCircle("c", 0, 0, 5))
	if err := r.Tick(0); err != nil {
		t.Fatal(err)
	}
	if r.Stats().Painted != 0 || r.Stats().Visited != 2 {
		t.Errorf("Stats = %+v, want 2 visited and nothing painted", r.Stats())
	}
}

func TestBlurredShadowFadesOut(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	n := r.Root().Add(NewRect("n", 10, 10, 20, 20))
	n.SetFill(ColorWhite)
	n.SetShadow(Shadow{OffsetX: 2, Blur: 6, Color: ColorBlack})
	r.Tick(0)

	var fills, strokes []DrawOp
	for _, op := range rec.Ops {
		switch op.Op {
		case "fill":
			fills = append(fills, op)
		case "stroke":
			strokes = append(strokes, op)
		}
	}
	if len(fills) != 2 || fills[0].Color.A != 0.5 {
		t.Fatalf("fills = %v, want a half-alpha shadow core and the shape", fills)
	}
	if len(strokes) != shadowBlurSteps {
		t.Fatalf("strokes = %d, want %d blur rings", len(strokes), shadowBlurSteps)
	}
	for i, want := range []float64{12, 8, 4} {
		assertNear(t, "ring width", strokes[i].Args[0], want)
	}
	// The widest ring stays inside the reserved area.
	if got := n.CurrentDirtyRect(); !got.ContainsBox(Box{10 + 2 - 6, 10 - 6, 20 + 12, 20 + 12}) {
		t.Errorf("dirty rect %v does not cover the blurred shadow", got)
	}
}

func TestSharpShadowIsSingleFill(t *testing.T) {
	r, rec := newRecordingRenderer(testConfig())
	n := r.Root().Add(NewRect("n", 10, 10, 20, 20))
	n.SetShadow(Shadow{OffsetX: 3, OffsetY: 3, Color: ColorBlack})
	r.Tick(0)
	if rec.Count("stroke") != 0 {
		t.Errorf("stroke count = %d, want 0", rec.Count("stroke"))
	}
}
