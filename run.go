package thicket

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window and game loop created by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// Background is the color cleared areas are filled with.
	Background Color
	// ShowFPS draws an FPS/TPS counter in the top-left corner.
	ShowFPS bool
	// TPS sets the tick rate; 0 keeps ebiten's default of 60.
	TPS int
	// Update, when set, runs once per tick before animations advance.
	// Returning an error stops the loop.
	Update func() error
}

// ErrNoEbitenCanvas is returned by Run when the renderer does not paint
// through an EbitenCanvas.
var ErrNoEbitenCanvas = errors.New("thicket: renderer does not paint to an EbitenCanvas")

// fpsBox covers the debug counter text.
var fpsBox = Box{0, 0, 100, 32}

// NewEbitenRenderer returns a renderer painting through a CanvasPainter onto
// an EbitenCanvas. Run supplies the screen image as the canvas target.
func NewEbitenRenderer(cfg Config, background Color) *Renderer {
	return NewRenderer(NewCanvasPainter(NewEbitenCanvas(nil, background)), cfg)
}

// Run opens a window and drives r until the window closes or an update
// fails. The screen is not cleared between frames, so only the regions the
// renderer repaints change.
func Run(r *Renderer, cfg RunConfig) error {
	cp, ok := r.painter.(*CanvasPainter)
	if !ok {
		return ErrNoEbitenCanvas
	}
	canvas, ok := cp.Canvas().(*EbitenCanvas)
	if !ok {
		return ErrNoEbitenCanvas
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		r.Resize(cfg.Width, cfg.Height)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(r.cfg.Width, r.cfg.Height)
	ebiten.SetScreenClearedEveryFrame(false)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	g := &game{r: r, canvas: canvas, cfg: cfg, start: time.Now()}
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("thicket: run: %w", err)
	}
	return nil
}

// game adapts a Renderer to ebiten.Game.
type game struct {
	r      *Renderer
	canvas *EbitenCanvas
	cfg    RunConfig
	start  time.Time
	err    error
}

func (g *game) Update() error {
	if g.err != nil {
		return g.err
	}
	if !g.r.scripted() {
		dpr := g.r.cfg.DevicePixelRatio
		cx, cy := ebiten.CursorPosition()
		g.r.PointerInput(float64(cx)/dpr, float64(cy)/dpr, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	}
	if g.cfg.Update != nil {
		if err := g.cfg.Update(); err != nil {
			return err
		}
	}
	g.r.Update(time.Since(g.start))
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.canvas.Target() != screen {
		g.canvas.SetTarget(screen)
		g.r.ForceFullRepaint()
	}
	if g.cfg.ShowFPS {
		g.r.InvalidateRect(fpsBox)
	}
	if err := g.r.Paint(); err != nil {
		g.err = err
		return
	}
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.r.deviceSize()
}
