package thicket

import "fmt"

// DrawOp is one call captured by a Recorder.
type DrawOp struct {
	Op      string
	Args    []float64
	Color   Color
	Regions []Box
}

func (o DrawOp) String() string {
	switch {
	case o.Regions != nil:
		return fmt.Sprintf("%s%v", o.Op, o.Regions)
	case o.Op == "fill" || o.Op == "stroke":
		return fmt.Sprintf("%s(%v)%v", o.Op, o.Color, o.Args)
	default:
		return fmt.Sprintf("%s%v", o.Op, o.Args)
	}
}

// Recorder is a Canvas that records every call instead of drawing. Path
// points are recorded in device space, after the current transform.
type Recorder struct {
	Width, Height int
	Ops           []DrawOp

	m     Matrix
	stack []Matrix
}

// NewRecorder returns a recorder reporting the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height, m: Identity}
}

func (r *Recorder) record(op string, args ...float64) {
	r.Ops = append(r.Ops, DrawOp{Op: op, Args: args})
}

func (r *Recorder) point(op string, xy ...float64) {
	out := make([]float64, len(xy))
	for i := 0; i+1 < len(xy); i += 2 {
		out[i], out[i+1] = r.m.Apply(xy[i], xy[i+1])
	}
	r.record(op, out...)
}

func (r *Recorder) Size() (int, int) { return r.Width, r.Height }

// Resize changes the reported size.
func (r *Recorder) Resize(width, height int) error {
	r.Width, r.Height = width, height
	return nil
}

func (r *Recorder) Clear(regions []Box) {
	if regions == nil {
		regions = []Box{}
	}
	r.Ops = append(r.Ops, DrawOp{Op: "clear", Regions: append([]Box{}, regions...)})
}

func (r *Recorder) Save() {
	r.stack = append(r.stack, r.m)
	r.record("save")
}

func (r *Recorder) Restore() {
	if len(r.stack) > 0 {
		r.m = r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
	}
	r.record("restore")
}

func (r *Recorder) ClipRect(b Box) {
	r.Ops = append(r.Ops, DrawOp{Op: "clipRect", Regions: []Box{r.m.TransformBox(b)}})
}

func (r *Recorder) ClipPath()             { r.record("clipPath") }
func (r *Recorder) SetTransform(m Matrix) { r.m = m }
func (r *Recorder) BeginPath()            { r.record("beginPath") }
func (r *Recorder) MoveTo(x, y float64)   { r.point("moveTo", x, y) }
func (r *Recorder) LineTo(x, y float64)   { r.point("lineTo", x, y) }
func (r *Recorder) ClosePath()            { r.record("closePath") }

func (r *Recorder) QuadTo(cx, cy, x, y float64) {
	r.point("quadTo", cx, cy, x, y)
}

func (r *Recorder) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	r.point("cubicTo", c1x, c1y, c2x, c2y, x, y)
}

func (r *Recorder) Fill(c Color) {
	r.Ops = append(r.Ops, DrawOp{Op: "fill", Color: c})
}

func (r *Recorder) Stroke(c Color, width float64) {
	r.Ops = append(r.Ops, DrawOp{Op: "stroke", Color: c, Args: []float64{width * r.m.ScaleFactor()}})
}

// Count returns how many recorded calls have the given op name.
func (r *Recorder) Count(op string) int {
	count := 0
	for _, o := range r.Ops {
		if o.Op == op {
			count++
		}
	}
	return count
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
	r.stack = r.stack[:0]
	r.m = Identity
}
