package thicket

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at paint time.
type Color struct {
	R, G, B, A float64
}

var (
	ColorBlack       = Color{0, 0, 0, 1}
	ColorWhite       = Color{1, 1, 1, 1}
	ColorTransparent = Color{}
)

// withAlpha returns c with its alpha multiplied by a.
func (c Color) withAlpha(a float64) Color {
	c.A *= a
	return c
}

// Vec2 is a 2D vector used for points and offsets.
type Vec2 struct {
	X, Y float64
}

// Box is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Box struct {
	X, Y, Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// IsEmpty reports whether the box covers no area.
func (b Box) IsEmpty() bool {
	return !(b.Width > 0 && b.Height > 0)
}

// Area returns Width*Height, or 0 for empty boxes.
func (b Box) Area() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Width * b.Height
}

// Contains reports whether the point (x, y) lies inside the box.
// Points on the edge are considered inside.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width &&
		y >= b.Y && y <= b.Y+b.Height
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return o.X >= b.X && o.Y >= b.Y && o.Right() <= b.Right() && o.Bottom() <= b.Bottom()
}

// Intersects reports whether b and o share a region of positive area.
// Boxes that only touch along an edge do not intersect.
func (b Box) Intersects(o Box) bool {
	return b.X < o.Right() && o.X < b.Right() &&
		b.Y < o.Bottom() && o.Y < b.Bottom()
}

// Intersect returns the overlap of b and o. The result is empty when they
// do not intersect.
func (b Box) Intersect(o Box) Box {
	x0 := math.Max(b.X, o.X)
	y0 := math.Max(b.Y, o.Y)
	x1 := math.Min(b.Right(), o.Right())
	y1 := math.Min(b.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Box{}
	}
	return Box{x0, y0, x1 - x0, y1 - y0}
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	x0 := math.Min(b.X, o.X)
	y0 := math.Min(b.Y, o.Y)
	x1 := math.Max(b.Right(), o.Right())
	y1 := math.Max(b.Bottom(), o.Bottom())
	return Box{x0, y0, x1 - x0, y1 - y0}
}

// Inflate grows the box by d on every side.
func (b Box) Inflate(d float64) Box {
	return Box{b.X - d, b.Y - d, b.Width + 2*d, b.Height + 2*d}
}

// Offset translates the box by (dx, dy).
func (b Box) Offset(dx, dy float64) Box {
	return Box{b.X + dx, b.Y + dy, b.Width, b.Height}
}

// Scale multiplies every coordinate by s.
func (b Box) Scale(s float64) Box {
	return Box{b.X * s, b.Y * s, b.Width * s, b.Height * s}
}

// RoundOut expands the box to integer pixel boundaries.
func (b Box) RoundOut() Box {
	x0 := math.Floor(b.X)
	y0 := math.Floor(b.Y)
	x1 := math.Ceil(b.Right())
	y1 := math.Ceil(b.Bottom())
	return Box{x0, y0, x1 - x0, y1 - y0}
}

func (b Box) String() string {
	return fmt.Sprintf("{x:%g y:%g w:%g h:%g}", b.X, b.Y, b.Width, b.Height)
}

// boxAccumulator unions boxes starting from the first one added, so the union
// of nothing stays distinguishable from a box touching the origin.
type boxAccumulator struct {
	box   Box
	valid bool
}

func (a *boxAccumulator) add(b Box) {
	if !a.valid {
		a.box = b
		a.valid = true
		return
	}
	a.box = a.box.Union(b)
}

// NodeKind distinguishes the node variants. Dispatch on it is a closed switch.
type NodeKind uint8

const (
	KindGroup NodeKind = iota // container with children and no geometry of its own
	KindShape                 // leaf drawing a Shape
	KindUse                   // leaf repainting a shared source node
)

func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindShape:
		return "shape"
	case KindUse:
		return "use"
	default:
		return "unknown"
	}
}

// CoordKind selects how a Coord resolves against a bounding box.
type CoordKind uint8

const (
	CoordAbs    CoordKind = iota // absolute local coordinate
	CoordStart                   // left or top edge of the bbox
	CoordCenter                  // bbox center
	CoordEnd                     // right or bottom edge of the bbox
)

// Coord is a transform origin component: either an absolute value or a
// keyword resolved against the node's local bounding box.
type Coord struct {
	Kind  CoordKind
	Value float64
}

// Keyword origins.
var (
	Start  = Coord{Kind: CoordStart}
	Center = Coord{Kind: CoordCenter}
	End    = Coord{Kind: CoordEnd}
)

// Abs returns an absolute origin coordinate.
func Abs(v float64) Coord { return Coord{Kind: CoordAbs, Value: v} }

// IsKeyword reports whether the coordinate depends on the bounding box.
func (c Coord) IsKeyword() bool { return c.Kind != CoordAbs }

// resolve maps the coordinate onto the [min, min+size] span.
func (c Coord) resolve(min, size float64) float64 {
	switch c.Kind {
	case CoordStart:
		return min
	case CoordCenter:
		return min + size/2
	case CoordEnd:
		return min + size
	default:
		return c.Value
	}
}

// ParseCoord parses "left", "top", "center", "right", "bottom" or a number.
func ParseCoord(s string) (Coord, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "top":
		return Start, nil
	case "center", "middle":
		return Center, nil
	case "right", "bottom":
		return End, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Coord{}, fmt.Errorf("parse origin %q: %w", s, err)
	}
	return Abs(v), nil
}
