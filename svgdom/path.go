package svgdom

import (
	"strconv"
	"strings"

	"github.com/phanxgames/thicket"
)

// pathData builds an SVG path "d" attribute from Brush calls.
type pathData struct {
	sb strings.Builder
}

var _ thicket.PathContext = (*pathData)(nil)

func (p *pathData) cmd(c byte, vals ...float64) {
	if p.sb.Len() > 0 {
		p.sb.WriteByte(' ')
	}
	p.sb.WriteByte(c)
	for _, v := range vals {
		p.sb.WriteByte(' ')
		p.sb.WriteString(formatFloat(v))
	}
}

func (p *pathData) MoveTo(x, y float64)         { p.cmd('M', x, y) }
func (p *pathData) LineTo(x, y float64)         { p.cmd('L', x, y) }
func (p *pathData) QuadTo(cx, cy, x, y float64) { p.cmd('Q', cx, cy, x, y) }
func (p *pathData) ClosePath()                  { p.cmd('Z') }

func (p *pathData) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.cmd('C', c1x, c1y, c2x, c2y, x, y)
}

func (p *pathData) String() string { return p.sb.String() }

// shapePath returns the path data of s in its local coordinates.
func shapePath(s thicket.Shape) string {
	var p pathData
	s.Brush(&p)
	return p.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMatrix(m thicket.Matrix) string {
	var sb strings.Builder
	sb.WriteString("matrix(")
	for i, v := range m {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatFloat(v))
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatColor(c thicket.Color) string {
	return "#" + hex8(c.R) + hex8(c.G) + hex8(c.B)
}

func hex8(v float64) string {
	b := int(v*255 + 0.5)
	b = max(0, min(255, b))
	s := strconv.FormatInt(int64(b), 16)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
