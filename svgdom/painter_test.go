package svgdom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/thicket"
)

var (
	red  = thicket.Color{R: 1, A: 1}
	blue = thicket.Color{B: 1, A: 1}
)

func newScene(t *testing.T) (*thicket.Renderer, *Painter) {
	t.Helper()
	p := New()
	cfg := thicket.DefaultConfig()
	cfg.Width, cfg.Height = 100, 100
	return thicket.NewRenderer(p, cfg), p
}

func render(t *testing.T, p *Painter) string {
	t.Helper()
	var buf bytes.Buffer
	n, err := p.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	return buf.String()
}

func idAttr(n *thicket.Node) string {
	return `id="n` + strconv.FormatUint(uint64(n.ID), 10) + `"`
}

func TestDrawCreatesElements(t *testing.T) {
	r, p := newScene(t)
	a := thicket.NewCircle("a", 10, 10, 5)
	a.SetFill(red)
	b := thicket.NewCircle("b", 80, 80, 5)
	b.SetStroke(blue)
	r.Root().Add(a)
	r.Root().Add(b)

	require.NoError(t, r.Tick(0))
	require.Equal(t, 2, p.Len())

	el, ok := p.Element(a.ID)
	require.True(t, ok)
	assert.Equal(t, "path", el.Tag)
	assert.Equal(t, "#ff0000", el.Attrs["fill"])
	assert.True(t, strings.HasPrefix(el.Attrs["d"], "M 15 10 C"), el.Attrs["d"])
	assert.NotContains(t, el.Attrs, "transform")

	el, ok = p.Element(b.ID)
	require.True(t, ok)
	assert.Equal(t, "none", el.Attrs["fill"])
	assert.Equal(t, "#0000ff", el.Attrs["stroke"])
	assert.Equal(t, "1", el.Attrs["stroke-width"])
}

func TestIncrementalFrameTouchesOnlyChangedElements(t *testing.T) {
	r, p := newScene(t)
	a := thicket.NewCircle("a", 10, 10, 5)
	a.SetFill(red)
	b := thicket.NewCircle("b", 80, 80, 5)
	b.SetFill(red)
	r.Root().Add(a)
	r.Root().Add(b)
	require.NoError(t, r.Tick(0))

	before := p.Mutations()
	elB, _ := p.Element(b.ID)

	a.SetFill(blue)
	require.NoError(t, r.Tick(16))

	assert.False(t, r.Stats().Full)
	assert.Equal(t, 1, p.Mutations()-before)
	el, _ := p.Element(a.ID)
	assert.Equal(t, "#0000ff", el.Attrs["fill"])
	sameB, _ := p.Element(b.ID)
	assert.Same(t, elB, sameB)

	// Nothing changed: no frame work, no writes.
	before = p.Mutations()
	require.NoError(t, r.Tick(32))
	assert.Equal(t, before, p.Mutations())
}

func TestTransformAndDisplay(t *testing.T) {
	r, p := newScene(t)
	a := thicket.NewCircle("a", 0, 0, 5)
	a.SetPosition(20, 30)
	r.Root().Add(a)
	require.NoError(t, r.Tick(0))

	el, _ := p.Element(a.ID)
	assert.Equal(t, "matrix(1 0 0 1 20 30)", el.Attrs["transform"])

	a.SetDisplay(false)
	require.NoError(t, r.Tick(16))
	el, _ = p.Element(a.ID)
	assert.Equal(t, "none", el.Attrs["display"])

	a.SetDisplay(true)
	require.NoError(t, r.Tick(32))
	el, _ = p.Element(a.ID)
	assert.NotContains(t, el.Attrs, "display")
}

func TestRemoveDropsElement(t *testing.T) {
	r, p := newScene(t)
	a := thicket.NewCircle("a", 10, 10, 5)
	b := thicket.NewCircle("b", 50, 50, 5)
	r.Root().Add(a)
	r.Root().Add(b)
	require.NoError(t, r.Tick(0))

	r.Root().Remove(a)
	require.NoError(t, r.Tick(16))

	assert.Equal(t, 1, p.Len())
	_, ok := p.Element(a.ID)
	assert.False(t, ok)
	assert.NotContains(t, render(t, p), idAttr(a))
}

func TestReorderMovesElement(t *testing.T) {
	r, p := newScene(t)
	a := thicket.NewCircle("a", 10, 10, 5)
	b := thicket.NewCircle("b", 50, 50, 5)
	r.Root().Add(a)
	r.Root().Add(b)
	require.NoError(t, r.Tick(0))

	doc := render(t, p)
	assert.Less(t, strings.Index(doc, idAttr(a)), strings.Index(doc, idAttr(b)))

	before := p.Mutations()
	r.Root().Add(a)
	require.NoError(t, r.Tick(16))
	assert.Equal(t, 1, p.Mutations()-before)

	doc = render(t, p)
	assert.Greater(t, strings.Index(doc, idAttr(a)), strings.Index(doc, idAttr(b)))
}

func TestUseNodeFollowsSource(t *testing.T) {
	r, p := newScene(t)
	src := thicket.NewCircle("src", 0, 0, 4)
	src.SetFill(red)
	use := thicket.NewUse("use", src)
	use.SetPosition(50, 50)
	r.Root().Add(use)
	require.NoError(t, r.Tick(0))

	el, ok := p.Element(use.ID)
	require.True(t, ok)
	assert.Equal(t, "g", el.Tag)
	assert.Equal(t, "matrix(1 0 0 1 50 50)", el.Attrs["transform"])
	require.Len(t, el.Children, 1)
	assert.Equal(t, "#ff0000", el.Children[0].Attrs["fill"])

	src.SetFill(blue)
	require.NoError(t, r.Tick(16))
	el, _ = p.Element(use.ID)
	require.Len(t, el.Children, 1)
	assert.Equal(t, "#0000ff", el.Children[0].Attrs["fill"])
}

func TestClipPathDefinition(t *testing.T) {
	r, p := newScene(t)
	a := thicket.NewCircle("a", 10, 10, 8)
	clip := thicket.NewRect("clip", 0, 0, 10, 10)
	a.SetClip(clip)
	r.Root().Add(a)
	require.NoError(t, r.Tick(0))

	el, _ := p.Element(a.ID)
	id := "clip" + strconv.FormatUint(uint64(clip.ID), 10)
	assert.Equal(t, "url(#"+id+")", el.Attrs["clip-path"])

	doc := render(t, p)
	assert.Contains(t, doc, "<defs>")
	assert.Contains(t, doc, `<clipPath id="`+id+`">`)
}

func TestWriteToProducesWellFormedXML(t *testing.T) {
	r, p := newScene(t)
	g := thicket.NewGroup("g")
	g.SetOpacity(0.5)
	r.Root().Add(g)
	c := thicket.NewCircle("c", 10, 10, 5)
	c.SetFill(thicket.Color{R: 1, G: 0.5, A: 0.25})
	g.Add(c)
	require.NoError(t, r.Tick(0))

	doc := render(t, p)
	assert.Contains(t, doc, `width="100"`)
	assert.Contains(t, doc, `opacity="0.5"`)
	assert.Contains(t, doc, `fill="#ff8000"`)
	assert.Contains(t, doc, `fill-opacity="0.25"`)

	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
}
