package thicket

import (
	"strings"
	"testing"
)

// --- Constructor defaults ---

func TestNewGroupDefaults(t *testing.T) {
	n := NewGroup("g")
	assertNodeDefaults(t, n, "g", KindGroup)
	if n.Shape() != nil {
		t.Errorf("Shape = %v, want nil", n.Shape())
	}
}

func TestNewShapeDefaults(t *testing.T) {
	n := NewCircle("c", 1, 2, 3)
	assertNodeDefaults(t, n, "c", KindShape)
	c, ok := n.Shape().(*Circle)
	if !ok {
		t.Fatalf("Shape = %T, want *Circle", n.Shape())
	}
	if *c != (Circle{Cx: 1, Cy: 2, R: 3}) {
		t.Errorf("Circle = %+v", *c)
	}
}

func TestNewUseDefaults(t *testing.T) {
	src := NewCircle("src", 0, 0, 5)
	n := NewUse("u", src)
	assertNodeDefaults(t, n, "u", KindUse)
	if n.Source() != src {
		t.Error("Source should be src")
	}
	if src.Parent() != nil {
		t.Error("NewUse must not attach the source anywhere")
	}
}

func TestNewUseNilSourceWarns(t *testing.T) {
	buf := captureLog(t)
	n := NewUse("u", nil)
	if n.Source() != nil {
		t.Error("Source should be nil")
	}
	if !strings.Contains(buf.String(), "source is nil") {
		t.Errorf("missing warning, log = %q", buf.String())
	}
	if !n.BBoxEmpty() {
		t.Error("use without a source should have an empty bbox")
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string, kind NodeKind) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Kind != kind {
		t.Errorf("Kind = %v, want %v", n.Kind, kind)
	}
	a := n.Attrs()
	if a.ScaleX != 1 || a.ScaleY != 1 {
		t.Errorf("Scale = (%v, %v), want (1, 1)", a.ScaleX, a.ScaleY)
	}
	if a.Opacity != 1 {
		t.Errorf("Opacity = %v, want 1", a.Opacity)
	}
	if a.LineWidth != 1 {
		t.Errorf("LineWidth = %v, want 1", a.LineWidth)
	}
	if !a.Display {
		t.Error("Display should be true")
	}
	if a.Fill != nil || a.Stroke != nil {
		t.Error("Fill and Stroke should inherit by default")
	}
	if n.IsDirty() {
		t.Error("detached node should not be dirty")
	}
}

func TestUniqueIDs(t *testing.T) {
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		n := NewGroup("g")
		if seen[n.ID] {
			t.Fatalf("duplicate ID %d", n.ID)
		}
		seen[n.ID] = true
	}
}

// --- Add / InsertBefore ---

func childNames(n *Node) string {
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.Name)
	}
	return strings.Join(names, ",")
}

func TestAddAppendsInOrder(t *testing.T) {
	g := NewGroup("g")
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	if got := g.Add(a); got != a {
		t.Error("Add should return the child")
	}
	g.Add(b)
	g.AppendChild(c)
	if got := childNames(g); got != "a,b,c" {
		t.Errorf("children = %s, want a,b,c", got)
	}
	if g.NumChildren() != 3 {
		t.Errorf("NumChildren = %d, want 3", g.NumChildren())
	}
	if g.FirstChild() != a || g.LastChild() != c {
		t.Error("first/last child wrong")
	}
	if b.PrevSibling() != a || b.NextSibling() != c {
		t.Error("sibling links wrong")
	}
	if a.Parent() != g {
		t.Error("parent not set")
	}
}

func TestInsertBefore(t *testing.T) {
	g := NewGroup("g")
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	g.Add(a)
	g.Add(b)
	g.InsertBefore(c, a)
	if got := childNames(g); got != "c,a,b" {
		t.Errorf("children = %s, want c,a,b", got)
	}
	g.InsertBefore(c, nil)
	if got := childNames(g); got != "a,b,c" {
		t.Errorf("after move to tail: %s, want a,b,c", got)
	}
	g.InsertBefore(a, c)
	if got := childNames(g); got != "b,a,c" {
		t.Errorf("after move before c: %s, want b,a,c", got)
	}
}

func TestInsertBeforeForeignRefWarns(t *testing.T) {
	buf := captureLog(t)
	g, other := NewGroup("g"), NewGroup("other")
	ref := other.Add(NewGroup("ref"))
	if g.InsertBefore(NewGroup("x"), ref) != nil {
		t.Error("InsertBefore should refuse a reference from another parent")
	}
	if g.NumChildren() != 0 {
		t.Error("nothing should be inserted")
	}
	if !strings.Contains(buf.String(), "reference is not a child") {
		t.Errorf("missing warning, log = %q", buf.String())
	}
}

func TestReAddMovesWithoutRemount(t *testing.T) {
	r := newHeadlessRenderer()
	mounts := 0
	n := NewGroup("n")
	n.OnMount = func(*Node) { mounts++ }
	other := NewGroup("other")
	r.Root().Add(n)
	r.Root().Add(other)
	r.Tick(0)

	r.Root().Add(n)
	r.Tick(16)
	if got := childNames(r.Root()); got != "other,n" {
		t.Errorf("children = %s, want other,n", got)
	}
	if mounts != 1 {
		t.Errorf("OnMount ran %d times, want 1", mounts)
	}
	if n.IsDestroyed() {
		t.Error("re-added node must not be destroyed")
	}
}

func TestAddAttachedElsewhereRefused(t *testing.T) {
	buf := captureLog(t)
	a, b := NewGroup("a"), NewGroup("b")
	child := a.Add(NewGroup("child"))
	if b.Add(child) != nil {
		t.Error("Add should refuse a node attached to another parent")
	}
	if child.Parent() != a || b.NumChildren() != 0 {
		t.Error("tree changed after refused Add")
	}
	if !strings.Contains(buf.String(), "still attached") {
		t.Errorf("missing warning, log = %q", buf.String())
	}
}

func TestAddCycleRefused(t *testing.T) {
	buf := captureLog(t)
	g := NewGroup("g")
	child := g.Add(NewGroup("child"))
	grandchild := child.Add(NewGroup("grandchild"))
	if grandchild.Add(g) != nil {
		t.Error("Add should refuse an ancestor")
	}
	if g.Add(g) != nil {
		t.Error("Add should refuse the node itself")
	}
	if g.Parent() != nil || grandchild.NumChildren() != 0 {
		t.Error("tree changed after refused Add")
	}
	if !strings.Contains(buf.String(), "cycle") {
		t.Errorf("missing warning, log = %q", buf.String())
	}
}

func TestAddToLeafRefused(t *testing.T) {
	captureLog(t)
	leaf := NewCircle("leaf", 0, 0, 1)
	if leaf.Add(NewGroup("x")) != nil {
		t.Error("shape nodes must not take children")
	}
	u := NewUse("u", leaf)
	if u.Add(NewGroup("x")) != nil {
		t.Error("use nodes must not take children")
	}
}

func TestAddAcrossRenderersRefused(t *testing.T) {
	captureLog(t)
	r1, r2 := newHeadlessRenderer(), newHeadlessRenderer()
	clip := NewCircle("clip", 0, 0, 5)
	holder := NewCircle("holder", 0, 0, 5)
	holder.SetClip(clip)
	r1.Root().Add(holder)
	if clip.Renderer() != r1 {
		t.Fatal("clip should be attached to r1 through its user")
	}
	g := NewGroup("g")
	r2.Root().Add(g)
	if g.Add(clip) != nil {
		t.Error("Add should refuse a node bound to another renderer")
	}
}

func TestDetachedSubtreeAttachesOnAdd(t *testing.T) {
	r := newHeadlessRenderer()
	g := NewGroup("g")
	inner := g.Add(NewGroup("inner"))
	leaf := inner.Add(NewCircle("leaf", 0, 0, 1))
	if leaf.Renderer() != nil {
		t.Fatal("detached subtree should have no renderer")
	}
	r.Root().Add(g)
	for _, n := range []*Node{g, inner, leaf} {
		if n.Renderer() != r {
			t.Errorf("%s: Renderer = %v, want r", n.Name, n.Renderer())
		}
	}
}

// --- Remove ---

func TestRemoveDestroysSubtree(t *testing.T) {
	r := newHeadlessRenderer()
	g := r.Root().Add(NewGroup("g"))
	leaf := g.Add(NewCircle("leaf", 0, 0, 5))
	id := leaf.ID
	r.Tick(0)

	r.Root().Remove(g)
	if r.Root().NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", r.Root().NumChildren())
	}
	for _, n := range []*Node{g, leaf} {
		if !n.IsDestroyed() {
			t.Errorf("%s should be destroyed", n.Name)
		}
		if n.Renderer() != nil || n.Parent() != nil {
			t.Errorf("%s still linked", n.Name)
		}
	}
	if leaf.ID != id {
		t.Error("destroyed node must keep its ID")
	}
}

func TestMutatingDestroyedNodeWarns(t *testing.T) {
	buf := captureLog(t)
	g := NewGroup("g")
	leaf := g.Add(NewCircle("leaf", 0, 0, 5))
	g.Remove(leaf)

	leaf.SetPosition(10, 10)
	if leaf.Attrs().X != 0 {
		t.Errorf("X = %v, want 0", leaf.Attrs().X)
	}
	if !strings.Contains(buf.String(), "destroyed node") {
		t.Errorf("missing warning, log = %q", buf.String())
	}
	if g.Add(leaf) != nil {
		t.Error("destroyed nodes cannot be re-added")
	}
}

func TestRemoveNotChildWarns(t *testing.T) {
	buf := captureLog(t)
	g := NewGroup("g")
	stranger := NewGroup("stranger")
	g.Remove(stranger)
	g.Remove(nil)
	if stranger.IsDestroyed() {
		t.Error("Remove of a non-child must not destroy it")
	}
	if strings.Count(buf.String(), "not a child") != 2 {
		t.Errorf("want two warnings, log = %q", buf.String())
	}
}

func TestRemoveFromParentAndRemoveChildren(t *testing.T) {
	g := NewGroup("g")
	a := g.Add(NewGroup("a"))
	g.Add(NewGroup("b"))
	g.Add(NewGroup("c"))

	a.RemoveFromParent()
	if got := childNames(g); got != "b,c" {
		t.Errorf("children = %s, want b,c", got)
	}
	NewGroup("detached").RemoveFromParent()

	g.RemoveChildren()
	if g.NumChildren() != 0 || g.FirstChild() != nil || g.LastChild() != nil {
		t.Error("RemoveChildren left children behind")
	}
}

func TestRemoveSourceUnlinksUse(t *testing.T) {
	r := newHeadlessRenderer()
	holder := r.Root().Add(NewGroup("holder"))
	src := holder.Add(NewCircle("src", 0, 0, 5))
	u := r.Root().Add(NewUse("u", src))
	r.Tick(0)

	holder.Remove(src)
	if u.Source() != nil {
		t.Error("use should drop a destroyed source")
	}
	if !u.IsDirty() {
		t.Error("use should repaint after losing its source")
	}
	if !u.BBoxEmpty() {
		t.Error("use without a source should have an empty bbox")
	}
}

// --- Ordering ---

func TestOrderedChildrenZIndex(t *testing.T) {
	g := NewGroup("g")
	a := g.Add(NewGroup("a"))
	b := g.Add(NewGroup("b"))
	c := g.Add(NewGroup("c"))
	a.SetZIndex(2)
	c.SetZIndex(-1)

	order := func() string {
		var names []string
		for _, n := range g.OrderedChildren() {
			names = append(names, n.Name)
		}
		return strings.Join(names, ",")
	}
	if got := order(); got != "a,b,c" {
		t.Errorf("unsorted order = %s, want insertion order", got)
	}
	g.SortByZIndex = true
	g.childrenSorted = false
	if got := order(); got != "c,b,a" {
		t.Errorf("sorted order = %s, want c,b,a", got)
	}
	b.SetZIndex(5)
	if got := order(); got != "c,a,b" {
		t.Errorf("after SetZIndex: %s, want c,a,b", got)
	}
}

func TestContains(t *testing.T) {
	g := NewGroup("g")
	child := g.Add(NewGroup("child"))
	leaf := child.Add(NewCircle("leaf", 0, 0, 1))
	if !g.Contains(leaf) || !g.Contains(g) {
		t.Error("Contains should include descendants and the node itself")
	}
	if leaf.Contains(g) {
		t.Error("leaf does not contain its ancestor")
	}
}

func TestLeafCountExceeds(t *testing.T) {
	g := NewGroup("g")
	for i := 0; i < 4; i++ {
		g.Add(NewCircle("c", 0, 0, 1))
	}
	if !g.leafCountExceeds(3) {
		t.Error("4 leaves should exceed 3")
	}
	if g.leafCountExceeds(4) {
		t.Error("4 leaves should not exceed 4")
	}
	if NewCircle("c", 0, 0, 1).leafCountExceeds(0) {
		t.Error("only groups are counted")
	}
}
