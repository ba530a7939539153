package thicket

import (
	"fmt"
	"math"
	"time"
)

// debugStats holds per-frame timing and paint metrics. Only logged when the
// renderer is in debug mode.
type debugStats struct {
	updateTime time.Duration
	paintTime  time.Duration
	frame      FrameStats
}

// debugLog reports a frame's stats at debug level.
func (r *Renderer) debugLog(stats debugStats) {
	if !r.debug {
		return
	}
	Logger().Debug("frame",
		"full", stats.frame.Full,
		"regions", stats.frame.Regions,
		"dirty", stats.frame.Dirty,
		"visited", stats.frame.Visited,
		"painted", stats.frame.Painted,
		"update", stats.updateTime,
		"paint", stats.paintTime)
}

// debugging reports whether n belongs to a renderer in debug mode.
func (n *Node) debugging() bool {
	return n.renderer != nil && n.renderer.debug
}

// debugWarnDestroyed warns about a mutation of a destroyed node.
func debugWarnDestroyed(n *Node, op string) {
	warnf("%s on destroyed node %q (id %d)", op, n.Name, n.ID)
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		warnf("tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.Name)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if n.childCount > debugMaxChildCount {
		warnf("node %q has %d children (threshold %d)", n.Name, n.childCount, debugMaxChildCount)
	}
}

// CheckConsistency recomputes every clean cached value in the tree from
// scratch and compares it with the cache. It returns one message per stale
// value; an empty result means every cache is coherent. Debug mode runs it
// before each paint and logs the messages as warnings.
func (r *Renderer) CheckConsistency() []string {
	var problems []string
	var walk func(n *Node)
	walk = func(n *Node) {
		problems = append(problems, checkNode(n)...)
		for c := n.firstChild; c != nil; c = c.nextSibling {
			walk(c)
		}
	}
	walk(r.root)
	return problems
}

// checkNode compares n's clean caches with fresh values computed without
// reading any cache.
func checkNode(n *Node) []string {
	var out []string
	report := func(what string, cached, fresh any) {
		out = append(out, fmt.Sprintf("node %q (id %d): stale %s: cached %v, fresh %v",
			n.Name, n.ID, what, cached, fresh))
	}
	if !n.transformDirty {
		if fresh, _ := freshLocal(n); !matrixNear(fresh, n.transform) {
			report("transform", n.transform, fresh)
		}
	}
	if !n.globalDirty {
		if fresh := freshGlobal(n); !matrixNear(fresh, n.global) {
			report("global transform", n.global, fresh)
		}
	}
	if !n.bboxDirty {
		if fresh, _ := freshBBox(n); !boxNear(fresh, n.bbox) {
			report("bbox", n.bbox, fresh)
		}
	}
	return out
}

// freshLocal is computeLocalTransform with keyword origins resolved against
// a fresh bbox.
func freshLocal(n *Node) (Matrix, bool) {
	saved := n.attrs
	if n.attrs.OriginX.IsKeyword() || n.attrs.OriginY.IsKeyword() {
		b, _ := freshBBox(n)
		n.attrs.OriginX = Abs(n.attrs.OriginX.resolve(b.X, b.Width))
		n.attrs.OriginY = Abs(n.attrs.OriginY.resolve(b.Y, b.Height))
	}
	m, ok := computeLocalTransform(n)
	n.attrs = saved
	return m, ok
}

func freshGlobal(n *Node) Matrix {
	m := Identity
	if n.parent != nil {
		m = freshGlobal(n.parent)
	}
	local, _ := freshLocal(n)
	m = multiplyAffine(m, local)
	if n.dragX != 0 || n.dragY != 0 {
		m = multiplyAffine(Translate(n.dragX, n.dragY), m)
	}
	return m
}

func freshBBox(n *Node) (Box, bool) {
	contrib := func(c *Node) (Box, bool) {
		b, empty := freshBBox(c)
		if empty {
			return Box{}, true
		}
		m, _ := freshLocal(c)
		return m.TransformBox(b), false
	}
	switch n.Kind {
	case KindShape:
		if n.shape == nil {
			return Box{}, true
		}
		return n.shape.ComputeBBox(), false
	case KindUse:
		if n.source == nil {
			return Box{}, true
		}
		return contrib(n.source)
	default:
		var acc boxAccumulator
		for c := n.firstChild; c != nil; c = c.nextSibling {
			if !c.attrs.Display {
				continue
			}
			if b, empty := contrib(c); !empty {
				acc.add(b)
			}
		}
		return acc.box, !acc.valid
	}
}

const debugEpsilon = 1e-6

func matrixNear(a, b Matrix) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > debugEpsilon {
			return false
		}
	}
	return true
}

func boxNear(a, b Box) bool {
	return math.Abs(a.X-b.X) <= debugEpsilon && math.Abs(a.Y-b.Y) <= debugEpsilon &&
		math.Abs(a.Width-b.Width) <= debugEpsilon && math.Abs(a.Height-b.Height) <= debugEpsilon
}
