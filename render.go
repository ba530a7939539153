package thicket

import (
	"fmt"
	"time"
)

// Paint repaints what changed since the previous paint.
//
// The first frame, frames with incremental repaint disabled and frames whose
// dirty set overflowed Config.MaxDirtyRects clear the whole surface and draw
// every node. Otherwise the dirty areas of every dirty node and every
// vacated area are clipped to the surface, merged into at most
// Config.MaxRegions regions, cleared, and only nodes that are dirty or
// overlap a region are drawn. Every visited node is marked clean.
func (r *Renderer) Paint() error {
	start := time.Now()
	if r.debug {
		for _, msg := range r.CheckConsistency() {
			warnf("%s", msg)
		}
	}
	stats := FrameStats{Dirty: r.dirtyCount}
	frame := Frame{
		DevicePixelRatio: r.cfg.DevicePixelRatio,
		Width:            r.cfg.Width,
		Height:           r.cfg.Height,
	}
	frame.Full = r.firstFrame || r.forceFull || r.overDirtyCap()
	if !frame.Full {
		regions := r.collectRegions()
		if len(regions) == 0 {
			r.settle()
			r.stats = stats
			r.flushScreenshots()
			return nil
		}
		frame.Regions = MergeRegions(regions, r.cfg.MaxRegions)
		stats.Regions = len(frame.Regions)
	}
	stats.Full = frame.Full
	if frame.Full {
		Logger().Debug("full repaint", "first", r.firstFrame, "dirty", r.dirtyCount)
	} else {
		Logger().Debug("incremental repaint", "regions", stats.Regions, "dirty", r.dirtyCount)
	}

	var err error
	if r.painter != nil {
		r.painter.BeginFrame(frame)
		r.walk(r.root, frame, &stats)
		err = r.painter.EndFrame()
	} else {
		r.walk(r.root, frame, &stats)
	}
	r.settle()
	r.stats = stats
	if err == nil {
		r.flushScreenshots()
	}
	r.debugLog(debugStats{updateTime: r.updateTime, paintTime: time.Since(start), frame: stats})
	if err != nil {
		return fmt.Errorf("thicket: end frame: %w", err)
	}
	return nil
}

// walk visits n and its subtree in paint order. Leaves are drawn when the
// frame is full, when they are dirty, or when their paint area overlaps a
// region; groups are never drawn themselves but their children are always
// visited.
func (r *Renderer) walk(n *Node, f Frame, stats *FrameStats) {
	stats.Visited++
	if n.Kind != KindGroup && r.painter != nil && (f.Full || n.dirty || intersectsAny(n.CurrentDirtyRect(), f.Regions)) {
		r.painter.DrawNode(n, f)
		stats.Painted++
	}
	n.ClearDirty()
	if n.firstChild == nil {
		return
	}
	for _, c := range n.OrderedChildren() {
		r.walk(c, f, stats)
	}
}

func intersectsAny(b Box, regions []Box) bool {
	for _, reg := range regions {
		if b.Intersects(reg) {
			return true
		}
	}
	return false
}

// collectRegions gathers the dirty areas of the frame clipped to the
// surface, dropping empty ones.
func (r *Renderer) collectRegions() []Box {
	bounds := Box{0, 0, float64(r.cfg.Width), float64(r.cfg.Height)}
	var out []Box
	add := func(b Box) {
		b = b.Intersect(bounds)
		if !b.IsEmpty() {
			out = append(out, b)
		}
	}
	for _, n := range r.dirty {
		if !n.inDirtySet {
			continue
		}
		for _, b := range n.DirtyRects() {
			add(b)
		}
	}
	for _, b := range r.vacated {
		add(b)
	}
	return out
}

// settle marks every node left in the dirty set clean and resets the
// per-frame state.
func (r *Renderer) settle() {
	for _, n := range r.dirty {
		// Skipped and partial frames never visit some ancestors.
		for p := n.parent; p != nil; p = p.parent {
			p.dirtyDescendants = 0
		}
		if n.inDirtySet {
			n.inDirtySet = false
			n.ClearDirty()
		}
	}
	clear(r.dirty)
	r.dirty = r.dirty[:0]
	r.dirtyCount = 0
	r.vacated = r.vacated[:0]
	r.forceFull = false
	r.firstFrame = false
}

// MergeRegions reduces regions to at most limit boxes. With limit <= 1 the
// result is the single bounding union. Otherwise the pair with the largest
// overlap is merged repeatedly, ties going to the pair whose union is
// smallest, until the bound holds. The input slice is not modified.
func MergeRegions(regions []Box, limit int) []Box {
	if len(regions) == 0 {
		return nil
	}
	if limit <= 1 {
		u := regions[0]
		for _, b := range regions[1:] {
			u = u.Union(b)
		}
		return []Box{u}
	}
	out := append([]Box(nil), regions...)
	for len(out) > limit {
		bi, bj := 0, 1
		bestOverlap, bestArea := -1.0, 0.0
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				overlap := out[i].Intersect(out[j]).Area()
				area := out[i].Union(out[j]).Area()
				if overlap > bestOverlap || (overlap == bestOverlap && area < bestArea) {
					bi, bj = i, j
					bestOverlap, bestArea = overlap, area
				}
			}
		}
		out[bi] = out[bi].Union(out[bj])
		out = append(out[:bj], out[bj+1:]...)
	}
	return out
}
