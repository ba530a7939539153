// Package thicket is a retained-mode 2D vector scene graph that repaints
// only what changed.
//
// Thicket keeps a tree of shapes, groups and use nodes, tracks which of
// them changed since the last frame, and asks a [Painter] to clear and
// redraw just the affected regions. Painters exist for [Ebitengine]
// (through [EbitenCanvas]), for an offscreen raster canvas in the ggcanvas
// subpackage, and for a retained SVG document in the svgdom subpackage.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	r := thicket.NewEbitenRenderer(thicket.DefaultConfig(), thicket.ColorBlack)
//	ball := r.Root().Add(thicket.NewCircle("ball", 100, 100, 20))
//	ball.SetFill(thicket.Color{R: 0.3, G: 0.7, B: 1, A: 1})
//	thicket.Run(r, thicket.RunConfig{Title: "My Scene"})
//
// Without a window, call [Renderer.Tick] yourself with a monotonic
// timestamp. Each tick runs [Renderer.Update] then [Renderer.Paint].
//
// # Scene graph
//
// Every element is a [Node]. Create nodes with [NewGroup], [NewUse] and the
// shape constructors ([NewCircle], [NewRect], [NewPolygon] and others), then
// attach them with [Node.Add] or [Node.InsertBefore]. Children inherit
// their parent's transform, opacity and style. A use node draws another
// subtree, its source, in its own place; the source never needs to be
// attached.
//
// # Dirty tracking
//
// Every setter marks the node dirty before it mutates anything and keeps
// the area the node covered when it was last painted. The next paint
// clears the union of old and new areas, merged into at most
// [Config.MaxRegions] regions, and redraws only the nodes that overlap
// them. Too many dirty nodes, or a dirtied group with too many leaves,
// fall back to one full repaint.
//
// # Animation
//
// [Node.Animate] queues multi-attribute animations and
// [Node.TransitionTo] eases a single attribute toward a new value,
// superseding any transition already running on it. Both use [gween]
// easing functions.
//
// # Lists
//
// [Node.UpdateAll] reconciles a group's children against a new list,
// keeping nodes matched by key or position and copying attributes from
// templates. [Node.AddChunk] mounts large lists a slice per frame.
//
// # Automation
//
// [Renderer.InjectClick], [Renderer.InjectDrag] and [LoadScript] drive the
// pointer without a mouse; [Renderer.Screenshot] writes the painted surface
// to PNG.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package thicket
