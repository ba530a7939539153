package thicket

// pointerEvent is a single queued pointer sample in render coordinates.
type pointerEvent struct {
	x, y    float64
	pressed bool
}

// InjectPress queues a pointer press at (x, y) in render coordinates. The
// event is consumed by the next Update, exactly like real pointer input.
func (r *Renderer) InjectPress(x, y float64) {
	r.injectQueue = append(r.injectQueue, pointerEvent{x: x, y: y, pressed: true})
}

// InjectMove queues a pointer move with the button held. Use it between
// InjectPress and InjectRelease to drag.
func (r *Renderer) InjectMove(x, y float64) {
	r.injectQueue = append(r.injectQueue, pointerEvent{x: x, y: y, pressed: true})
}

// InjectRelease queues a pointer release at (x, y).
func (r *Renderer) InjectRelease(x, y float64) {
	r.injectQueue = append(r.injectQueue, pointerEvent{x: x, y: y})
}

// InjectClick queues a press followed by a release at the same point.
// Consumes two ticks.
func (r *Renderer) InjectClick(x, y float64) {
	r.InjectPress(x, y)
	r.InjectRelease(x, y)
}

// InjectDrag queues a press at (fromX, fromY), frames-2 evenly spaced moves
// and a release at (toX, toY). The sequence consumes frames ticks; fewer
// than 2 is raised to 2.
func (r *Renderer) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	r.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		r.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	r.InjectRelease(toX, toY)
}

// PointerInput feeds one real pointer sample in render coordinates. Hosts
// other than Run call it once per tick to drive dragging.
func (r *Renderer) PointerInput(x, y float64, pressed bool) {
	r.pointer.update(r, x, y, pressed)
}

// processInjectedInput pops one queued event and feeds it through the
// pointer state machine. It reports whether an event was consumed, in which
// case real input is skipped for the tick.
func (r *Renderer) processInjectedInput() bool {
	if len(r.injectQueue) == 0 {
		return false
	}
	evt := r.injectQueue[0]
	copy(r.injectQueue, r.injectQueue[1:])
	r.injectQueue = r.injectQueue[:len(r.injectQueue)-1]
	r.pointer.update(r, evt.x, evt.y, evt.pressed)
	return true
}

// scripted reports whether injected input owns the pointer this tick.
func (r *Renderer) scripted() bool {
	return len(r.injectQueue) > 0 || (r.runner != nil && !r.runner.done)
}
