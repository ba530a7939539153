package thicket

import (
	"math"
	"slices"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// AnimateOptions configures an animation queued with Animate.
type AnimateOptions struct {
	Duration time.Duration
	// Delay postpones the first frame after the animation starts.
	Delay time.Duration
	// Easing defaults to ease.Linear.
	Easing ease.TweenFunc
	// Iterations repeats the animation; 0 and 1 play once, negative values
	// repeat until StopAllAnimation.
	Iterations int
	// Alternate plays every other iteration backwards.
	Alternate bool
	// OnFinish runs once the last iteration completes. It does not run when
	// the animation is stopped.
	OnFinish func(*Node)
}

// TransitionOptions configures a single-attribute transition.
type TransitionOptions struct {
	Duration time.Duration
	Easing   ease.TweenFunc
}

// animation interpolates a set of attributes from their values at start
// time to fixed targets.
type animation struct {
	keys    []string
	from    []float64
	targets []float64
	opts    AnimateOptions
	tweens  []*gween.Tween
	started bool
	start   time.Duration
}

func newAnimation(to map[string]float64, opts AnimateOptions) *animation {
	a := &animation{opts: opts}
	a.keys = make([]string, 0, len(to))
	for k := range to {
		a.keys = append(a.keys, k)
	}
	slices.Sort(a.keys)
	a.targets = make([]float64, len(a.keys))
	for i, k := range a.keys {
		a.targets[i] = to[k]
	}
	if a.opts.Easing == nil {
		a.opts.Easing = ease.Linear
	}
	return a
}

// step applies the animation at time now and reports whether it completed.
// The start time and the from-values are captured on the first step.
func (a *animation) step(n *Node, now time.Duration) bool {
	if !a.started {
		a.started = true
		a.start = now
		dur := float32(a.opts.Duration.Seconds())
		a.tweens = make([]*gween.Tween, len(a.keys))
		a.from = make([]float64, len(a.keys))
		for i, k := range a.keys {
			a.from[i], _ = n.Get(k)
			a.tweens[i] = gween.New(float32(a.from[i]), float32(a.targets[i]), dur, a.opts.Easing)
		}
	}
	elapsed := now - a.start - a.opts.Delay
	if elapsed < 0 {
		return false
	}
	t, done := a.localTime(elapsed)
	if done {
		a.finish(n)
		return true
	}
	for i, tw := range a.tweens {
		v, _ := tw.Set(float32(t.Seconds()))
		n.Set(a.keys[i], float64(v))
	}
	return false
}

// localTime folds elapsed time into the current iteration.
func (a *animation) localTime(elapsed time.Duration) (time.Duration, bool) {
	d := a.opts.Duration
	iters := a.opts.Iterations
	if iters == 0 {
		iters = 1
	}
	if d <= 0 {
		return 0, iters > 0
	}
	k := int64(elapsed / d)
	if iters > 0 && k >= int64(iters) {
		t := d
		if a.opts.Alternate && iters%2 == 0 {
			t = 0
		}
		return t, true
	}
	t := elapsed - time.Duration(k)*d
	if a.opts.Alternate && k%2 == 1 {
		t = d - t
	}
	return t, false
}

// finish writes exact end values, undoing float32 rounding from the tweens.
func (a *animation) finish(n *Node) {
	backwards := a.opts.Alternate && a.opts.Iterations > 0 && a.opts.Iterations%2 == 0
	for i, k := range a.keys {
		v := a.targets[i]
		if backwards {
			v = a.from[i]
		}
		n.Set(k, v)
	}
}

// transition moves one attribute towards a target. A newer transition on
// the same key replaces it.
type transition struct {
	key     string
	target  float64
	opts    TransitionOptions
	tween   *gween.Tween
	started bool
	start   time.Duration
}

func (tr *transition) step(n *Node, now time.Duration) bool {
	if !tr.started {
		tr.started = true
		tr.start = now
		from, _ := n.Get(tr.key)
		easing := tr.opts.Easing
		if easing == nil {
			easing = ease.Linear
		}
		tr.tween = gween.New(float32(from), float32(tr.target), float32(tr.opts.Duration.Seconds()), easing)
	}
	v, done := tr.tween.Set(float32((now - tr.start).Seconds()))
	if done || tr.opts.Duration <= 0 {
		n.Set(tr.key, tr.target)
		return true
	}
	n.Set(tr.key, float64(v))
	return false
}

// --- Node API ---

// Animate queues an animation of the named numeric attributes towards the
// given values. Queued animations play one after another, oldest first.
// Unknown keys are dropped with a warning.
func (n *Node) Animate(to map[string]float64, opts AnimateOptions) {
	if !n.writable("Animate") {
		return
	}
	valid := make(map[string]float64, len(to))
	for k, v := range to {
		if _, ok := n.Get(k); !ok {
			warnf("Animate %q: unknown attribute %q", n.Name, k)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			warnf("Animate %q: rejected non-finite target for %q", n.Name, k)
			continue
		}
		valid[k] = v
	}
	n.animations = append(n.animations, newAnimation(valid, opts))
	n.wake()
}

// TransitionTo moves a single attribute to value over opts.Duration. A
// transition already running on key is dropped and the new one starts fresh.
func (n *Node) TransitionTo(key string, value float64, opts TransitionOptions) {
	if !n.writable("TransitionTo "+key, value) {
		return
	}
	if _, ok := n.Get(key); !ok {
		warnf("TransitionTo %q: unknown attribute %q", n.Name, key)
		return
	}
	n.transitions = slices.DeleteFunc(n.transitions, func(tr *transition) bool {
		return tr.key == key
	})
	n.transitions = append(n.transitions, &transition{key: key, target: value, opts: opts})
	n.wake()
}

// StopAllAnimation drops every queued animation without running OnFinish
// and leaves attributes where they are. Transitions keep running.
func (n *Node) StopAllAnimation() {
	n.animations = nil
	n.sleepIfIdle()
}

// Animating reports whether the node has queued animations or transitions.
func (n *Node) Animating() bool {
	return len(n.animations) > 0 || len(n.transitions) > 0
}

// wake registers the node with its renderer's scheduler.
func (n *Node) wake() {
	if n.renderer != nil {
		n.renderer.scheduler.schedule(n)
	}
}

func (n *Node) sleepIfIdle() {
	if !n.Animating() && !n.mountPending && n.renderer != nil {
		n.renderer.scheduler.unschedule(n)
	}
}

// onFrame advances the node's frame work for the tick at now. Calling it
// again with the same timestamp does nothing.
func (n *Node) onFrame(now time.Duration) {
	if n.hasFrame && n.lastFrame == now {
		return
	}
	n.hasFrame = true
	n.lastFrame = now

	if n.mountPending {
		n.mountPending = false
		if n.OnMount != nil {
			n.OnMount(n)
		}
	}
	if len(n.animations) > 0 {
		a := n.animations[0]
		if a.step(n, now) {
			// OnFinish may queue more animations, so pop before calling it.
			if len(n.animations) > 0 && n.animations[0] == a {
				n.animations = n.animations[1:]
			}
			if a.opts.OnFinish != nil {
				a.opts.OnFinish(n)
			}
		}
	}
	if len(n.transitions) > 0 {
		n.transitions = slices.DeleteFunc(n.transitions, func(tr *transition) bool {
			return tr.step(n, now)
		})
	}
	n.sleepIfIdle()
}
