package thicket

import "time"

// Scheduler holds the nodes with pending frame work: animations,
// transitions and mount callbacks. It is owned by a Renderer.
type Scheduler struct {
	nodes []*Node
}

// schedule adds n to the frame set. Safe to call while ticking; nodes added
// during a tick run from the next tick on.
func (s *Scheduler) schedule(n *Node) {
	n.scheduled = true
	if !n.inScheduler {
		n.inScheduler = true
		s.nodes = append(s.nodes, n)
	}
}

// unschedule removes n lazily; the slot is compacted on the next tick.
func (s *Scheduler) unschedule(n *Node) {
	n.scheduled = false
}

// Len returns the number of scheduled nodes.
func (s *Scheduler) Len() int {
	count := 0
	for _, n := range s.nodes {
		if n.scheduled {
			count++
		}
	}
	return count
}

// tick runs onFrame for every node scheduled when the tick began, in
// registration order, then drops nodes that went idle.
func (s *Scheduler) tick(now time.Duration) {
	count := len(s.nodes)
	for i := 0; i < count; i++ {
		n := s.nodes[i]
		if n.scheduled && !n.destroyed {
			n.onFrame(now)
		}
	}
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if n.scheduled && !n.destroyed {
			kept = append(kept, n)
		} else {
			n.inScheduler = false
		}
	}
	clear(s.nodes[len(kept):])
	s.nodes = kept
}
