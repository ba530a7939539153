package thicket

// chunk is a batch of children waiting to be mounted under parent, at most
// size per frame.
type chunk struct {
	parent  *Node
	pending []*Node
	size    int
}

// AddChunk queues nodes for progressive mounting under n: each tick mounts
// at most size of them, in order. size <= 0 uses Config.ChunkSize.
func (n *Node) AddChunk(nodes []*Node, size int) {
	if !n.writable("AddChunk") {
		return
	}
	if n.Kind != KindGroup {
		warnf("AddChunk on %s node %q", n.Kind, n.Name)
		return
	}
	if len(nodes) == 0 {
		return
	}
	c := &chunk{parent: n, pending: append([]*Node(nil), nodes...), size: size}
	if n.renderer != nil {
		n.renderer.chunks = append(n.renderer.chunks, c)
	} else {
		n.chunks = append(n.chunks, c)
	}
}

// PendingChunkNodes returns how many queued nodes are not mounted yet.
func (n *Node) PendingChunkNodes() int {
	count := 0
	for _, c := range n.chunks {
		count += len(c.pending)
	}
	if r := n.renderer; r != nil {
		for _, c := range r.chunks {
			if c.parent == n {
				count += len(c.pending)
			}
		}
	}
	return count
}

// mountChunks mounts the next slice of every pending chunk and drops
// finished chunks and chunks whose parent was destroyed.
func (r *Renderer) mountChunks() {
	if len(r.chunks) == 0 {
		return
	}
	// Mounting can queue new chunks, so work on a detached list.
	pending := r.chunks
	r.chunks = nil
	var kept []*chunk
	for _, c := range pending {
		if c.parent.destroyed || c.parent.renderer != r {
			continue
		}
		size := c.size
		if size <= 0 {
			size = r.cfg.ChunkSize
		}
		if size <= 0 || size > len(c.pending) {
			size = len(c.pending)
		}
		for _, child := range c.pending[:size] {
			c.parent.Add(child)
		}
		clear(c.pending[:size])
		c.pending = c.pending[size:]
		if len(c.pending) > 0 {
			kept = append(kept, c)
		}
	}
	r.chunks = append(kept, r.chunks...)
}
