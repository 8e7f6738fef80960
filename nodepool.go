package burrowdb

import "sync"

// nodePool recycles inMemoryNode allocations along the path-copying hot
// path, grounded on the teacher's own node-recycling pool. Unlike the
// teacher's lock-free design -- where a node copy that loses a
// compare-and-swap race is immediately and provably unreachable, so
// it's safe to recycle on the spot -- this store has a single writer
// per commit, so the only point a freshly cloned node is ever provably
// unreachable is when an error aborts the clone before it gets linked
// into the new tree. putNode is called only from that path; a node
// that has been linked into a tree (returned successfully from insert
// or delete) is never recycled, since it may still be read after this
// call returns.
type nodePool struct {
	pool sync.Pool
}

// newNodePool builds a pool pre-warmed with prewarm freshly allocated
// nodes, so the first prewarm path-copied inserts in a session don't
// all pay allocator cost up front.
func newNodePool(prewarm int) *nodePool {
	p := &nodePool{
		pool: sync.Pool{
			New: func() any { return &inMemoryNode{} },
		},
	}
	for i := 0; i < prewarm; i++ {
		p.pool.Put(&inMemoryNode{})
	}
	return p
}

// getNode returns a recycled or freshly allocated node, always with
// every field reset.
func (p *nodePool) getNode() *inMemoryNode {
	n := p.pool.Get().(*inMemoryNode)
	*n = inMemoryNode{}
	return n
}

// putNode returns n to the pool. Callers must only do this when n is
// provably unreachable from any live tree view.
func (p *nodePool) putNode(n *inMemoryNode) {
	if n == nil {
		return
	}
	*n = inMemoryNode{}
	p.pool.Put(n)
}
