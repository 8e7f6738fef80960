package burrowdb

import "sync"

// nodeAgent and valueAgent are lazy, bidirectional bridges between an
// in-memory object and its on-disk bytes. An agent is "loaded" when its
// payload field is non-nil, "addressed" when its addr pointer is
// non-nil. Both can hold at once (persisted and cached); neither can be
// unset at once -- every public constructor populates exactly one of
// them, and loading or storing only ever adds the other.
//
// Once addr is set it is never reassigned: store() is a no-op on an
// already-addressed agent, and the bytes at that offset are never
// rewritten.
type nodeAgent struct {
	mu      sync.Mutex
	node    *inMemoryNode
	addr    *uint64
	addrSet bool
}

type valueAgent struct {
	mu      sync.Mutex
	value   *string
	addr    *uint64
	addrSet bool
}

func newNodeAgentFromNode(n *inMemoryNode) *nodeAgent {
	return &nodeAgent{node: n}
}

func newNodeAgentFromAddr(addr uint64) *nodeAgent {
	return &nodeAgent{addr: &addr, addrSet: true}
}

func newValueAgentFromValue(v string) *valueAgent {
	return &valueAgent{value: &v}
}

func newValueAgentFromAddr(addr uint64) *valueAgent {
	return &valueAgent{addr: &addr, addrSet: true}
}

// addrOf reports the agent's on-disk offset, if it has one.
func (a *nodeAgent) addrOf() (uint64, bool) {
	if !a.addrSet {
		return 0, false
	}
	return *a.addr, true
}

func (a *valueAgent) addrOf() (uint64, bool) {
	if !a.addrSet {
		return 0, false
	}
	return *a.addr, true
}

// get returns the in-memory node, fault-loading it from storage on
// first access and caching the result.
func (a *nodeAgent) get(s *storage) (*inMemoryNode, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.node != nil {
		return a.node, nil
	}
	if !a.addrSet {
		return nil, invariantErr("node agent get", ErrInvariantAgentUnaddressed)
	}

	addr := *a.addr
	lengthPrefix, err := s.read(addr, 4)
	if err != nil {
		return nil, err
	}

	n, err := decodeNodeRecordAt(s, addr, lengthPrefix)
	if err != nil {
		return nil, err
	}

	a.node = n
	return n, nil
}

func (a *valueAgent) get(s *storage) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.value != nil {
		return *a.value, nil
	}
	if !a.addrSet {
		return "", invariantErr("value agent get", ErrInvariantAgentUnaddressed)
	}

	rec, err := readRecordAt[valueRecord](s, *a.addr)
	if err != nil {
		return "", err
	}

	a.value = &rec.Value
	return rec.Value, nil
}

// store persists the agent's payload if it has not already been
// persisted. It is a no-op on an agent that is already addressed.
func (a *nodeAgent) store(s *storage, pool *nodePool) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.addrSet {
		return *a.addr, nil
	}
	if a.node == nil {
		return 0, invariantErr("node agent store", ErrInvariantAgentUnaddressed)
	}

	node := a.node

	valueAddr, err := node.Value.store(s)
	if err != nil {
		return 0, err
	}

	var leftAddr, rightAddr *uint64
	if node.Left != nil {
		la, err := node.Left.store(s, pool)
		if err != nil {
			return 0, err
		}
		leftAddr = &la
	}
	if node.Right != nil {
		ra, err := node.Right.store(s, pool)
		if err != nil {
			return 0, err
		}
		rightAddr = &ra
	}

	rec := nodeRecord{
		Key:       node.Key,
		ValueAddr: valueAddr,
		LeftAddr:  leftAddr,
		RightAddr: rightAddr,
		Size:      node.Size,
	}

	addr, err := writeRecord(s, rec)
	if err != nil {
		return 0, err
	}

	a.addr = &addr
	a.addrSet = true

	return addr, nil
}

func (a *valueAgent) store(s *storage) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.addrSet {
		return *a.addr, nil
	}
	if a.value == nil {
		return 0, invariantErr("value agent store", ErrInvariantAgentUnaddressed)
	}

	addr, err := writeRecord(s, valueRecord{Value: *a.value})
	if err != nil {
		return 0, err
	}

	a.addr = &addr
	a.addrSet = true

	return addr, nil
}
