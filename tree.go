package burrowdb

import "strings"

// treeFind descends the agent graph by lexicographic key comparison,
// fault-loading each node on demand. A nil root means an empty subtree.
func treeFind(root *nodeAgent, s *storage, key string) (string, bool, error) {
	if root == nil {
		return "", false, nil
	}

	node, err := root.get(s)
	if err != nil {
		return "", false, err
	}

	switch strings.Compare(key, node.Key) {
	case 0:
		val, err := node.Value.get(s)
		if err != nil {
			return "", false, err
		}
		return val, true, nil
	case -1:
		return treeFind(node.Left, s, key)
	default:
		return treeFind(node.Right, s, key)
	}
}

// treeInsert returns a new root whose path from root to the affected
// key is freshly allocated and whose untouched subtrees are shared with
// root. The second return value is the size delta to propagate: 1 for a
// newly inserted key, 0 for a value replacement on an existing key.
func treeInsert(root *nodeAgent, s *storage, pool *nodePool, key, value string) (*nodeAgent, uint64, error) {
	if root == nil {
		n := pool.getNode()
		n.Key = key
		n.Size = 1
		n.Value = newValueAgentFromValue(value)
		return newNodeAgentFromNode(n), 1, nil
	}

	cur, err := root.get(s)
	if err != nil {
		return nil, 0, err
	}

	clone := pool.getNode()
	*clone = *cur

	var delta uint64
	switch strings.Compare(key, cur.Key) {
	case -1:
		var newLeft *nodeAgent
		newLeft, delta, err = treeInsert(cur.Left, s, pool, key, value)
		if err != nil {
			pool.putNode(clone)
			return nil, 0, err
		}
		clone.Left = newLeft
		clone.Size += delta
	case 1:
		var newRight *nodeAgent
		newRight, delta, err = treeInsert(cur.Right, s, pool, key, value)
		if err != nil {
			pool.putNode(clone)
			return nil, 0, err
		}
		clone.Right = newRight
		clone.Size += delta
	default:
		clone.Value = newValueAgentFromValue(value)
	}

	return newNodeAgentFromNode(clone), delta, nil
}

// treeDelete returns a new root with key removed, or root itself
// (untouched) if key is absent. Hibbard deletion is used for the
// two-children case: the target is replaced by the in-order successor,
// taken from the minimum of its right subtree.
func treeDelete(root *nodeAgent, s *storage, pool *nodePool, key string) (*nodeAgent, error) {
	newRoot, _, err := treeDeleteRec(root, s, pool, key)
	return newRoot, err
}

func treeDeleteRec(root *nodeAgent, s *storage, pool *nodePool, key string) (*nodeAgent, bool, error) {
	if root == nil {
		return nil, false, nil
	}

	cur, err := root.get(s)
	if err != nil {
		return nil, false, err
	}

	switch strings.Compare(key, cur.Key) {
	case -1:
		newLeft, found, err := treeDeleteRec(cur.Left, s, pool, key)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return root, false, nil
		}

		clone := pool.getNode()
		*clone = *cur
		clone.Left = newLeft
		clone.Size = cur.Size - 1
		return newNodeAgentFromNode(clone), true, nil

	case 1:
		newRight, found, err := treeDeleteRec(cur.Right, s, pool, key)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return root, false, nil
		}

		clone := pool.getNode()
		*clone = *cur
		clone.Right = newRight
		clone.Size = cur.Size - 1
		return newNodeAgentFromNode(clone), true, nil

	default:
		switch {
		case cur.Left == nil && cur.Right == nil:
			return nil, true, nil
		case cur.Left == nil:
			return cur.Right, true, nil
		case cur.Right == nil:
			return cur.Left, true, nil
		default:
			minNode, newRight, err := treeDeleteMin(cur.Right, s, pool)
			if err != nil {
				return nil, false, err
			}

			clone := pool.getNode()
			clone.Key = minNode.Key
			clone.Value = minNode.Value
			clone.Left = cur.Left
			clone.Right = newRight
			clone.Size = cur.Size - 1
			return newNodeAgentFromNode(clone), true, nil
		}
	}
}

// treeDeleteMin descends the left spine of root, returning the minimum
// node found and a new subtree root with that minimum removed. Every
// ancestor it rewrites on the way down has its size decremented by one.
func treeDeleteMin(root *nodeAgent, s *storage, pool *nodePool) (*inMemoryNode, *nodeAgent, error) {
	cur, err := root.get(s)
	if err != nil {
		return nil, nil, err
	}

	if cur.Left == nil {
		return cur, cur.Right, nil
	}

	minNode, newLeft, err := treeDeleteMin(cur.Left, s, pool)
	if err != nil {
		return nil, nil, err
	}

	clone := pool.getNode()
	*clone = *cur
	clone.Left = newLeft
	clone.Size = cur.Size - 1

	return minNode, newNodeAgentFromNode(clone), nil
}

// treeCommit performs a depth-first post-order store of root, returning
// its address, or 0 if the tree is empty. 0 is a safe empty sentinel
// because the superblock occupies every offset below SuperblockSize.
func treeCommit(root *nodeAgent, s *storage, pool *nodePool) (uint64, error) {
	if root == nil {
		return 0, nil
	}
	return root.store(s, pool)
}
