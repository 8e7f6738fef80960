package burrowdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueAgentStoreThenGetFromFreshAgent(t *testing.T) {
	s := newTestStorage(t)

	va := newValueAgentFromValue("hello")
	addr, err := va.store(s)
	require.NoError(t, err)

	reloaded := newValueAgentFromAddr(addr)
	got, err := reloaded.get(s)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestValueAgentStoreIsNoOpOnceAddressed(t *testing.T) {
	s := newTestStorage(t)

	va := newValueAgentFromValue("hello")
	addr1, err := va.store(s)
	require.NoError(t, err)

	addr2, err := va.store(s)
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
}

func TestNodeAgentGetOnUnaddressedUnloadedAgentIsInvariantError(t *testing.T) {
	a := &nodeAgent{}
	_, err := a.get(nil)

	require.Error(t, err)
	kind, ok := ErrorKind(err)
	require.True(t, ok)
	require.Equal(t, KindInvariant, kind)
}

func TestNodeAgentStoreRecursivelyStoresChildren(t *testing.T) {
	s := newTestStorage(t)
	pool := newNodePool(0)

	leaf := &inMemoryNode{Key: "a", Size: 1, Value: newValueAgentFromValue("1")}
	root := &inMemoryNode{
		Key:   "b",
		Size:  2,
		Value: newValueAgentFromValue("2"),
		Left:  newNodeAgentFromNode(leaf),
	}

	rootAgent := newNodeAgentFromNode(root)
	addr, err := rootAgent.store(s, pool)
	require.NoError(t, err)

	reloaded := newNodeAgentFromAddr(addr)
	n, err := reloaded.get(s)
	require.NoError(t, err)
	require.Equal(t, "b", n.Key)
	require.NotNil(t, n.Left)

	leftNode, err := n.Left.get(s)
	require.NoError(t, err)
	require.Equal(t, "a", leftNode.Key)

	val, err := leftNode.Value.get(s)
	require.NoError(t, err)
	require.Equal(t, "1", val)
}
