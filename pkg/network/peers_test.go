package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerManager(t *testing.T) {
	pm := NewPeerManager()
	a, err := pm.Connect(nil)
	require.NoError(t, err)
	b, err := pm.Connect(nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotZero(t, a.ID)
	assert.Equal(t, 2, pm.Count())
	assert.False(t, a.Joined())

	require.NoError(t, pm.Join(a.ID, "pa", "alice", "lobby"))
	assert.True(t, a.Joined())
	assert.Error(t, pm.Join(a.ID, "pa", "alice", "other"), "a peer joins one room")
	assert.Error(t, pm.Join(b.ID, "pa", "bob", "lobby"), "player ids are unique per room")
	require.NoError(t, pm.Join(b.ID, "pa", "bob", "elsewhere"))

	assert.Len(t, pm.InRoom("lobby"), 1)
	assert.Empty(t, pm.InRoom("nowhere"))

	got, err := pm.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	assert.Same(t, a, pm.Disconnect(a.ID))
	assert.Nil(t, pm.Disconnect(a.ID))
	_, err = pm.Get(a.ID)
	assert.Error(t, err)
	assert.Error(t, pm.Join(a.ID, "pa", "alice", "lobby"))
}
