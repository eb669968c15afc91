package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStateManager(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryStateManager()

	tests := []struct {
		name    string
		state   *PlayerState
		wantErr bool
	}{
		{name: "nil", state: nil, wantErr: true},
		{name: "no player id", state: &PlayerState{Snapshot: "{}"}, wantErr: true},
		{name: "bob", state: &PlayerState{PlayerID: "bob", Snapshot: "{}", Timestamp: 1}},
		{name: "alice", state: &PlayerState{PlayerID: "alice", Snapshot: "{}", Timestamp: 2}},
		{name: "alice again", state: &PlayerState{PlayerID: "alice", Snapshot: `{"apps":[]}`, Timestamp: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Set(ctx, tt.state)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PlayerState{
		{PlayerID: "alice", Snapshot: `{"apps":[]}`, Timestamp: 3},
		{PlayerID: "bob", Snapshot: "{}", Timestamp: 1},
	}, got)

	got[0].Snapshot = "changed"
	again, _ := m.Get(ctx)
	assert.Equal(t, `{"apps":[]}`, again[0].Snapshot, "Get returns a copy")

	require.NoError(t, m.Delete(ctx, "alice"))
	got, _ = m.Get(ctx)
	assert.Len(t, got, 1)
}
