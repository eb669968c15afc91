package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	mocks "github.com/cbodonnell/tether/mocks/github.com/cbodonnell/tether/pkg/repositories"
	"github.com/cbodonnell/tether/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSaveSnapshotWorker_saveSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewRepository(t)
	w := NewSaveSnapshotWorker(NewSaveSnapshotWorkerOptions{Repository: repo})

	repo.EXPECT().SavePlayerSnapshot(ctx, "alice", "{}", int64(10)).Return(nil).Once()
	w.saveSnapshot(ctx, SaveSnapshotRequest{PlayerID: "alice", Snapshot: "{}", Timestamp: 10})

	// older than what was saved
	w.saveSnapshot(ctx, SaveSnapshotRequest{PlayerID: "alice", Snapshot: "old", Timestamp: 5})

	repo.EXPECT().SavePlayerSnapshot(ctx, "alice", "new", int64(20)).Return(errors.New("disk full")).Once()
	w.saveSnapshot(ctx, SaveSnapshotRequest{PlayerID: "alice", Snapshot: "new", Timestamp: 20})
	assert.Equal(t, int64(10), w.saved["alice"], "failed saves are retried")
}

func TestSaveSnapshotWorker_saveStates(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewRepository(t)
	states := state.NewInMemoryStateManager()
	w := NewSaveSnapshotWorker(NewSaveSnapshotWorkerOptions{Repository: repo, StateManager: states})

	require.NoError(t, states.Set(ctx, &state.PlayerState{PlayerID: "alice", Snapshot: "a1", Timestamp: 1}))
	require.NoError(t, states.Set(ctx, &state.PlayerState{PlayerID: "bob", Snapshot: "b1", Timestamp: 1}))
	repo.EXPECT().SavePlayerSnapshot(ctx, "alice", "a1", int64(1)).Return(nil).Once()
	repo.EXPECT().SavePlayerSnapshot(ctx, "bob", "b1", int64(1)).Return(nil).Once()
	w.saveStates(ctx)

	// only changed states are saved again
	require.NoError(t, states.Set(ctx, &state.PlayerState{PlayerID: "bob", Snapshot: "b2", Timestamp: 2}))
	repo.EXPECT().SavePlayerSnapshot(ctx, "bob", "b2", int64(2)).Return(nil).Once()
	w.saveStates(ctx)
	w.saveStates(ctx)
}

func TestSaveSnapshotWorker_Start(t *testing.T) {
	repo := mocks.NewRepository(t)
	saveChan := make(chan SaveSnapshotRequest)
	w := NewSaveSnapshotWorker(NewSaveSnapshotWorkerOptions{
		Repository: repo,
		SaveChan:   saveChan,
		Interval:   time.Hour,
	})

	saved := make(chan struct{})
	repo.EXPECT().SavePlayerSnapshot(mock.Anything, "alice", "{}", int64(3)).
		Run(func(context.Context, string, string, int64) { close(saved) }).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	saveChan <- SaveSnapshotRequest{PlayerID: "alice", Snapshot: "{}", Timestamp: 3}
	select {
	case <-saved:
	case <-time.After(time.Second):
		t.Fatal("save request was not persisted")
	}
	cancel()
	<-done
}

func TestSaveSnapshotWorker_drainsOnStop(t *testing.T) {
	repo := mocks.NewRepository(t)
	saveChan := make(chan SaveSnapshotRequest, 2)
	w := NewSaveSnapshotWorker(NewSaveSnapshotWorkerOptions{
		Repository: repo,
		SaveChan:   saveChan,
		Interval:   time.Hour,
	})
	repo.EXPECT().SavePlayerSnapshot(mock.Anything, "alice", `{"n":1}`, int64(1)).Return(nil).Once()
	repo.EXPECT().SavePlayerSnapshot(mock.Anything, "bob", `{"n":2}`, int64(2)).Return(nil).Once()

	saveChan <- SaveSnapshotRequest{PlayerID: "alice", Snapshot: `{"n":1}`, Timestamp: 1}
	saveChan <- SaveSnapshotRequest{PlayerID: "bob", Snapshot: `{"n":2}`, Timestamp: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)
	assert.Empty(t, saveChan)
}
