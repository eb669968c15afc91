package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/repositories"
	"github.com/cbodonnell/tether/pkg/state"
)

// drainTimeout bounds how long queued saves may take once the worker stops.
const drainTimeout = 5 * time.Second

type SaveSnapshotWorker struct {
	repository   repositories.Repository
	saveChan     <-chan SaveSnapshotRequest
	stateManager state.StateManager
	interval     time.Duration
	saved        map[string]int64
}

type NewSaveSnapshotWorkerOptions struct {
	Repository repositories.Repository
	// SaveChan carries saves that must be persisted right away.
	SaveChan     <-chan SaveSnapshotRequest
	StateManager state.StateManager
	// Interval is how often the states in StateManager are persisted.
	Interval time.Duration
}

type SaveSnapshotRequest struct {
	Timestamp int64
	PlayerID  string
	Snapshot  string
}

// NewSaveSnapshotWorker creates a new SaveSnapshotWorker.
// The worker processes save requests from the game loop and
// periodically saves the latest player states to the repository.
func NewSaveSnapshotWorker(opts NewSaveSnapshotWorkerOptions) *SaveSnapshotWorker {
	return &SaveSnapshotWorker{
		repository:   opts.Repository,
		saveChan:     opts.SaveChan,
		stateManager: opts.StateManager,
		interval:     opts.Interval,
		saved:        make(map[string]int64),
	}
}

func (w *SaveSnapshotWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case saveRequest := <-w.saveChan:
			w.saveSnapshot(ctx, saveRequest)
		case <-ticker.C:
			w.saveStates(ctx)
		}
	}
}

// drain persists the requests already queued when the worker stops.
func (w *SaveSnapshotWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case saveRequest := <-w.saveChan:
			w.saveSnapshot(ctx, saveRequest)
		default:
			return
		}
	}
}

func (w *SaveSnapshotWorker) saveSnapshot(ctx context.Context, saveRequest SaveSnapshotRequest) {
	if saveRequest.Timestamp < w.saved[saveRequest.PlayerID] {
		log.Debug("Skipping stale save of %s at %d", saveRequest.PlayerID, saveRequest.Timestamp)
		return
	}
	if err := w.repository.SavePlayerSnapshot(ctx, saveRequest.PlayerID, saveRequest.Snapshot, saveRequest.Timestamp); err != nil {
		log.Error("Failed to save player snapshot: %v", err)
		return
	}
	w.saved[saveRequest.PlayerID] = saveRequest.Timestamp
}

// saveStates persists every state that changed since it was last saved.
func (w *SaveSnapshotWorker) saveStates(ctx context.Context) {
	if w.stateManager == nil {
		return
	}
	players, err := w.stateManager.Get(ctx)
	if err != nil {
		log.Error("Failed to get current player states: %v", err)
		return
	}
	for _, p := range players {
		if saved, ok := w.saved[p.PlayerID]; ok && p.Timestamp <= saved {
			continue
		}
		w.saveSnapshot(ctx, SaveSnapshotRequest{
			Timestamp: p.Timestamp,
			PlayerID:  p.PlayerID,
			Snapshot:  p.Snapshot,
		})
	}
}
