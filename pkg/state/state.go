package state

import (
	"context"
)

// PlayerState is the latest saved form of a player, waiting to be persisted.
type PlayerState struct {
	PlayerID  string
	Snapshot  string
	Timestamp int64
}

// StateManager provides shared access to the latest player states.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns a copy of the current player states.
	Get(ctx context.Context) ([]PlayerState, error)
	// Set replaces the state of one player.
	Set(ctx context.Context, playerState *PlayerState) error
	// Delete forgets a player.
	Delete(ctx context.Context, playerID string) error
}
