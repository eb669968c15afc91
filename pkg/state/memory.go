package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ StateManager = &InMemoryStateManager{}

type InMemoryStateManager struct {
	lock    sync.RWMutex
	players map[string]PlayerState
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{
		players: make(map[string]PlayerState),
	}
}

// Get returns the player states ordered by player id.
func (m *InMemoryStateManager) Get(ctx context.Context) ([]PlayerState, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	players := make([]PlayerState, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	return players, nil
}

func (m *InMemoryStateManager) Set(ctx context.Context, playerState *PlayerState) error {
	if playerState == nil {
		return fmt.Errorf("player state is nil")
	}
	if playerState.PlayerID == "" {
		return fmt.Errorf("player state has no player id")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	m.players[playerState.PlayerID] = *playerState
	return nil
}

func (m *InMemoryStateManager) Delete(ctx context.Context, playerID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.players, playerID)
	return nil
}
