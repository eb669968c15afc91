package game

import (
	"context"
	"testing"
	"time"

	mocks "github.com/cbodonnell/tether/mocks/github.com/cbodonnell/tether/pkg/queue"
	"github.com/cbodonnell/tether/pkg/config"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/messages"
	"github.com/cbodonnell/tether/pkg/player"
	"github.com/cbodonnell/tether/pkg/state"
	"github.com/cbodonnell/tether/pkg/workers"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	updates []*document.Update
}

func (s *recordingSender) SendUpdate(_ context.Context, u *document.Update) error {
	s.updates = append(s.updates, u)
	return nil
}

func (s *recordingSender) origins() []string {
	origins := make([]string, 0, len(s.updates))
	for _, u := range s.updates {
		origins = append(origins, u.Origin)
	}
	return origins
}

// joinPeer adds a second local player to a copy of gm's document and
// returns the update announcing it.
func joinPeer(t *testing.T, gm *GameManager, playerID string) *messages.Message {
	t.Helper()
	doc := document.NewDoc(playerID)
	doc.ApplyUpdate(gm.doc.EncodeState())
	var updates []*document.Update
	doc.OnUpdate(func(u *document.Update) { updates = append(updates, u) })
	player.NewLocalPlayer(&player.NewLocalPlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{PlayerID: playerID},
		PlayersArray:     doc.GetArray(constants.PlayersMapName),
	})
	require.Len(t, updates, 1)
	b, err := document.EncodeUpdate(updates[0])
	require.NoError(t, err)
	return &messages.Message{PlayerID: playerID, Type: messages.MessageTypeServerUpdate, Payload: b}
}

// removePlayer deletes the player map at index the way the relay does on
// disconnect and returns the resulting update.
func removePlayer(t *testing.T, gm *GameManager, index int) *messages.Message {
	t.Helper()
	server := document.NewDoc("server")
	server.ApplyUpdate(gm.doc.EncodeState())
	var removal *document.Update
	server.OnUpdate(func(u *document.Update) { removal = u })
	server.GetArray(constants.PlayersMapName).Delete(index, 1)
	require.NotNil(t, removal)
	b, err := document.EncodeUpdate(removal)
	require.NoError(t, err)
	return &messages.Message{Type: messages.MessageTypeServerUpdate, Payload: b}
}

func TestNewGameManager_announcesLocalPlayer(t *testing.T) {
	sender := &recordingSender{}
	gm := NewGameManager(NewGameManagerOptions{PlayerID: "a", Sender: sender})

	require.Len(t, sender.updates, 1)
	assert.Equal(t, "a", sender.updates[0].ClientID)
	assert.Equal(t, []string{"a"}, player.PlayerIDs(gm.players))
	assert.Equal(t, "a", gm.LocalPlayer().PlayerID())
	assert.Empty(t, gm.RemotePlayerIDs())
}

func TestGameManager_processMessages(t *testing.T) {
	mockQueue := mocks.NewQueue(t)
	gm := NewGameManager(NewGameManagerOptions{PlayerID: "a", MessageQueue: mockQueue})
	join := joinPeer(t, gm, "b")

	leave, err := messages.NewJSONMessage(messages.MessageTypeServerPlayerLeave, "b", "", &messages.ServerPlayerLeave{PlayerID: "b"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		items   func() []interface{}
		remotes []string
		check   func(t *testing.T)
	}{
		{
			name:    "no messages",
			items:   func() []interface{} { return nil },
			remotes: []string{},
		},
		{
			name:    "peer joins",
			items:   func() []interface{} { return []interface{}{join} },
			remotes: []string{"b"},
			check: func(t *testing.T) {
				assert.Equal(t, player.KindRemote, gm.RemotePlayer("b").Kind())
				assert.True(t, gm.RemotePlayer("b").IsBound())
			},
		},
		{
			name: "voice reaches the remote analyser",
			items: func() []interface{} {
				return []interface{}{
					&messages.Message{PlayerID: "b", Type: messages.MessageTypeServerVoice, Payload: []byte{0xff, 0x7f}},
					&messages.Message{PlayerID: "nobody", Type: messages.MessageTypeServerVoice, Payload: []byte{0xff, 0x7f}},
				}
			},
			remotes: []string{"b"},
			check: func(t *testing.T) {
				assert.InDelta(t, 1, gm.RemotePlayer("b").Analyser().Level(), 1e-4)
			},
		},
		{
			name:    "unexpected items are skipped",
			items: func() []interface{} {
				return []interface{}{"garbage", &messages.Message{Type: messages.MessageTypeServerPong}}
			},
			remotes: []string{"b"},
		},
		{
			name: "peer leaves",
			items: func() []interface{} {
				return []interface{}{removePlayer(t, gm, 1), leave}
			},
			remotes: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockQueue.EXPECT().ReadAllMessages().Return(tt.items(), nil).Once()
			gm.processMessages()
			gm.reconcileRemotePlayers()
			assert.ElementsMatch(t, tt.remotes, gm.RemotePlayerIDs())
			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func TestGameManager_reconcileDropsRemovedPlayers(t *testing.T) {
	gm := NewGameManager(NewGameManagerOptions{PlayerID: "a"})
	require.NoError(t, gm.doc.ApplyUpdateBytes(joinPeer(t, gm, "b").Payload))
	gm.reconcileRemotePlayers()
	remote := gm.RemotePlayer("b")
	require.NotNil(t, remote)

	require.NoError(t, gm.doc.ApplyUpdateBytes(removePlayer(t, gm, 1).Payload))

	gm.reconcileRemotePlayers()
	assert.Empty(t, gm.RemotePlayerIDs())
	assert.True(t, remote.Destroyed())
}

func TestGameManager_gameTick_pushCadence(t *testing.T) {
	sender := &recordingSender{}
	tuning := config.Default()
	tuning.PushIntervalMs = 50
	gm := NewGameManager(NewGameManagerOptions{PlayerID: "a", Sender: sender, Tuning: &tuning})
	sender.updates = nil

	for _, ms := range []int64{1000, 1016, 1032, 1050, 1066} {
		gm.gameTick(time.UnixMilli(ms))
	}
	assert.Equal(t, []string{constants.PushOrigin, constants.PushOrigin}, sender.origins())

	transform, ok := gm.local.PlayerMap().GetFloats(constants.TransformKey)
	require.True(t, ok)
	assert.Equal(t, 50.0, transform[constants.TransformTimeDiffIndex])
}

func TestGameManager_gameTick_input(t *testing.T) {
	var calls []float64
	gm := NewGameManager(NewGameManagerOptions{
		PlayerID: "a",
		Input: func(p *player.Entity, timestamp, timeDiff float64) {
			calls = append(calls, timeDiff)
			p.Position = p.Position.Add(mgl64.Vec3{1, 0, 0})
		},
	})
	gm.gameTick(time.UnixMilli(1000))
	gm.gameTick(time.UnixMilli(1020))
	assert.Equal(t, []float64{16, 20}, calls)
	assert.InDelta(t, 2, gm.local.Position.X(), 1e-9)
}

func TestGameManager_save(t *testing.T) {
	ctx := context.Background()
	states := state.NewInMemoryStateManager()
	saveChan := make(chan workers.SaveSnapshotRequest, 1)
	gm := NewGameManager(NewGameManagerOptions{
		PlayerID:     "a",
		StateManager: states,
		SaveChan:     saveChan,
		SaveInterval: 100 * time.Millisecond,
	})

	gm.gameTick(time.UnixMilli(1000))
	got, err := states.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].PlayerID)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.JSONEq(t, `{"avatar":{},"apps":[]}`, got[0].Snapshot)

	gm.gameTick(time.UnixMilli(1050))
	got, _ = states.Get(ctx)
	assert.Equal(t, int64(1000), got[0].Timestamp, "saves follow the interval")

	gm.gameTick(time.UnixMilli(1100))
	got, _ = states.Get(ctx)
	assert.Equal(t, int64(1100), got[0].Timestamp)

	gm.Stop()
	select {
	case req := <-saveChan:
		assert.Equal(t, "a", req.PlayerID)
		assert.JSONEq(t, `{"avatar":{},"apps":[]}`, req.Snapshot)
	default:
		t.Fatal("stop did not request a save")
	}
	assert.True(t, gm.local.Destroyed())

	gm.Stop()
	assert.Empty(t, saveChan, "stopping twice saves once")
}

func TestGameManager_Start(t *testing.T) {
	gm := NewGameManager(NewGameManagerOptions{PlayerID: "a"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- gm.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.True(t, gm.local.Destroyed())
}
