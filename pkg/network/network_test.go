package network_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cbodonnell/tether/mocks/github.com/cbodonnell/tether/pkg/auth/providers"
	mockrepositories "github.com/cbodonnell/tether/mocks/github.com/cbodonnell/tether/pkg/repositories"
	authproviders "github.com/cbodonnell/tether/pkg/auth/providers"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/messages"
	"github.com/cbodonnell/tether/pkg/network"
	"github.com/cbodonnell/tether/pkg/queue"
	"github.com/cbodonnell/tether/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type peer struct {
	client  *network.Client
	queue   *queue.InMemoryQueue
	doc     *document.Doc
	players *document.Array
}

func connect(t *testing.T, ctx context.Context, url string) *peer {
	t.Helper()
	q := queue.NewInMemoryQueue(64)
	c := network.NewClient(network.NewClientOptions{ServerURL: url, MessageQueue: q})
	require.NoError(t, c.Connect(ctx))
	go c.HandleMessages(ctx)
	t.Cleanup(func() { c.Close() })
	return &peer{client: c, queue: q}
}

func (p *peer) join(t *testing.T, ctx context.Context, token, playerID string) *messages.ServerJoinAccept {
	t.Helper()
	accept, err := p.client.Join(ctx, "lobby", token, playerID)
	require.NoError(t, err)
	p.doc = document.NewDoc(playerID)
	p.players = p.doc.GetArray(constants.PlayersMapName)
	require.NoError(t, p.doc.ApplyUpdateBytes(accept.State))
	p.doc.OnUpdate(func(u *document.Update) {
		assert.NoError(t, p.client.SendUpdate(ctx, u))
	})
	return accept
}

func (p *peer) addPlayer(playerID string) {
	m := document.NewMap()
	m.Set(constants.PlayerIDKey, playerID)
	p.players.Push(m)
}

// drain applies queued updates and returns the other messages.
func (p *peer) drain(t *testing.T) []*messages.Message {
	items, err := p.queue.ReadAllMessages()
	require.NoError(t, err)
	var rest []*messages.Message
	for _, item := range items {
		msg := item.(*messages.Message)
		if msg.Type == messages.MessageTypeServerUpdate {
			require.NoError(t, p.doc.ApplyUpdateBytes(msg.Payload))
			continue
		}
		rest = append(rest, msg)
	}
	return rest
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestRelay_roundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := mockrepositories.NewRepository(t)
	repo.EXPECT().LoadPlayerSnapshot(mock.Anything, "alice").Return(&repositories.PlayerSnapshot{
		PlayerID: "alice",
		Snapshot: `{"avatar":{},"apps":[]}`,
	}, nil)
	repo.EXPECT().LoadPlayerSnapshot(mock.Anything, "bob").Return(nil, &repositories.ErrNotFound{})

	relay := network.NewRelayServer(network.NewRelayServerOptions{
		AuthProvider: authproviders.NewStaticAuthProvider(&authproviders.NewStaticAuthProviderOptions{
			Tokens: map[string]string{"ta": "alice", "tb": "bob"},
		}),
		Repository: repo,
	})
	server := httptest.NewServer(relay.Handler(ctx))
	defer server.Close()

	a := connect(t, ctx, wsURL(server))
	acceptA := a.join(t, ctx, "ta", "pa")
	assert.Equal(t, "pa", acceptA.PlayerID)
	assert.Equal(t, `{"avatar":{},"apps":[]}`, acceptA.Snapshot)
	a.addPlayer("pa")
	require.Eventually(t, func() bool {
		return len(relay.PlayerIDs("lobby")) == 1
	}, waitFor, 10*time.Millisecond)

	b := connect(t, ctx, wsURL(server))
	acceptB := b.join(t, ctx, "tb", "")
	assert.Equal(t, "bob", acceptB.PlayerID, "the uid is used without a player id")
	assert.Empty(t, acceptB.Snapshot)
	require.Equal(t, 1, b.players.Len(), "late joiners get the room state")

	b.addPlayer("bob")
	require.Eventually(t, func() bool { return a.queue.Size() > 0 }, waitFor, 10*time.Millisecond)
	assert.Empty(t, a.drain(t))
	assert.Equal(t, 2, a.players.Len())
	assert.ElementsMatch(t, []string{"pa", "bob"}, relay.PlayerIDs("lobby"))

	require.NoError(t, b.client.SendVoice(ctx, []byte{1, 2}))
	require.Eventually(t, func() bool { return a.queue.Size() > 0 }, waitFor, 10*time.Millisecond)
	voice := a.drain(t)
	require.Len(t, voice, 1)
	assert.Equal(t, messages.MessageTypeServerVoice, voice[0].Type)
	assert.Equal(t, "bob", voice[0].PlayerID)
	assert.Equal(t, []byte{1, 2}, voice[0].Payload)

	require.NoError(t, b.client.Close())
	var rest []*messages.Message
	require.Eventually(t, func() bool {
		rest = append(rest, a.drain(t)...)
		return len(rest) > 0
	}, waitFor, 10*time.Millisecond)
	require.Len(t, rest, 1)
	assert.Equal(t, messages.MessageTypeServerPlayerLeave, rest[0].Type)
	leave := &messages.ServerPlayerLeave{}
	require.NoError(t, rest[0].DecodePayload(leave))
	assert.Equal(t, "bob", leave.PlayerID)

	assert.Equal(t, []string{"pa"}, relay.PlayerIDs("lobby"))
	assert.Equal(t, 1, a.players.Len(), "the relay removes the player map of a leaving peer")
}

func TestRelay_rejoinAfterRoomClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := network.NewRelayServer(network.NewRelayServerOptions{
		AuthProvider: authproviders.NewStaticAuthProvider(&authproviders.NewStaticAuthProviderOptions{
			Tokens: map[string]string{"ta": "alice", "tb": "bob"},
		}),
	})
	server := httptest.NewServer(relay.Handler(ctx))
	defer server.Close()

	a := connect(t, ctx, wsURL(server))
	a.join(t, ctx, "ta", "pa")
	a.addPlayer("pa")
	require.Eventually(t, func() bool {
		return len(relay.PlayerIDs("lobby")) == 1
	}, waitFor, 10*time.Millisecond)

	require.NoError(t, a.client.Close())
	require.Eventually(t, func() bool {
		return relay.PlayerIDs("lobby") == nil
	}, waitFor, 10*time.Millisecond, "the last leave closes the room")

	b := connect(t, ctx, wsURL(server))
	b.join(t, ctx, "tb", "pb")
	assert.Equal(t, 0, b.players.Len(), "a closed room is not reused")
	b.addPlayer("pb")
	require.Eventually(t, func() bool {
		return len(relay.PlayerIDs("lobby")) == 1
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, []string{"pb"}, relay.PlayerIDs("lobby"))
}

func TestRelay_joinRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := providers.NewAuthProvider(t)
	auth.EXPECT().VerifyToken(mock.Anything, "bad").Return(nil, errors.New("expired"))

	relay := network.NewRelayServer(network.NewRelayServerOptions{AuthProvider: auth})
	server := httptest.NewServer(relay.Handler(ctx))
	defer server.Close()

	p := connect(t, ctx, wsURL(server))
	_, err := p.client.Join(ctx, "lobby", "bad", "p")
	var rejected *network.JoinRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "expired")

	_, err = p.client.Join(ctx, "", "bad", "p")
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "missing room", rejected.Reason)

	// updates before joining are dropped
	require.NoError(t, p.client.SendUpdate(ctx, document.NewDoc("p").EncodeState()))
	assert.Nil(t, relay.PlayerIDs("lobby"))
}

func TestClient_notConnected(t *testing.T) {
	c := network.NewClient(network.NewClientOptions{ServerURL: "ws://localhost:1/ws"})
	assert.ErrorIs(t, c.SendVoice(context.Background(), nil), network.ErrNotConnected)
	assert.ErrorIs(t, c.HandleMessages(context.Background()), network.ErrNotConnected)
	assert.NoError(t, c.Close())
}
