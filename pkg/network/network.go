package network

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	authproviders "github.com/cbodonnell/tether/pkg/auth/providers"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/messages"
	"github.com/cbodonnell/tether/pkg/repositories"
	"github.com/gorilla/websocket"
)

const (
	// ServerClientID is the document client id of every room replica
	ServerClientID = "server"
	// ServerOrigin tags the transactions the relay makes on a room
	ServerOrigin = "server"
)

var _ ConnectionHandler = &RelayServer{}

// RelayServer fans document updates out to the peers of a room. Each room
// keeps a replica of the document so late joiners receive the full state
// and so the player map of a disconnected peer can be removed.
type RelayServer struct {
	authProvider authproviders.AuthProvider
	peers        *PeerManager
	repository   repositories.Repository
	wsServer     *WSServer

	rooms     map[string]*Room
	roomsLock sync.Mutex
}

type NewRelayServerOptions struct {
	AuthProvider authproviders.AuthProvider
	PeerManager  *PeerManager
	// Repository is optional. When set the saved snapshot of a joining
	// user is sent with the join accept.
	Repository repositories.Repository
	Port       int
	TLS        *TLSConfig
	Path       string
}

func NewRelayServer(opts NewRelayServerOptions) *RelayServer {
	peers := opts.PeerManager
	if peers == nil {
		peers = NewPeerManager()
	}
	return &RelayServer{
		authProvider: opts.AuthProvider,
		peers:        peers,
		repository:   opts.Repository,
		wsServer: NewWSServer(NewWSServerOptions{
			Port: opts.Port,
			TLS:  opts.TLS,
			Path: opts.Path,
		}),
		rooms: make(map[string]*Room),
	}
}

// Room is one shared document and the peers editing it.
type Room struct {
	Name string

	lock    sync.Mutex
	closed  bool
	doc     *document.Doc
	players *document.Array
}

// Start serves the relay until ctx is done.
func (s *RelayServer) Start(ctx context.Context) {
	s.wsServer.Start(ctx, s)
}

// Handler returns the relay as an HTTP handler, for embedding and tests.
func (s *RelayServer) Handler(ctx context.Context) http.Handler {
	return s.wsServer.Handler(ctx, s)
}

// PlayerIDs lists the players present in the replica of room.
func (s *RelayServer) PlayerIDs(room string) []string {
	r := s.getRoom(room, false)
	if r == nil {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	ids := make([]string, 0, r.players.Len())
	for i := 0; i < r.players.Len(); i++ {
		m, ok := r.players.GetMap(i)
		if !ok {
			continue
		}
		if id, ok := m.GetString(constants.PlayerIDKey); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *RelayServer) OnConnect(conn *websocket.Conn) (uint32, error) {
	peer, err := s.peers.Connect(conn)
	if err != nil {
		return 0, err
	}
	log.Debug("Peer %d connected from %s", peer.ID, conn.RemoteAddr().String())
	return peer.ID, nil
}

func (s *RelayServer) OnMessage(ctx context.Context, peerID uint32, message *messages.Message) {
	peer, err := s.peers.Get(peerID)
	if err != nil {
		log.Warn("Received %s from unknown peer: %v", message.Type, err)
		return
	}

	if !peer.Joined() && message.Type != messages.MessageTypeClientJoin && message.Type != messages.MessageTypeClientPing {
		log.Warn("Received %s from peer %d that has not joined a room", message.Type, peerID)
		return
	}

	switch message.Type {
	case messages.MessageTypeClientPing:
		if err := s.handleClientPing(peer, message); err != nil {
			log.Error("Failed to handle client ping: %v", err)
		}
	case messages.MessageTypeClientJoin:
		if err := s.handleClientJoin(ctx, peer, message); err != nil {
			log.Warn("Rejecting join from peer %d: %v", peerID, err)
			reject, err := messages.NewJSONMessage(messages.MessageTypeServerJoinReject, "", "", &messages.ServerJoinReject{Reason: err.Error()})
			if err != nil {
				log.Error("Failed to build join reject: %v", err)
				return
			}
			if err := peer.Send(reject); err != nil {
				log.Error("Failed to send join reject to peer %d: %v", peerID, err)
			}
		}
	case messages.MessageTypeClientUpdate:
		if err := s.handleClientUpdate(peer, message); err != nil {
			log.Error("Failed to handle update from peer %d: %v", peerID, err)
		}
	case messages.MessageTypeClientVoice:
		s.broadcast(peer.Room, &messages.Message{
			PlayerID:  peer.PlayerID,
			Type:      messages.MessageTypeServerVoice,
			Room:      peer.Room,
			Payload:   message.Payload,
			Timestamp: message.Timestamp,
		}, peer.ID)
	default:
		log.Warn("Received unexpected message type %s from peer %d", message.Type, peerID)
	}
}

func (s *RelayServer) OnDisconnect(peerID uint32) {
	peer := s.peers.Disconnect(peerID)
	if peer == nil {
		log.Warn("Unknown peer %d disconnected", peerID)
		return
	}
	log.Info("Peer %d disconnected", peerID)
	if !peer.Joined() {
		return
	}

	room := s.getRoom(peer.Room, false)
	if room == nil {
		return
	}
	room.lock.Lock()
	// the removal reaches the remaining peers through the room's update listener
	room.doc.Transact(ServerOrigin, func() {
		for i := room.players.Len() - 1; i >= 0; i-- {
			m, ok := room.players.GetMap(i)
			if !ok {
				continue
			}
			if id, _ := m.GetString(constants.PlayerIDKey); id == peer.PlayerID {
				room.players.Delete(i, 1)
			}
		}
	})
	room.lock.Unlock()

	leave, err := messages.NewJSONMessage(messages.MessageTypeServerPlayerLeave, peer.PlayerID, peer.Room, &messages.ServerPlayerLeave{PlayerID: peer.PlayerID})
	if err != nil {
		log.Error("Failed to build player leave: %v", err)
		return
	}
	s.broadcast(peer.Room, leave, peer.ID)
	s.closeRoomIfEmpty(peer.Room)
}

func (s *RelayServer) handleClientPing(peer *Peer, message *messages.Message) error {
	pong := &messages.Message{
		Type:      messages.MessageTypeServerPong,
		Timestamp: message.Timestamp,
	}
	if err := peer.Send(pong); err != nil {
		return fmt.Errorf("failed to write pong message to peer %d: %v", peer.ID, err)
	}
	return nil
}

func (s *RelayServer) handleClientJoin(ctx context.Context, peer *Peer, message *messages.Message) error {
	join := &messages.ClientJoin{}
	if err := message.DecodePayload(join); err != nil {
		return err
	}
	if join.Room == "" {
		return fmt.Errorf("missing room")
	}

	claims, err := s.authProvider.VerifyToken(ctx, join.Token)
	if err != nil {
		return fmt.Errorf("failed to verify token: %v", err)
	}

	playerID := join.PlayerID
	if playerID == "" {
		playerID = claims.UID
	}

	accept := &messages.ServerJoinAccept{PlayerID: playerID}
	if s.repository != nil {
		saved, err := s.repository.LoadPlayerSnapshot(ctx, claims.UID)
		if err == nil {
			accept.Snapshot = saved.Snapshot
		} else if !repositories.IsNotFound(err) {
			log.Error("Failed to load snapshot of %s: %v", claims.UID, err)
		}
	}

	// the peer joins under the room lock so no relayed update reaches it
	// before the state below
	room := s.lockRoom(join.Room)
	defer room.lock.Unlock()
	if err := s.peers.Join(peer.ID, playerID, claims.UID, join.Room); err != nil {
		return err
	}
	state, err := document.EncodeUpdate(room.doc.EncodeState())
	if err != nil {
		return fmt.Errorf("failed to encode room state: %v", err)
	}
	accept.State = state

	msg, err := messages.NewJSONMessage(messages.MessageTypeServerJoinAccept, playerID, join.Room, accept)
	if err != nil {
		return err
	}
	msg.Timestamp = time.Now().UnixMilli()
	if err := peer.Send(msg); err != nil {
		return fmt.Errorf("failed to send join accept: %v", err)
	}
	log.Info("Player %s (%s) joined %s as peer %d", playerID, claims.UID, join.Room, peer.ID)
	return nil
}

func (s *RelayServer) handleClientUpdate(peer *Peer, message *messages.Message) error {
	u, err := document.DecodeUpdate(message.Payload)
	if err != nil {
		return err
	}
	room := s.getRoom(peer.Room, false)
	if room == nil {
		return fmt.Errorf("room %s not found", peer.Room)
	}

	room.lock.Lock()
	defer room.lock.Unlock()
	room.doc.ApplyUpdate(u)
	log.Trace("Relaying update %s from %s in %s", u.ID, peer.PlayerID, peer.Room)
	s.broadcast(peer.Room, &messages.Message{
		PlayerID:  peer.PlayerID,
		Type:      messages.MessageTypeServerUpdate,
		Room:      peer.Room,
		Payload:   message.Payload,
		Timestamp: message.Timestamp,
	}, peer.ID)
	return nil
}

// broadcast sends msg to every joined peer of room except exclude.
func (s *RelayServer) broadcast(room string, msg *messages.Message, exclude uint32) {
	for _, peer := range s.peers.InRoom(room) {
		if peer.ID == exclude {
			continue
		}
		if err := peer.Send(msg); err != nil {
			log.Error("Failed to send %s to peer %d: %v", msg.Type, peer.ID, err)
		}
	}
}

func (s *RelayServer) getRoom(name string, create bool) *Room {
	s.roomsLock.Lock()
	defer s.roomsLock.Unlock()
	if room, ok := s.rooms[name]; ok {
		return room
	}
	if !create {
		return nil
	}

	doc := document.NewDoc(ServerClientID)
	room := &Room{
		Name:    name,
		doc:     doc,
		players: doc.GetArray(constants.PlayersMapName),
	}
	doc.OnUpdate(func(u *document.Update) {
		b, err := document.EncodeUpdate(u)
		if err != nil {
			log.Error("Failed to encode update of room %s: %v", name, err)
			return
		}
		s.broadcast(name, &messages.Message{
			Type:      messages.MessageTypeServerUpdate,
			Room:      name,
			Payload:   b,
			Timestamp: time.Now().UnixMilli(),
		}, 0)
	})
	s.rooms[name] = room
	log.Debug("Created room %s", name)
	return room
}

// lockRoom returns the open room called name, created if needed, with its
// lock held.
func (s *RelayServer) lockRoom(name string) *Room {
	for {
		room := s.getRoom(name, true)
		room.lock.Lock()
		if !room.closed {
			return room
		}
		room.lock.Unlock()
	}
}

func (s *RelayServer) closeRoomIfEmpty(name string) {
	s.roomsLock.Lock()
	defer s.roomsLock.Unlock()
	room, ok := s.rooms[name]
	if !ok {
		return
	}
	room.lock.Lock()
	defer room.lock.Unlock()
	if len(s.peers.InRoom(name)) > 0 {
		return
	}
	room.closed = true
	delete(s.rooms, name)
	log.Debug("Closed room %s", name)
}
