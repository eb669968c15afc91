package network

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/cbodonnell/tether/pkg/messages"
	"github.com/gorilla/websocket"
)

const (
	// PeerIDMaxRetries represents the maximum number of retries when generating a unique ID
	PeerIDMaxRetries = 1024
)

// Peer is a connection to the relay. It joins at most one room.
type Peer struct {
	ID       uint32
	PlayerID string
	UserID   string
	Room     string

	conn      *websocket.Conn
	writeLock sync.Mutex
}

// Joined reports whether the peer has been accepted into a room.
func (p *Peer) Joined() bool {
	return p.Room != ""
}

// Send writes msg to the peer. Writes are serialized per connection.
func (p *Peer) Send(msg *messages.Message) error {
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return WriteMessageToWS(p.conn, msg)
}

// PeerManager tracks connected peers and the rooms they joined.
type PeerManager struct {
	peers     map[uint32]*Peer
	peersLock sync.RWMutex
}

func NewPeerManager() *PeerManager {
	return &PeerManager{
		peers: make(map[uint32]*Peer),
	}
}

// Connect registers a new connection and returns its peer.
func (pm *PeerManager) Connect(conn *websocket.Conn) (*Peer, error) {
	pm.peersLock.Lock()
	defer pm.peersLock.Unlock()

	id, err := pm.generateUniqueID(PeerIDMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	peer := &Peer{
		ID:   id,
		conn: conn,
	}
	pm.peers[id] = peer
	return peer, nil
}

// Join records the identity and room of a peer. A player id can only be
// joined once per room.
func (pm *PeerManager) Join(peerID uint32, playerID, userID, room string) error {
	pm.peersLock.Lock()
	defer pm.peersLock.Unlock()

	peer, ok := pm.peers[peerID]
	if !ok {
		return fmt.Errorf("peer %d not found", peerID)
	}
	if peer.Joined() {
		return fmt.Errorf("peer %d already joined %s", peerID, peer.Room)
	}
	for _, other := range pm.peers {
		if other.Room == room && other.PlayerID == playerID {
			return fmt.Errorf("player %s is already in %s", playerID, room)
		}
	}
	peer.PlayerID = playerID
	peer.UserID = userID
	peer.Room = room
	return nil
}

func (pm *PeerManager) Get(peerID uint32) (*Peer, error) {
	pm.peersLock.RLock()
	defer pm.peersLock.RUnlock()
	peer, ok := pm.peers[peerID]
	if !ok {
		return nil, fmt.Errorf("peer %d not found", peerID)
	}
	return peer, nil
}

// Disconnect removes a peer and returns it, or nil if it was unknown.
func (pm *PeerManager) Disconnect(peerID uint32) *Peer {
	pm.peersLock.Lock()
	defer pm.peersLock.Unlock()
	peer, ok := pm.peers[peerID]
	if !ok {
		return nil
	}
	delete(pm.peers, peerID)
	return peer
}

// InRoom returns the peers that joined room.
func (pm *PeerManager) InRoom(room string) []*Peer {
	pm.peersLock.RLock()
	defer pm.peersLock.RUnlock()
	peers := make([]*Peer, 0)
	for _, peer := range pm.peers {
		if peer.Room == room {
			peers = append(peers, peer)
		}
	}
	return peers
}

func (pm *PeerManager) Count() int {
	pm.peersLock.RLock()
	defer pm.peersLock.RUnlock()
	return len(pm.peers)
}

// generateUniqueID generates a unique peer ID with a maximum number of retries
// it reads from the peers, so it needs to be locked before calling
func (pm *PeerManager) generateUniqueID(maxRetries int) (uint32, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		id := rand.Uint32()
		if id == 0 {
			continue
		}
		if _, ok := pm.peers[id]; !ok {
			return id, nil
		}
	}

	return 0, fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}
