package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/messages"
	"github.com/cbodonnell/tether/pkg/queue"
	"nhooyr.io/websocket"
)

// ErrNotConnected is returned when sending before Connect.
var ErrNotConnected = errors.New("not connected")

// JoinRejectedError is returned by Join when the relay refuses the peer.
type JoinRejectedError struct {
	Reason string
}

func (e *JoinRejectedError) Error() string {
	return fmt.Sprintf("join rejected: %s", e.Reason)
}

// Client is a peer connection to a RelayServer. Room traffic is put on the
// message queue for the game loop to consume.
type Client struct {
	serverURL    string
	messageQueue queue.Queue

	conn     *websocket.Conn
	playerID string
	room     string
	lock     sync.RWMutex

	joinChan chan *messages.Message
	rtt      rttTracker
}

type NewClientOptions struct {
	// ServerURL is the relay endpoint, e.g. ws://localhost:8888/ws
	ServerURL    string
	MessageQueue queue.Queue
}

func NewClient(opts NewClientOptions) *Client {
	return &Client{
		serverURL:    opts.ServerURL,
		messageQueue: opts.MessageQueue,
		joinChan:     make(chan *messages.Message, 1),
	}
}

// Connect establishes a connection to the relay.
func (c *Client) Connect(ctx context.Context) error {
	log.Info("Connecting to relay at %s", c.serverURL)
	conn, _, err := websocket.Dial(ctx, c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	conn.SetReadLimit(messages.MessageBufferSize)

	c.lock.Lock()
	c.conn = conn
	c.lock.Unlock()
	return nil
}

// Join enters room and waits for the relay's answer. HandleMessages must
// be running.
func (c *Client) Join(ctx context.Context, room, token, playerID string) (*messages.ServerJoinAccept, error) {
	msg, err := messages.NewJSONMessage(messages.MessageTypeClientJoin, playerID, room, &messages.ClientJoin{
		Room:     room,
		Token:    token,
		PlayerID: playerID,
	})
	if err != nil {
		return nil, err
	}
	if err := c.SendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send join: %v", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case reply := <-c.joinChan:
		if reply.Type == messages.MessageTypeServerJoinReject {
			reject := &messages.ServerJoinReject{}
			if err := reply.DecodePayload(reject); err != nil {
				return nil, err
			}
			return nil, &JoinRejectedError{Reason: reject.Reason}
		}
		accept := &messages.ServerJoinAccept{}
		if err := reply.DecodePayload(accept); err != nil {
			return nil, err
		}
		c.lock.Lock()
		c.playerID = accept.PlayerID
		c.room = room
		c.lock.Unlock()
		return accept, nil
	}
}

// HandleMessages reads from the relay until the connection closes or ctx is done.
func (c *Client) HandleMessages(ctx context.Context) error {
	c.lock.RLock()
	conn := c.conn
	c.lock.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				log.Trace("Connection to %s closed", c.serverURL)
				return nil
			}
			return fmt.Errorf("failed to read message: %v", err)
		}

		if err := c.handleMessage(b); err != nil {
			log.Error("Failed to handle message: %v", err)
		}
	}
}

func (c *Client) handleMessage(b []byte) error {
	msg, err := messages.DeserializeMessage(b)
	if err != nil {
		return fmt.Errorf("failed to deserialize message: %v", err)
	}
	log.Trace("Received message from relay of type %s", msg.Type)

	switch msg.Type {
	case messages.MessageTypeServerJoinAccept, messages.MessageTypeServerJoinReject:
		select {
		case c.joinChan <- msg:
		default:
			log.Warn("Dropping unexpected %s", msg.Type)
		}
	case messages.MessageTypeServerUpdate,
		messages.MessageTypeServerPlayerLeave,
		messages.MessageTypeServerVoice:
		if err := c.messageQueue.Enqueue(msg); err != nil {
			return fmt.Errorf("failed to enqueue message: %v", err)
		}
	case messages.MessageTypeServerPong:
		rtt := time.Now().UnixMilli() - msg.Timestamp
		c.rtt.add(rtt)
		log.Debug("Received server pong after %dms", rtt)
	default:
		return fmt.Errorf("received unexpected message type from relay: %s", msg.Type)
	}
	return nil
}

// SendUpdate forwards a locally originated document update to the room.
func (c *Client) SendUpdate(ctx context.Context, u *document.Update) error {
	b, err := document.EncodeUpdate(u)
	if err != nil {
		return err
	}
	c.lock.RLock()
	msg := &messages.Message{
		PlayerID:  c.playerID,
		Type:      messages.MessageTypeClientUpdate,
		Room:      c.room,
		Payload:   b,
		Timestamp: time.Now().UnixMilli(),
	}
	c.lock.RUnlock()
	return c.SendMessage(ctx, msg)
}

// SendVoice forwards an audio packet to the other peers of the room.
func (c *Client) SendVoice(ctx context.Context, packet []byte) error {
	c.lock.RLock()
	msg := &messages.Message{
		PlayerID:  c.playerID,
		Type:      messages.MessageTypeClientVoice,
		Room:      c.room,
		Payload:   packet,
		Timestamp: time.Now().UnixMilli(),
	}
	c.lock.RUnlock()
	return c.SendMessage(ctx, msg)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.SendMessage(ctx, &messages.Message{
		Type:      messages.MessageTypeClientPing,
		Timestamp: time.Now().UnixMilli(),
	})
}

// SendMessage sends a message to the relay. It is safe for concurrent use.
func (c *Client) SendMessage(ctx context.Context, msg *messages.Message) error {
	c.lock.RLock()
	conn := c.conn
	c.lock.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write message to relay: %v", err)
	}
	return nil
}

// Close closes the connection to the relay.
func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.conn == nil {
		log.Warn("Relay connection is already closed")
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	return err
}
