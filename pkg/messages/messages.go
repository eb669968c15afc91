package messages

import (
	"encoding/json"
	"fmt"
)

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 1 << 20
)

type MessageType byte

// Message types
const (
	MessageTypeClientPing MessageType = iota + 1
	MessageTypeServerPong
	MessageTypeClientJoin
	MessageTypeServerJoinAccept
	MessageTypeServerJoinReject
	MessageTypeClientUpdate
	MessageTypeServerUpdate
	MessageTypeServerPlayerLeave
	MessageTypeClientVoice
	MessageTypeServerVoice
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeClientPing:
		return "ping"
	case MessageTypeServerPong:
		return "pong"
	case MessageTypeClientJoin:
		return "join"
	case MessageTypeServerJoinAccept:
		return "join-accept"
	case MessageTypeServerJoinReject:
		return "join-reject"
	case MessageTypeClientUpdate:
		return "client-update"
	case MessageTypeServerUpdate:
		return "server-update"
	case MessageTypeServerPlayerLeave:
		return "leave"
	case MessageTypeClientVoice:
		return "client-voice"
	case MessageTypeServerVoice:
		return "server-voice"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Message represents a generic message for serialization/deserialization.
// Update payloads carry an encoded document update, voice payloads raw
// audio, everything else JSON.
type Message struct {
	PlayerID  string
	Type      MessageType
	Room      string
	Payload   []byte
	Timestamp int64
}

// ClientJoin asks to enter a room.
type ClientJoin struct {
	Room     string `json:"room"`
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
}

// ServerJoinAccept carries the room document state, encoded as a document
// update, and the last saved snapshot of the joining user if there is one.
type ServerJoinAccept struct {
	PlayerID string `json:"playerId"`
	State    []byte `json:"state"`
	Snapshot string `json:"snapshot,omitempty"`
}

type ServerJoinReject struct {
	Reason string `json:"reason"`
}

type ServerPlayerLeave struct {
	PlayerID string `json:"playerId"`
}

// NewJSONMessage builds a message with a JSON encoded payload.
func NewJSONMessage(t MessageType, playerID, room string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", t, err)
	}
	return &Message{PlayerID: playerID, Type: t, Room: room, Payload: b}, nil
}

// DecodePayload unmarshals a JSON payload into v.
func (m *Message) DecodePayload(v interface{}) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %v", m.Type, err)
	}
	return nil
}
