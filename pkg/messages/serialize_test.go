package messages

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	join, err := NewJSONMessage(MessageTypeClientJoin, "p1", "lobby", &ClientJoin{Room: "lobby", Token: "t", PlayerID: "p1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		message *Message
		wantErr bool
	}{
		{
			name:    "join",
			message: join,
		},
		{
			name: "update with binary payload",
			message: &Message{
				PlayerID:  "p1",
				Type:      MessageTypeClientUpdate,
				Room:      "lobby",
				Payload:   []byte{0x00, 0xff, 0x10, 0x80},
				Timestamp: 1718000000000,
			},
		},
		{
			name: "large voice payload",
			message: &Message{
				PlayerID: "p2",
				Type:     MessageTypeServerVoice,
				Payload:  bytes.Repeat([]byte{7}, 64*1024),
			},
		},
		{
			name:    "missing type",
			message: &Message{PlayerID: "p1"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := SerializeMessage(tt.message)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			got, err := DeserializeMessage(b)
			require.NoError(t, err)
			assert.Equal(t, tt.message, got)
		})
	}
}

func TestDeserializeMessage_garbage(t *testing.T) {
	_, err := DeserializeMessage([]byte("not zstd"))
	assert.Error(t, err)

	_, err = DeserializeMessageFlatbuffer([]byte{1, 2})
	assert.Error(t, err)
}

func TestDecodePayload(t *testing.T) {
	m, err := NewJSONMessage(MessageTypeServerJoinReject, "", "lobby", &ServerJoinReject{Reason: "full"})
	require.NoError(t, err)

	var reject ServerJoinReject
	require.NoError(t, m.DecodePayload(&reject))
	assert.Equal(t, "full", reject.Reason)

	var leave ServerPlayerLeave
	m.Payload = []byte("{")
	assert.Error(t, m.DecodePayload(&leave))
	assert.Equal(t, "join-reject", m.Type.String())
}
