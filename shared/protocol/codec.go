package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// envelope wraps every ServerMessage as tag + fields; RawMessage avoids
// decoding the body twice.
type envelope struct {
	T MessageTag         `msgpack:"t"`
	D msgpack.RawMessage `msgpack:"d"`
}

// EncodeServerMessage serializes m for the ServerMessages channel.
func EncodeServerMessage(m ServerMessage) ([]byte, error) {
	d, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", m, err)
	}
	return msgpack.Marshal(envelope{T: m.Tag(), D: d})
}

// DecodeServerMessage parses a ServerMessages payload. Failures are
// ProtocolErrors.
func DecodeServerMessage(b []byte) (ServerMessage, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, protoErr("decode server message", err)
	}
	var m ServerMessage
	switch env.T {
	case TagPlayerCreate:
		m = &PlayerCreate{}
	case TagPlayerRemove:
		m = &PlayerRemove{}
	case TagSpawnProjectile:
		m = &SpawnProjectile{}
	case TagSpawnGameObject:
		m = &SpawnGameObject{}
	case TagSpawnCoin:
		m = &SpawnCoin{}
	case TagDespawnEntity:
		m = &DespawnEntity{}
	case TagSetPlayerReady:
		m = &SetPlayerReady{}
	case TagStartGame:
		m = &StartGame{}
	case TagEndGame:
		m = &EndGame{}
	default:
		return nil, protoErr("decode server message", fmt.Errorf("%w %d", ErrUnknownTag, env.T))
	}
	if err := msgpack.Unmarshal(env.D, m); err != nil {
		return nil, protoErr(fmt.Sprintf("decode tag %d", env.T), err)
	}
	return deref(m), nil
}

// deref hands messages out by value so callers can type switch on the
// same types they send.
func deref(m ServerMessage) ServerMessage {
	switch v := m.(type) {
	case *PlayerCreate:
		return *v
	case *PlayerRemove:
		return *v
	case *SpawnProjectile:
		return *v
	case *SpawnGameObject:
		return *v
	case *SpawnCoin:
		return *v
	case *DespawnEntity:
		return *v
	case *SetPlayerReady:
		return *v
	case *StartGame:
		return *v
	case *EndGame:
		return *v
	}
	return m
}

func EncodeInput(in PlayerInput) ([]byte, error) {
	return msgpack.Marshal(in)
}

func DecodeInput(b []byte) (PlayerInput, error) {
	var in PlayerInput
	if err := msgpack.Unmarshal(b, &in); err != nil {
		return in, protoErr("decode input", err)
	}
	return in, nil
}

func EncodeCommand(c PlayerCommand) ([]byte, error) {
	return msgpack.Marshal(c)
}

func DecodeCommand(b []byte) (PlayerCommand, error) {
	var c PlayerCommand
	if err := msgpack.Unmarshal(b, &c); err != nil {
		return c, protoErr("decode command", err)
	}
	switch c.Kind {
	case CommandBasicAttack, CommandToggleReady:
		return c, nil
	}
	return c, protoErr("decode command", fmt.Errorf("%w %d", ErrUnknownTag, c.Kind))
}

func EncodeSnapshot(n *NetworkedEntities) ([]byte, error) {
	return msgpack.Marshal(n)
}

// DecodeSnapshot parses a NetworkedEntities payload and rejects snapshots
// whose parallel slices disagree in length.
func DecodeSnapshot(b []byte) (*NetworkedEntities, error) {
	var n NetworkedEntities
	if err := msgpack.Unmarshal(b, &n); err != nil {
		return nil, protoErr("decode snapshot", err)
	}
	l := len(n.Entities)
	if len(n.Translations) != l || len(n.Facing) != l || len(n.Scores) != l {
		return nil, protoErr("decode snapshot", fmt.Errorf("ragged snapshot: %d entities, %d translations, %d facing, %d scores",
			l, len(n.Translations), len(n.Facing), len(n.Scores)))
	}
	return &n, nil
}

// EncodeFrame prefixes payload with its channel id.
func EncodeFrame(channel uint8, payload []byte) []byte {
	frame := make([]byte, 1+len(payload))
	frame[0] = channel
	copy(frame[1:], payload)
	return frame
}

// DecodeFrame splits a frame into channel id and payload. The payload
// aliases b.
func DecodeFrame(b []byte) (channel uint8, payload []byte, err error) {
	if len(b) == 0 {
		return 0, nil, protoErr("decode frame", ErrEmptyFrame)
	}
	return b[0], b[1:], nil
}
