package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrProtocol           = errors.New("protocol error")
	ErrTransport          = errors.New("transport error")
	ErrStateInconsistency = errors.New("state inconsistency")

	ErrChannelFull    = errors.New("channel memory budget exceeded")
	ErrUnknownChannel = errors.New("unknown channel")
	ErrUnknownTag     = errors.New("unknown message tag")
	ErrEmptyFrame     = errors.New("empty frame")
)

// ProtocolError is a malformed or unexpected message. The message is
// dropped; the connection survives.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() []error { return []error{ErrProtocol, e.Err} }

func protoErr(op string, err error) error {
	return &ProtocolError{Op: op, Err: err}
}

// TransportError is a connection level fault. The affected client is
// disconnected.
type TransportError struct {
	ClientID ClientID
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: client %d: %v", e.ClientID, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// StateInconsistency is a message that references an entity the receiver
// does not know about.
type StateInconsistency struct {
	Entity EntityID
	Op     string
}

func (e *StateInconsistency) Error() string {
	return fmt.Sprintf("%s: unknown entity %d", e.Op, e.Entity)
}

func (e *StateInconsistency) Unwrap() error { return ErrStateInconsistency }
