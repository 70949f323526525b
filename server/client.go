package main

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chexy-balloons/shared/protocol"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 1024
	maxMessagesPerSec = 240 // inputs arrive once per client frame
)

var errConnClosed = errors.New("connection closed")

type outFrame struct {
	ch   protocol.ServerChannel
	data []byte
}

// Client represents a WebSocket connection. Reliable frames wait in a
// queue bounded only by the channel's byte budget; snapshots go through a
// small channel and are dropped when it is full.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	id         protocol.ClientID
	remoteAddr string
	snapshots  chan outFrame
	wake       chan struct{}
	done       chan struct{}

	mu            sync.Mutex
	closed        bool
	reliable      []outFrame
	queued        [2]int // reliable bytes waiting per server channel
	tickBytes     int
	budgetResetAt time.Time

	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, id protocol.ClientID, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		id:         id,
		remoteAddr: remoteAddr,
		snapshots:  make(chan outFrame, sendBufSize),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Send queues a payload on a server channel. Unreliable frames over the
// per-tick byte budget or facing a full queue are dropped. A reliable
// frame that does not fit the channel's memory budget is a
// TransportError.
func (c *Client) Send(ch protocol.ServerChannel, payload []byte) error {
	cfg, ok := c.hub.conn.ServerChannel(ch)
	if !ok {
		return &protocol.TransportError{ClientID: c.id, Err: protocol.ErrUnknownChannel}
	}
	frame := protocol.EncodeFrame(uint8(ch), payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &protocol.TransportError{ClientID: c.id, Err: errConnClosed}
	}

	now := time.Now()
	if now.After(c.budgetResetAt) {
		c.tickBytes = 0
		c.budgetResetAt = now.Add(TickDuration)
	}

	if !cfg.SendType.Reliable() {
		if c.tickBytes+len(frame) > c.hub.conn.AvailableBytesPerTick {
			c.hub.metrics.IncSnapshotsDropped()
			return nil
		}
		select {
		case c.snapshots <- outFrame{ch: ch, data: frame}:
			c.tickBytes += len(frame)
		default:
			c.hub.metrics.IncSnapshotsDropped()
		}
		return nil
	}

	if c.queued[ch]+len(frame) > cfg.MaxMemoryUsageBytes {
		return &protocol.TransportError{ClientID: c.id, Err: protocol.ErrChannelFull}
	}
	c.reliable = append(c.reliable, outFrame{ch: ch, data: frame})
	c.queued[ch] += len(frame)
	c.tickBytes += len(frame)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// takeReliable hands the writer every queued reliable frame.
func (c *Client) takeReliable() []outFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := c.reliable
	c.reliable = nil
	for _, f := range frames {
		c.queued[f.ch] -= len(f.data)
	}
	return frames
}

// Close stops the write side; the read side notices the closed socket and
// unregisters. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// ReadPump reads frames from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Warnw("ws read", "client", c.id, "err", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			Log.Warnw("rate limit exceeded, disconnecting", "client", c.id, "addr", c.remoteAddr)
			break
		}

		c.hub.metrics.IncInbound()
		if msgType != websocket.BinaryMessage {
			c.protocolError(&protocol.ProtocolError{Op: "read frame", Err: errors.New("text frame")})
			continue
		}
		if err := c.handleFrame(message); err != nil {
			c.protocolError(err)
		}
	}
}

func (c *Client) protocolError(err error) {
	c.hub.metrics.IncProtocolErrors()
	Log.Warnw("dropping malformed message", "client", c.id, "err", err)
}

// handleFrame routes one inbound frame by channel.
func (c *Client) handleFrame(frame []byte) error {
	ch, payload, err := protocol.DecodeFrame(frame)
	if err != nil {
		return err
	}
	switch protocol.ClientChannel(ch) {
	case protocol.ChannelCommand:
		cmd, err := protocol.DecodeCommand(payload)
		if err != nil {
			return err
		}
		c.hub.game.Command(c.id, cmd)
	case protocol.ChannelInput:
		in, err := protocol.DecodeInput(payload)
		if err != nil {
			return err
		}
		c.hub.game.Input(c.id, in)
	default:
		return &protocol.ProtocolError{Op: "read frame", Err: protocol.ErrUnknownChannel}
	}
	return nil
}

// WritePump writes queued frames to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(f outFrame) bool {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(websocket.BinaryMessage, f.data) == nil
	}

	for {
		select {
		case <-c.wake:
			for _, f := range c.takeReliable() {
				if !write(f) {
					return
				}
			}

		case f := <-c.snapshots:
			if !write(f) {
				return
			}

		case <-c.done:
			// Reliable frames queued before the close still go out.
			for _, f := range c.takeReliable() {
				if !write(f) {
					return
				}
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
