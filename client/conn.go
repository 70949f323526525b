package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chexy-balloons/shared/protocol"
)

// JoinURL adds the unsecure handshake parameters to a server websocket URL.
func JoinURL(base string, id protocol.ClientID) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("client_id", strconv.FormatUint(id, 10))
	q.Set("protocol", strconv.FormatUint(protocol.ProtocolID, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Conn is a websocket connection to the server feeding a Mirror. Frames
// are buffered by a reader goroutine and applied on Poll, so the caller
// decides when state changes.
type Conn struct {
	ws     *websocket.Conn
	mirror *Mirror
	inbox  chan []byte
	done   chan struct{}
	quit   chan struct{}
	log    *zap.Logger

	closeOnce sync.Once

	wmu sync.Mutex

	errMu sync.Mutex
	err   error
}

// Dial connects to rawURL and starts reading.
func Dial(ctx context.Context, rawURL string, m *Mirror) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", rawURL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	c := &Conn{
		ws:     ws,
		mirror: m,
		inbox:  make(chan []byte, 4096),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
		log:    m.log,
	}
	go c.readLoop()
	return c, nil
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.errMu.Lock()
			c.err = err
			c.errMu.Unlock()
			return
		}
		select {
		case c.inbox <- msg:
		case <-c.quit:
			return
		}
	}
}

// Poll applies every frame received so far and returns how many were
// applied. Malformed frames are logged and skipped.
func (c *Conn) Poll() int {
	n := 0
	for {
		select {
		case frame := <-c.inbox:
			if err := c.mirror.HandleFrame(frame); err != nil {
				c.log.Warn("dropping frame", zap.Error(err))
				continue
			}
			n++
		default:
			return n
		}
	}
}

// Done is closed when the connection stops reading.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the read loop, if any.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Conn) send(ch protocol.ClientChannel, payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, protocol.EncodeFrame(uint8(ch), payload)); err != nil {
		return &protocol.TransportError{ClientID: c.mirror.Self(), Err: err}
	}
	return nil
}

// SendInput sends the current key state.
func (c *Conn) SendInput(in protocol.PlayerInput) error {
	b, err := protocol.EncodeInput(in)
	if err != nil {
		return err
	}
	return c.send(protocol.ChannelInput, b)
}

// SendCommand sends a one-shot command.
func (c *Conn) SendCommand(kind protocol.CommandKind) error {
	b, err := protocol.EncodeCommand(protocol.PlayerCommand{Kind: kind})
	if err != nil {
		return err
	}
	return c.send(protocol.ChannelCommand, b)
}

func (c *Conn) ToggleReady() error { return c.SendCommand(protocol.CommandToggleReady) }
func (c *Conn) BasicAttack() error { return c.SendCommand(protocol.CommandBasicAttack) }

// SendRaw writes an arbitrary frame; used to exercise server validation.
func (c *Conn) SendRaw(frame []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, frame)
}

// Close sends a close frame and shuts the socket.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.quit) })
	c.wmu.Lock()
	err := c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()
	cerr := c.ws.Close()
	c.mirror.ReturnToTitle()
	return errors.Join(err, cerr)
}
