package main

import (
	"errors"
	"sync"

	"chexy-balloons/shared/protocol"
)

const maxConnsPerIP = 16

var (
	ErrServerFull   = errors.New("server full")
	ErrTooManyConns = errors.New("too many connections from address")
	ErrDuplicateID  = errors.New("client id already connected")
)

// Hub tracks connected clients and hands their lifecycle to the Game.
type Hub struct {
	mu         sync.RWMutex
	clients    map[protocol.ClientID]*Client
	register   chan *Client
	unregister chan *Client
	game       *Game
	metrics    *Metrics
	conn       protocol.ConnectionConfig
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	reserved   map[protocol.ClientID]bool
	totalConns int
	maxClients int
}

// NewHub creates a Hub feeding game
func NewHub(game *Game, metrics *Metrics, maxClients int) *Hub {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	return &Hub{
		clients:    make(map[protocol.ClientID]*Client),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		game:       game,
		metrics:    metrics,
		conn:       protocol.DefaultConnectionConfig(),
		ipConns:    make(map[string]int),
		reserved:   make(map[protocol.ClientID]bool),
		maxClients: maxClients,
	}
}

// Admit reserves a slot for id connecting from ip.
func (h *Hub) Admit(ip string, id protocol.ClientID) error {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.maxClients {
		return ErrServerFull
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return ErrTooManyConns
	}
	if h.reserved[id] {
		return ErrDuplicateID
	}
	h.reserved[id] = true
	h.ipConns[ip]++
	h.totalConns++
	return nil
}

// Release frees the slot taken by Admit.
func (h *Hub) Release(ip string, id protocol.ClientID) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if !h.reserved[id] {
		return
	}
	delete(h.reserved, id)
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
			h.game.Connect(c.id, c)

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
			}
			h.mu.Unlock()
			c.Close()
			h.Release(c.remoteAddr, c.id)
			h.game.Disconnect(c.id, c)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
