// Package gateway serves signal envelopes to WebSocket subscribers. The hub
// owns the client set; all envelope writes flow through one Broadcast path
// with non-blocking per-client sends, so a slow subscriber is skipped rather
// than stalling the dispatcher.
package gateway

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"signal-systemv1/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub manages WebSocket clients and fan-out of signal envelopes.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	closed  bool

	// Recent envelopes, replayed to newly connected clients.
	backlog    [][]byte
	backlogCap int
}

// NewHub creates a hub keeping up to backlogCap recent envelopes for replay.
func NewHub(backlogCap int) *Hub {
	if backlogCap < 0 {
		backlogCap = 0
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		backlogCap: backlogCap,
	}
}

// HandleWS upgrades an HTTP connection, registers the client, sends the
// welcome envelope plus the recent backlog, and starts the client pumps.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = true
	count := len(h.clients)
	replay := make([][]byte, len(h.backlog))
	copy(replay, h.backlog)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)

	if welcome, err := notify.Welcome(count).JSON(); err == nil {
		client.trySend(welcome)
	}
	for _, msg := range replay {
		client.trySend(msg)
	}

	go client.writePump()
	go client.readPump()
}

// Broadcast fans one serialized envelope out to every connected client and
// records it in the replay backlog. Clients with a full send queue are
// skipped.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	if h.backlogCap > 0 {
		h.backlog = append(h.backlog, payload)
		if len(h.backlog) > h.backlogCap {
			h.backlog = h.backlog[len(h.backlog)-h.backlogCap:]
		}
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.trySend(payload)
	}
}

// RemoveClient unregisters a client and closes its send queue. Called from
// the client's read pump exactly once.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[gateway] ws client disconnected (%d total)", count)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown rejects new connections and closes every client socket; the read
// pumps then unregister their clients.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.conn.Close()
	}
}
