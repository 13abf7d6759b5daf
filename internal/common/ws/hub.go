package ws

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// client pairs a connection with its write lock; gorilla/websocket
// allows at most one concurrent writer per connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Hub stores all active WebSocket connections keyed by subscriber ID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Add registers a new connection under a unique subscriber ID.
func (h *Hub) Add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[id]; ok {
		_ = old.conn.Close()
	}
	h.clients[id] = &client{conn: conn}
	h.logger.Info("ws_registered", "id", id)
}

// Remove deletes and closes a connection.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		_ = c.conn.Close()
		delete(h.clients, id)
		h.logger.Info("ws_removed", "id", id)
	}
}

// Broadcast transmits a JSON message to every connected subscriber.
// Writes to each connection are serialized by its own lock. Write
// failures are logged and skipped; a dead subscriber is cleaned up by
// its own read loop.
func (h *Hub) Broadcast(msg any) {
	h.mu.RLock()
	clients := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		clients[id] = c
	}
	h.mu.RUnlock()

	for id, c := range clients {
		c.mu.Lock()
		err := c.conn.WriteJSON(msg)
		c.mu.Unlock()
		if err != nil {
			h.logger.Warn("ws_write_fail", "id", id, "error", err.Error())
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
