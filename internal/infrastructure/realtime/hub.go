// Package realtime fans change notices out to agents connected over websocket.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/shared"
)

const (
	sendBuffer   = 32
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
)

// Hub tracks connected feed clients and broadcasts notices to all of them
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// agents authenticate with a bearer token, not cookies
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request and attaches the connection until it closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, userID)
	h.attach(c)
	go c.writePump()
	c.readPump()
	return nil
}

// Broadcast sends the notice to every client. Clients whose buffer is full are dropped.
func (h *Hub) Broadcast(_ context.Context, notice shared.ChangeNotice) {
	data, err := json.Marshal(notice)
	if err != nil {
		h.logger.Error("broadcast marshal error", zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("feed client too slow, disconnecting", zap.String("user_id", c.userID))
		h.detach(c)
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("feed client connected", zap.String("user_id", c.userID))
}

// detach removes the client and closes it. The send channel is only closed
// under the write lock so Broadcast never sends on a closed channel.
func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	c.close()
	h.mu.Unlock()
	if ok {
		h.logger.Debug("feed client disconnected", zap.String("user_id", c.userID))
	}
}
