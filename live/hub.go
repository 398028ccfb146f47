// Package live pushes leaderboard and result updates to connected clients
// over WebSocket. Rooms are keyed by pool slug.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const (
	MessageLeaderboardUpdated = "LEADERBOARD_UPDATED"
	MessageResultPosted       = "RESULT_POSTED"
)

type Message struct {
	Type     string      `json:"type"`
	Payload  interface{} `json:"payload"`
	PoolSlug string      `json:"pool_slug,omitempty"`
}

type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[string]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if _, registered := clients[client]; registered {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToPool sends a message to every client watching the pool.
// Slow clients are skipped rather than blocking the broadcast.
func (h *Hub) BroadcastToPool(poolSlug string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[poolSlug]
	if !ok {
		return
	}

	msg.PoolSlug = poolSlug
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("pool", poolSlug), slog.Any("error", err))
		return
	}

	for client := range clients {
		client.trySend(data)
	}
}
