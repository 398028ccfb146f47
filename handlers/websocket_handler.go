package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/caduhr/bolao-system/live"
	"github.com/caduhr/bolao-system/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub         *live.Hub
	poolService services.PoolService
}

func NewWebSocketHandler(hub *live.Hub, poolService services.PoolService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		poolService: poolService,
	}
}

// ServeWs subscribes the client to live updates for one pool.
// Clients connect to /ws/pools/{slug}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		badRequestResponse(w, r, errors.New("pool slug is required"))
		return
	}

	if _, err := h.poolService.GetBySlug(r.Context(), slug); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		slog.Warn("websocket upgrade failed", slog.String("pool", slug), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: slug,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
