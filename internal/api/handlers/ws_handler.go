package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"driftmarket/server/internal/hub"
)

const writeTimeout = 10 * time.Second

// WSHandler upgrades connections and bridges them onto the broadcast hub.
// One observer per connection; the hub owns delivery semantics, the handler
// only pumps.
type WSHandler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(eventHub *hub.Hub) *WSHandler {
	return &WSHandler{
		hub: eventHub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the SPA origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /ws
func (h *WSHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	obs := h.hub.Subscribe()
	go h.writePump(conn, obs)
	h.readPump(conn, obs)
}

// writePump forwards hub events onto the socket until the observer channel
// closes (unsubscribed or dropped) or a write fails.
func (h *WSHandler) writePump(conn *websocket.Conn, obs *hub.Observer) {
	defer conn.Close()

	for event := range obs.Events() {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.hub.Unsubscribe(obs)
			// Drain so a concurrent publish never sees a full buffer for a
			// connection that is already gone.
			for range obs.Events() {
			}
			return
		}
	}
}

// readPump discards inbound frames; its job is to notice the peer going
// away and detach the observer.
func (h *WSHandler) readPump(conn *websocket.Conn, obs *hub.Observer) {
	defer func() {
		h.hub.Unsubscribe(obs)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
