// Package realtime pushes per-session turn projections to connected clients
// (the Unity WebGL front end) over websocket. The hub is write-only: clients
// subscribe to a session and receive each new TurnView; choices still travel
// through the HTTP API.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// cross-origin policy is enforced by the CORS layer in front
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe upgrades the request and attaches the connection to a session
// stream until the peer disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.sessions[sessionID][conn] = true
	h.mu.Unlock()

	// drain reads so close/ping frames are handled; drop on error
	go func() {
		defer h.drop(sessionID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// Broadcast sends one payload to every subscriber of a session. Slow or
// broken connections are dropped rather than blocking the sender.
func (h *Hub) Broadcast(sessionID string, payload interface{}) {
	if h == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[REALTIME] marshal broadcast for %s: %v", sessionID, err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.sessions[sessionID]))
	for conn := range h.sessions[sessionID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			h.drop(sessionID, conn)
		}
	}
}

func (h *Hub) drop(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	if subs, ok := h.sessions[sessionID]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.sessions, sessionID)
		}
	}
	h.mu.Unlock()
	conn.Close()
}
