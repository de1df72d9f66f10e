// Package server exposes HTTP handlers, including websocket upgrades, health
// checks, and the built-in forum page.
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// handleWebSocket upgrades an HTTP request to a websocket connection,
// assigns it a connection ID, and registers it with the hub. The hub replays
// history and starts the read/write pumps.
func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, s.hub, s.room, r.RemoteAddr, s.log)
	s.hub.register <- client
}

// HealthHandler provides a simple health check endpoint that reports server
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Forum server is running!")
}

// forumPageHandler serves the built-in forum client page. The page is a
// convenience for trying the server out; the websocket protocol is the
// actual contract.
func (s *Service) forumPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, forumPage); err != nil {
		s.log.Error("error writing HTML response", "error", err)
	}
}
