// Package server constructs and starts the forum HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Service bundles the hub and room for one forum instance. Tests construct a
// fresh Service per scenario so history and presence never leak between runs.
type Service struct {
	hub  *Hub
	room *Room
	log  *slog.Logger
}

// NewService applies the configuration and wires a hub and room together.
func NewService(cfg *Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	SetConfig(cfg)

	hub := NewHub(log)
	room := NewRoom(hub, currentConfig().HistoryLimit, log)
	hub.Bind(room)

	return &Service{hub: hub, room: room, log: log}
}

// Start launches the hub event loop. It must be called before the HTTP
// server begins accepting websocket upgrades.
func (s *Service) Start() {
	go s.hub.Run()
	s.log.Info("hub started and ready to manage websocket connections")
}

// Shutdown drains the hub, closing every client connection.
func (s *Service) Shutdown(timeout time.Duration) error {
	return s.hub.Shutdown(timeout)
}

// CreateServer creates and configures an HTTP server with the specified port
// and handler. It sets reasonable timeout values for production use.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// StartServer starts the HTTP server and begins listening for connections.
func StartServer(server *http.Server) error {
	slog.Info("server listening", "addr", server.Addr)
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting
// active connections, waiting until they close or the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	slog.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}

	slog.Info("HTTP server shutdown completed")
	return nil
}
