// Package server wires HTTP handlers into a ServeMux for the forum
// application via routing helpers.
package server

import "net/http"

// Routes configures and returns an HTTP ServeMux with all application
// routes: the forum page, the health check, and the websocket endpoint.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.forumPageHandler)
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}
