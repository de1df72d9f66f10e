// Package server implements the core HTTP and websocket functionality for
// the community forum.
//
// The implementation is organized into specialized files for configuration,
// the broadcast room, session registry, history buffer, hub management,
// clients, routing, and HTTP handlers to keep the codebase maintainable and
// testable as the project grows.
package server
