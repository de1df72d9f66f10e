// Package server coordinates client registration, event delivery, and
// connection cleanup for the forum via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Hub manages all websocket connections and implements the Emitter used by
// the Room for fan-out. It maintains client registration/unregistration and
// ensures thread-safe operations through mutex protection. Delivery to one
// client is isolated from the others: a recipient whose send buffer is full
// is dropped without affecting the rest of a broadcast.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	room       *Room
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	log        *slog.Logger
}

// NewHub creates a Hub ready to manage connections. The room is attached
// afterwards with Bind, since the room itself broadcasts through the hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        log,
	}
}

// Bind attaches the room whose lifecycle handlers the hub invokes on
// connect and disconnect. Must be called before Run.
func (h *Hub) Bind(room *Room) {
	h.room = room
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. It should be called in a separate goroutine as it runs
// until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("received nil client registration; skipping")
				continue
			}

			// Attaching and replaying history under the room lock keeps a
			// concurrent broadcast from landing ahead of the chat_history
			// frame; the pumps start only after both are done.
			h.room.HandleConnect(client.id, func() {
				h.mutex.Lock()
				h.clients[client.id] = client
				h.mutex.Unlock()
			})
			h.log.Info("client registered", "conn", client.id, "addr", client.addr)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			_, present := h.clients[client.id]
			if present {
				delete(h.clients, client.id)
				client.closed = true
			}
			clientCount := len(h.clients)
			h.mutex.Unlock()
			if present {
				// Close the channel after releasing the lock
				close(client.send)
				h.log.Info("client unregistered", "conn", client.id, "addr", client.addr, "total", clientCount)
			}
			// Always raised, even when removeFailedClients already dropped
			// the client: its read pump keeps dispatching until the socket
			// closes, and a user_join landing in that window would otherwise
			// leave a ghost presence entry behind. HandleDisconnect is a
			// no-op for connections the room no longer knows.
			h.room.HandleDisconnect(client.id)
		}
	}
}

// SendTo delivers an event to a single connection.
func (h *Hub) SendTo(connID, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		h.log.Error("dropping event", "event", event, "error", err)
		return
	}

	h.mutex.RLock()
	client := h.clients[connID]
	h.mutex.RUnlock()
	if client == nil {
		return
	}

	if !h.safeSend(client, data) {
		h.removeFailedClients([]*Client{client})
	}
}

// BroadcastAll delivers an event to every connected client.
func (h *Hub) BroadcastAll(event string, payload any) {
	h.broadcast("", event, payload)
}

// BroadcastExcept delivers an event to every connected client except one,
// typically the originator of the event.
func (h *Hub) BroadcastExcept(connID, event string, payload any) {
	h.broadcast(connID, event, payload)
}

func (h *Hub) broadcast(exceptID, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		h.log.Error("dropping broadcast", "event", event, "error", err)
		return
	}

	var failed []*Client
	for _, client := range h.clientSnapshot() {
		if exceptID != "" && client.id == exceptID {
			continue
		}
		if !h.safeSend(client, data) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("recovered from panic in safeSend", "panic", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client.id]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// clientSnapshot returns a thread-safe snapshot of all current clients.
func (h *Hub) clientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// removeFailedClients drops clients whose send buffer was full. The leave
// notice is raised on a fresh goroutine: removal can happen mid-broadcast
// while the room lock is held, so the disconnect must not re-enter it.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var removed []*Client
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client.id]; exists {
			delete(h.clients, client.id)
			client.closed = true
			removed = append(removed, client)
			h.log.Warn("client removed due to full send buffer", "conn", client.id, "addr", client.addr)
		}
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock
	for _, client := range removed {
		close(client.send)
		go h.room.HandleDisconnect(client.id)
	}
}

// shutdownClients gracefully closes all active client connections.
func (h *Hub) shutdownClients() {
	h.log.Info("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					h.log.Error("error closing client connection", "conn", client.id, "error", err)
				}
			}
		}
	}

	h.log.Info("closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all
// goroutines to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	h.cancel()

	// Wait for Run() to complete
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
