// Package server coordinates the forum's join/leave lifecycle, message
// history, and broadcast fan-out through the Room type.
package server

import (
	"fmt"
	"log/slog"
	"sync"
)

// Emitter delivers framed events to connected clients. The Hub implements it
// over websocket connections; tests substitute a recording fake so the room's
// protocol logic can be exercised without a transport.
type Emitter interface {
	SendTo(connID, event string, payload any)
	BroadcastAll(event string, payload any)
	BroadcastExcept(connID, event string, payload any)
}

// Room is the coordinator for the single global forum. It owns the session
// registry and history buffer exclusively and serializes every event through
// one mutex, so all clients observe the same total order of messages and
// presence changes.
type Room struct {
	mu       sync.Mutex
	sessions *SessionRegistry
	history  *HistoryBuffer
	emitter  Emitter
	log      *slog.Logger
}

// NewRoom creates a room broadcasting through the given emitter and
// retaining at most historyLimit messages.
func NewRoom(emitter Emitter, historyLimit int, log *slog.Logger) *Room {
	if log == nil {
		log = slog.Default()
	}
	return &Room{
		sessions: NewSessionRegistry(),
		history:  NewHistoryBuffer(historyLimit),
		emitter:  emitter,
		log:      log,
	}
}

// HandleConnect replays the current history to a newly opened connection.
// The optional attach callback runs under the room lock just before the
// replay; the hub uses it to make the client visible to broadcasts, so no
// concurrently broadcast message can precede the chat_history frame.
func (r *Room) HandleConnect(connID string, attach func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if attach != nil {
		attach()
	}
	r.emitter.SendTo(connID, EventChatHistory, r.history.Snapshot())
	r.log.Info("new connection", "conn", connID)
}

// HandleJoin records the chosen display name, announces the arrival to
// everyone else, and sends the refreshed presence list to everyone including
// the joiner. Joining again silently overwrites the previous name.
func (r *Room) HandleJoin(connID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions.Register(connID, name)
	r.emitter.BroadcastExcept(connID, EventSystemMessage, fmt.Sprintf("%s has joined the forum", name))
	r.emitter.BroadcastAll(EventUserList, r.sessions.Snapshot())
	r.log.Info("user joined", "conn", connID, "name", name)
}

// HandleChat appends the message to history, evicting the oldest entry when
// the buffer is full, and echoes it to every connection including the sender.
func (r *Room) HandleChat(connID string, msg ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history.Append(msg)
	r.emitter.BroadcastAll(EventChatMessage, msg)
	r.log.Info("chat message", "conn", connID, "author", msg.Author)
}

// HandleDisconnect removes the connection's session if it ever joined and
// tells the remaining clients. Disconnects of connections that never joined
// produce no broadcasts, and repeated disconnects are harmless no-ops.
func (r *Room) HandleDisconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.sessions.Unregister(connID)
	if !ok {
		return
	}
	r.emitter.BroadcastAll(EventSystemMessage, fmt.Sprintf("%s has left the forum", name))
	r.emitter.BroadcastAll(EventUserList, r.sessions.Snapshot())
	r.log.Info("user left", "conn", connID, "name", name)
}
