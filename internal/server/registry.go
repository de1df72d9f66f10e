// Package server tracks which display names are currently online by mapping
// live connection IDs to the names their users joined with.
package server

import "github.com/samber/lo"

type sessionEntry struct {
	connID string
	name   string
}

// SessionRegistry is the source of truth for presence. Entries keep their
// insertion position so the presence list is deterministic within a process;
// re-joining replaces the name in place rather than moving the entry.
// Like HistoryBuffer, the registry carries no lock of its own: the Room
// serializes all access.
type SessionRegistry struct {
	entries []sessionEntry
	index   map[string]int
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{index: make(map[string]int)}
}

// Register binds a display name to a connection, overwriting any previous
// name for the same connection. The name is stored verbatim: empty strings
// and duplicates of names held by other connections are allowed.
func (r *SessionRegistry) Register(connID, name string) {
	if i, ok := r.index[connID]; ok {
		r.entries[i].name = name
		return
	}
	r.index[connID] = len(r.entries)
	r.entries = append(r.entries, sessionEntry{connID: connID, name: name})
}

// Unregister removes the session for a connection and reports the name it
// held. A connection that never joined yields ("", false) and is a no-op.
func (r *SessionRegistry) Unregister(connID string) (string, bool) {
	i, ok := r.index[connID]
	if !ok {
		return "", false
	}
	name := r.entries[i].name
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, connID)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].connID] = j
	}
	return name, true
}

// Snapshot returns the current display names in registration order.
// The slice is a fresh copy and never nil, so it encodes as a JSON array.
func (r *SessionRegistry) Snapshot() []string {
	return lo.Map(r.entries, func(e sessionEntry, _ int) string {
		return e.name
	})
}

// Len reports the number of joined sessions.
func (r *SessionRegistry) Len() int {
	return len(r.entries)
}
