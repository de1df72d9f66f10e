// Package server implements the bounded in-memory message history that is
// replayed to newly connecting clients.
package server

// DefaultHistoryLimit is the number of messages retained when no explicit
// limit is configured.
const DefaultHistoryLimit = 100

// HistoryBuffer holds the most recent chat messages in arrival order.
// When full, appending evicts the oldest message. The buffer is not
// safe for concurrent use on its own; the Room serializes all access.
type HistoryBuffer struct {
	limit    int
	messages []ChatMessage
}

// NewHistoryBuffer creates an empty buffer retaining at most limit messages.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewHistoryBuffer(limit int) *HistoryBuffer {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryBuffer{limit: limit}
}

// Append adds a message to the tail, evicting the oldest message first if
// the buffer is already full. The length never exceeds the limit.
func (b *HistoryBuffer) Append(msg ChatMessage) {
	if len(b.messages) >= b.limit {
		b.messages = b.messages[1:]
	}
	b.messages = append(b.messages, msg)
}

// Snapshot returns a copy of the buffered messages in chronological order.
// The copy is safe to hand to an encoder while later appends occur. An
// empty buffer yields an empty, non-nil slice so it encodes as a JSON
// array rather than null.
func (b *HistoryBuffer) Snapshot() []ChatMessage {
	out := make([]ChatMessage, len(b.messages))
	copy(out, b.messages)
	return out
}

// Len reports the number of buffered messages.
func (b *HistoryBuffer) Len() int {
	return len(b.messages)
}
