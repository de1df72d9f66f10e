// Package server defines the wire protocol types shared between the
// forum clients and the broadcast room.
package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Inbound event names accepted from clients.
const (
	EventUserJoin    = "user_join"
	EventChatMessage = "chat_message"
)

// Outbound event names emitted to clients.
const (
	EventChatHistory   = "chat_history"
	EventUserList      = "user_list"
	EventSystemMessage = "system_message"
)

// Envelope is the framing for every event exchanged over a connection:
// a named event plus its JSON payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// ChatMessage is a single forum message. Author and timestamp are supplied
// by the sending client and passed through verbatim; the timestamp is an
// ISO-8601 string and is never parsed server-side.
type ChatMessage struct {
	Text      string `json:"text" validate:"required"`
	Author    string `json:"author" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required"`
}

var validate = validator.New()

// parseEnvelope decodes a raw inbound frame into an Envelope.
func parseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("envelope missing event name")
	}
	return env, nil
}

// parseChatMessage decodes and validates a chat_message payload. Messages
// missing any of text, author, or timestamp are rejected here so the room
// never sees a partially formed message.
func parseChatMessage(payload json.RawMessage) (ChatMessage, error) {
	var msg ChatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ChatMessage{}, fmt.Errorf("malformed chat_message payload: %w", err)
	}
	if err := validate.Struct(msg); err != nil {
		return ChatMessage{}, fmt.Errorf("invalid chat_message payload: %w", err)
	}
	return msg, nil
}

// parseJoinName decodes a user_join payload. The payload must be a JSON
// string but the name itself is not validated: empty and duplicate display
// names are allowed by the protocol.
func parseJoinName(payload json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(payload, &name); err != nil {
		return "", fmt.Errorf("malformed user_join payload: %w", err)
	}
	return name, nil
}

// encodeEvent frames an outbound event for delivery.
func encodeEvent(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
