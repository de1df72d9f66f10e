// Package testhelpers provides common utilities for testing the forum server.
//
// It contains reusable helpers shared across unit and integration tests:
// dialing websocket connections with a valid origin, framing and decoding
// protocol events, and asserting on delivery or silence, to reduce
// duplication in test files.
package testhelpers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"

	"github.com/olabs-io/forum-server/internal/server"
)

type helperConfig struct {
	// FORUM_TEST_COLOURS enables colorized scenario headers in test logs.
	Colours bool `envconfig:"FORUM_TEST_COLOURS" default:"true"`
}

var (
	cfgOnce sync.Once
	cfg     helperConfig
)

func loadConfig() helperConfig {
	cfgOnce.Do(func() {
		if err := envconfig.Process("", &cfg); err != nil {
			cfg = helperConfig{Colours: true}
		}
	})
	return cfg
}

// Section prints a colorized header for a scenario step in test logs.
func Section(t *testing.T, name string) {
	t.Helper()
	header := fmt.Sprintf("  ====== %s ======", name)
	if loadConfig().Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// QuietLogger returns a logger that discards everything, keeping test output
// readable.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WebSocketURL converts an httptest server base URL into the websocket
// endpoint URL.
func WebSocketURL(baseURL string) string {
	return "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
}

// Dial opens a websocket connection to wsURL presenting origin in the
// handshake. The returned connection is closed via t.Cleanup.
func Dial(t *testing.T, wsURL, origin string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", origin)

	conn, resp, err := dialer.Dial(wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendJoin emits a user_join event with the given display name.
func SendJoin(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()
	sendEvent(t, conn, server.EventUserJoin, name)
}

// SendChat emits a chat_message event.
func SendChat(t *testing.T, conn *websocket.Conn, text, author, timestamp string) {
	t.Helper()
	sendEvent(t, conn, server.EventChatMessage, server.ChatMessage{
		Text:      text,
		Author:    author,
		Timestamp: timestamp,
	})
}

// SendRaw writes an arbitrary text frame, bypassing protocol framing.
func SendRaw(t *testing.T, conn *websocket.Conn, data []byte) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("Failed to write raw frame: %v", err)
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal %s payload: %v", event, err)
	}
	if err := conn.WriteJSON(server.Envelope{Event: event, Payload: raw}); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// ReadEnvelope reads the next frame and decodes it as an Envelope, failing
// the test if nothing arrives within the timeout.
func ReadEnvelope(t *testing.T, conn *websocket.Conn, timeout time.Duration) server.Envelope {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	var env server.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("Failed to read envelope: %v", err)
	}
	return env
}

// ExpectEvent reads the next frame and asserts its event name.
func ExpectEvent(t *testing.T, conn *websocket.Conn, event string) server.Envelope {
	t.Helper()

	env := ReadEnvelope(t, conn, 2*time.Second)
	if env.Event != event {
		t.Fatalf("Expected event %q, got %q (payload %s)", event, env.Event, env.Payload)
	}
	return env
}

// ExpectSilence asserts that no frame arrives within the window.
func ExpectSilence(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(window)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, received %s", data)
	}
	if !strings.Contains(err.Error(), "timeout") && !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("Expected read timeout, got %v", err)
	}
}

// DecodeHistory unpacks a chat_history payload.
func DecodeHistory(t *testing.T, env server.Envelope) []server.ChatMessage {
	t.Helper()
	var history []server.ChatMessage
	if err := json.Unmarshal(env.Payload, &history); err != nil {
		t.Fatalf("Failed to decode chat_history payload: %v", err)
	}
	return history
}

// DecodeChatMessage unpacks a chat_message payload.
func DecodeChatMessage(t *testing.T, env server.Envelope) server.ChatMessage {
	t.Helper()
	var msg server.ChatMessage
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		t.Fatalf("Failed to decode chat_message payload: %v", err)
	}
	return msg
}

// DecodeUserList unpacks a user_list payload.
func DecodeUserList(t *testing.T, env server.Envelope) []string {
	t.Helper()
	var users []string
	if err := json.Unmarshal(env.Payload, &users); err != nil {
		t.Fatalf("Failed to decode user_list payload: %v", err)
	}
	return users
}

// DecodeSystemMessage unpacks a system_message payload.
func DecodeSystemMessage(t *testing.T, env server.Envelope) string {
	t.Helper()
	var text string
	if err := json.Unmarshal(env.Payload, &text); err != nil {
		t.Fatalf("Failed to decode system_message payload: %v", err)
	}
	return text
}
