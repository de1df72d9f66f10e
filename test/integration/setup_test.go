// Package integration contains end-to-end tests that exercise the forum
// server over real websocket connections.
package integration

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olabs-io/forum-server/internal/server"
	"github.com/olabs-io/forum-server/test/testhelpers"
)

// testForum is one fully wired forum instance listening on an ephemeral port.
type testForum struct {
	svc   *server.Service
	ts    *httptest.Server
	wsURL string
}

// newTestForum starts a fresh service and HTTP server for a single test, so
// history and presence never leak between scenarios. The httptest URL is
// added to the allowed origins once it is known.
func newTestForum(t *testing.T, mutate func(cfg *server.Config)) *testForum {
	t.Helper()

	cfg := server.NewConfig()
	if mutate != nil {
		mutate(cfg)
	}

	svc := server.NewService(cfg, testhelpers.QuietLogger())
	svc.Start()

	ts := httptest.NewServer(svc.Routes())
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Shutdown(2 * time.Second)
	})

	allowed := *cfg
	allowed.AllowedOrigins = append(append([]string(nil), cfg.AllowedOrigins...), ts.URL)
	server.SetConfig(&allowed)
	t.Cleanup(func() { server.SetConfig(nil) })

	return &testForum{svc: svc, ts: ts, wsURL: testhelpers.WebSocketURL(ts.URL)}
}

// connect dials the forum and consumes the initial chat_history frame. By
// the time the history has been read, the connection is fully registered and
// will observe every subsequent broadcast.
func (f *testForum) connect(t *testing.T) (*websocket.Conn, []server.ChatMessage) {
	t.Helper()
	conn := testhelpers.Dial(t, f.wsURL, f.ts.URL)
	env := testhelpers.ExpectEvent(t, conn, server.EventChatHistory)
	return conn, testhelpers.DecodeHistory(t, env)
}
