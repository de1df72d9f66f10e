// Package server manages individual websocket clients, handling read/write
// pumps, inbound event dispatch, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents one live forum connection. It carries the connection ID
// assigned at upgrade time, the websocket itself, and the buffered send
// channel drained by the write pump.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	room           *Room
	addr           string
	closed         bool
	maxMessageSize int64
	log            *slog.Logger
}

// NewClient creates a Client for an upgraded connection. The send channel is
// buffered so broadcasts never block on a single slow connection.
func NewClient(id string, conn *websocket.Conn, hub *Hub, room *Room, addr string, log *slog.Logger) *Client {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            hub,
		room:           room,
		addr:           addr,
		closed:         false,
		maxMessageSize: cfg.MaxMessageSize,
		log:            log.With("conn", id, "addr", addr),
	}
}

// setupReadConnection configures read deadlines and pong handler for the connection.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.log.Error("error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.log.Error("error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// logReadError records why the read loop is ending. Any read error is fatal
// to the connection; only the log level and message differ by cause.
func (c *Client) logReadError(err error) {
	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warn("message exceeded maximum size", "limit", c.maxMessageSize)
		return
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		c.log.Info("client disconnected", "reason", err)
		return
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.log.Info("connection closed", "reason", err)
		return
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		c.log.Warn("unexpected websocket error", "error", err)
		return
	}

	c.log.Warn("websocket read error", "error", err)
}

// dispatch decodes one inbound frame and routes it to the room. Malformed or
// unknown events are dropped with a diagnostic; one bad frame never
// terminates the connection or the room.
func (c *Client) dispatch(rawMessage []byte) {
	env, err := parseEnvelope(rawMessage)
	if err != nil {
		c.log.Warn("dropping inbound frame", "error", err)
		return
	}

	switch env.Event {
	case EventUserJoin:
		name, err := parseJoinName(env.Payload)
		if err != nil {
			c.log.Warn("dropping user_join", "error", err)
			return
		}
		c.room.HandleJoin(c.id, name)

	case EventChatMessage:
		msg, err := parseChatMessage(env.Payload)
		if err != nil {
			c.log.Warn("dropping chat_message", "error", err)
			return
		}
		c.room.HandleChat(c.id, msg)

	default:
		c.log.Warn("dropping unknown event", "event", env.Event)
	}
}

func (c *Client) readPump() {
	defer func() {
		// During hub shutdown nobody drains the unregister channel anymore.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				c.log.Error("error closing connection in readPump", "error", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			break
		}

		c.dispatch(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	case <-c.hub.ctx.Done():
		// Hub is shutting down; the unregister path will not run anymore.
		return c.writeCloseMessage()
	}
}

// closeConnection safely closes the websocket connection.
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Error("error closing connection in writePump", "error", err)
		}
	}
}

// handleMessage processes outgoing messages and returns false if the
// connection should be closed.
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		c.log.Error("error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Error("error writing message", "error", err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close frame to the client.
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Error("error writing close message", "error", err)
		}
	}
	return false
}

// handlePing sends a ping message to keep the connection alive.
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		c.log.Error("error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Error("error writing ping message", "error", err)
		}
		return false
	}
	return true
}
