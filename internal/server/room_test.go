package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// emitted records one delivery performed through the Emitter interface.
type emitted struct {
	scope  string // "to", "all", or "except"
	connID string // target for "to", excluded sender for "except"
	event  string
	payload any
}

// recordingEmitter captures deliveries so room protocol logic can be
// verified without a transport.
type recordingEmitter struct {
	events []emitted
}

func (e *recordingEmitter) SendTo(connID, event string, payload any) {
	e.events = append(e.events, emitted{scope: "to", connID: connID, event: event, payload: payload})
}

func (e *recordingEmitter) BroadcastAll(event string, payload any) {
	e.events = append(e.events, emitted{scope: "all", event: event, payload: payload})
}

func (e *recordingEmitter) BroadcastExcept(connID, event string, payload any) {
	e.events = append(e.events, emitted{scope: "except", connID: connID, event: event, payload: payload})
}

func (e *recordingEmitter) reset() {
	e.events = nil
}

func newTestRoom() (*Room, *recordingEmitter) {
	emitter := &recordingEmitter{}
	return NewRoom(emitter, DefaultHistoryLimit, nil), emitter
}

func TestRoom_Connect_Sends_History_Only_To_New_Connection(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()

	// When a connection opens
	room.HandleConnect("conn-a", nil)

	// Then exactly one targeted chat_history delivery happens
	req.Len(emitter.events, 1)
	req.Equal("to", emitter.events[0].scope)
	req.Equal("conn-a", emitter.events[0].connID)
	req.Equal(EventChatHistory, emitter.events[0].event)
	req.Empty(emitter.events[0].payload.([]ChatMessage))
}

func TestRoom_Connect_Replays_Existing_History(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()

	// Given some prior messages
	room.HandleChat("conn-a", ChatMessage{Text: "hi", Author: "alice", Timestamp: "T1"})
	room.HandleChat("conn-a", ChatMessage{Text: "again", Author: "alice", Timestamp: "T2"})
	emitter.reset()

	// When a fresh connection opens
	room.HandleConnect("conn-b", nil)

	// Then it receives both messages in chronological order
	req.Len(emitter.events, 1)
	history := emitter.events[0].payload.([]ChatMessage)
	req.Len(history, 2)
	req.Equal("hi", history[0].Text)
	req.Equal("again", history[1].Text)
}

func TestRoom_Join_Excludes_Joiner_From_Notice(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()

	// When a connection joins with a display name
	room.HandleJoin("conn-a", "alice")

	// Then the system notice goes to everyone except the joiner
	req.Len(emitter.events, 2)
	req.Equal("except", emitter.events[0].scope)
	req.Equal("conn-a", emitter.events[0].connID)
	req.Equal(EventSystemMessage, emitter.events[0].event)
	req.Equal("alice has joined the forum", emitter.events[0].payload)

	// And the presence list goes to everyone including the joiner
	req.Equal("all", emitter.events[1].scope)
	req.Equal(EventUserList, emitter.events[1].event)
	req.Equal([]string{"alice"}, emitter.events[1].payload)
}

func TestRoom_ReJoin_Overwrites_Silently(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()
	room.HandleJoin("conn-a", "alice")
	emitter.reset()

	// When the same connection joins again under a different name
	room.HandleJoin("conn-a", "alicia")

	// Then only the latest name appears; there is no rename notice
	req.Len(emitter.events, 2)
	req.Equal("alicia has joined the forum", emitter.events[0].payload)
	req.Equal([]string{"alicia"}, emitter.events[1].payload)
}

func TestRoom_Chat_Echoes_To_Everyone_Including_Sender(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()
	room.HandleJoin("conn-a", "alice")
	emitter.reset()

	// When a chat message arrives
	msg := ChatMessage{Text: "hi", Author: "alice", Timestamp: "2025-01-01T00:00:00Z"}
	room.HandleChat("conn-a", msg)

	// Then it is broadcast to all connections, sender included
	req.Len(emitter.events, 1)
	req.Equal("all", emitter.events[0].scope)
	req.Equal(EventChatMessage, emitter.events[0].event)
	req.Equal(msg, emitter.events[0].payload)
}

func TestRoom_Chat_Is_Appended_To_History(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()

	room.HandleChat("conn-a", ChatMessage{Text: "hi", Author: "alice", Timestamp: "T"})
	emitter.reset()

	room.HandleConnect("conn-b", nil)
	history := emitter.events[0].payload.([]ChatMessage)
	req.Len(history, 1)
	req.Equal("hi", history[0].Text)
}

func TestRoom_Disconnect_After_Join_Broadcasts_Notice_And_Presence(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()
	room.HandleJoin("conn-a", "alice")
	room.HandleJoin("conn-b", "bob")
	emitter.reset()

	// When a joined connection disconnects
	room.HandleDisconnect("conn-b")

	// Then exactly one leave notice and one presence update go to everyone
	req.Len(emitter.events, 2)
	req.Equal("all", emitter.events[0].scope)
	req.Equal(EventSystemMessage, emitter.events[0].event)
	req.Equal("bob has left the forum", emitter.events[0].payload)
	req.Equal("all", emitter.events[1].scope)
	req.Equal(EventUserList, emitter.events[1].event)
	req.Equal([]string{"alice"}, emitter.events[1].payload)
}

func TestRoom_Disconnect_Without_Join_Is_Silent(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()
	room.HandleConnect("conn-a", nil)
	emitter.reset()

	// When a connection that never joined disconnects
	room.HandleDisconnect("conn-a")

	// Then nothing is broadcast
	req.Empty(emitter.events)
}

func TestRoom_Disconnect_Twice_Is_A_Noop(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()
	room.HandleJoin("conn-a", "alice")
	room.HandleDisconnect("conn-a")
	emitter.reset()

	// Late events for a torn-down connection must be tolerated
	room.HandleDisconnect("conn-a")

	req.Empty(emitter.events)
}

func TestRoom_Example_Scenario(t *testing.T) {
	req := require.New(t)
	room, emitter := newTestRoom()

	// Given connections A and B open in order
	room.HandleConnect("conn-a", nil)
	room.HandleConnect("conn-b", nil)
	emitter.reset()

	// When A joins as alice
	room.HandleJoin("conn-a", "alice")

	req.Len(emitter.events, 2)
	req.Equal(emitted{scope: "except", connID: "conn-a", event: EventSystemMessage,
		payload: "alice has joined the forum"}, emitter.events[0])
	req.Equal(emitted{scope: "all", event: EventUserList,
		payload: []string{"alice"}}, emitter.events[1])
	emitter.reset()

	// And A sends a message
	msg := ChatMessage{Text: "hi", Author: "alice", Timestamp: "2025-01-01T10:00:00Z"}
	room.HandleChat("conn-a", msg)

	req.Len(emitter.events, 1)
	req.Equal(emitted{scope: "all", event: EventChatMessage, payload: msg}, emitter.events[0])
	emitter.reset()

	// And B disconnects without ever joining
	room.HandleDisconnect("conn-b")

	// Then no events fire
	req.Empty(emitter.events)
}
