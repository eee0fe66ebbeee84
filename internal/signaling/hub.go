package signaling

import (
	"encoding/json"
	"log"
	"sync"
)

// PresenceSink receives room membership changes so they can be mirrored into
// an external store (the live peer sets in Redis). May be nil.
type PresenceSink interface {
	PeerJoined(roomID, connID string)
	PeerLeft(roomID, connID string)
}

// peerContext is the per-connection state recorded at join time: which room
// the connection belongs to and the identity it asserted. It lives in a side
// table on the hub rather than on the connection itself.
type peerContext struct {
	roomID string
	userID string
	role   Role
}

// Hub dispatches inbound events to the room state held in its Registry and
// owns the connection tables. One hub per process, injected wherever live
// session state is needed.
type Hub struct {
	registry *Registry
	presence PresenceSink

	mu       sync.RWMutex
	clients  map[string]*Client
	contexts map[string]peerContext
}

func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry: registry,
		clients:  make(map[string]*Client),
		contexts: make(map[string]peerContext),
	}
}

// SetPresenceSink wires an optional mirror for join/leave events. Call before
// the hub starts serving connections.
func (h *Hub) SetPresenceSink(sink PresenceSink) {
	h.presence = sink
}

// Registry exposes the room registry to collaborators that only read state,
// like the chat-history endpoint.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Register adds a connection to the hub's client table. The connection is
// not in any room until it sends join-room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	log.Printf("Peer connected: %s", c.ID)
}

// client resolves a connection id to its live client, if still connected.
func (h *Hub) client(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	return c, ok
}

// context returns the join-time context for a connection, if it has joined.
func (h *Hub) context(connID string) (peerContext, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pc, ok := h.contexts[connID]
	return pc, ok
}

// route dispatches one inbound envelope. Unknown events and malformed
// payloads are logged and dropped; a bad message never affects other peers.
func (h *Hub) route(c *Client, env Envelope) {
	switch env.Event {
	case EventJoinRoom:
		var data JoinRoomData
		if !decode(c, env, &data) {
			return
		}
		h.handleJoin(c, data)

	case EventSendOffer, EventSendAnswer, EventSendICECandidate:
		var data SignalData
		if !decode(c, env, &data) {
			return
		}
		h.handleSignal(c, env.Event, data)

	case EventMuteToggle:
		var data MuteToggleData
		if !decode(c, env, &data) {
			return
		}
		h.handleMuteToggle(c, data)

	case EventCameraToggle:
		var data CameraToggleData
		if !decode(c, env, &data) {
			return
		}
		h.handleCameraToggle(c, data)

	case EventScreenShareStarted, EventScreenShareStopped:
		h.handleScreenShare(c, env.Event)

	case EventToggleChat:
		var data ToggleChatData
		if !decode(c, env, &data) {
			return
		}
		h.handleToggleChat(c, data)

	case EventSendChat:
		var data SendChatData
		if !decode(c, env, &data) {
			return
		}
		h.handleSendChat(c, data)

	case EventCheckHost:
		var data CheckHostData
		if !decode(c, env, &data) {
			return
		}
		h.handleCheckHost(c, data)

	default:
		log.Printf("Unknown event %q from peer %s", env.Event, c.ID)
	}
}

func decode(c *Client, env Envelope, out any) bool {
	if len(env.Data) == 0 {
		// Treat a missing payload as the zero value; handlers tolerate
		// empty identifiers.
		return true
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Printf("Failed to parse %s payload from peer %s: %v", env.Event, c.ID, err)
		return false
	}
	return true
}

// broadcast sends an event to every member of a room, optionally excluding
// one connection.
func (h *Hub) broadcast(room *Room, exclude, event string, data any) {
	h.notify(room.members(exclude), event, data)
}

// notify delivers an event to a membership snapshot. Members whose
// connection has already gone away are skipped.
func (h *Hub) notify(members []PeerIdentity, event string, data any) {
	for _, member := range members {
		if c, ok := h.client(member.ConnectionID); ok {
			c.enqueue(event, data)
		}
	}
}

// sendTo delivers an event to one connection id. Stale targets are a silent
// no-op; the sender cannot act on the failure anyway.
func (h *Hub) sendTo(connID, event string, data any) {
	if c, ok := h.client(connID); ok {
		c.enqueue(event, data)
	}
}

// HostPresent reports whether roomID currently has a live host. An absent
// room has none.
func (h *Hub) HostPresent(roomID string) bool {
	room, ok := h.registry.Get(roomID)
	return ok && room.HostID() != ""
}

// History returns the chat history of roomID, oldest first. Absent rooms
// yield an empty slice.
func (h *Hub) History(roomID string) []ChatMessage {
	room, ok := h.registry.Get(roomID)
	if !ok {
		return []ChatMessage{}
	}
	return room.History()
}

func (h *Hub) handleCheckHost(c *Client, data CheckHostData) {
	c.enqueue(EventHostPresent, HostPresentData{HostPresent: h.HostPresent(data.RoomID)})
}
