package signaling

import "sync"

// maxChatHistory is the maximum number of chat messages retained per room.
// Oldest messages are evicted first once the cap is exceeded.
const maxChatHistory = 100

// Role distinguishes the privileged room host from ordinary participants.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// ParseRole maps a client-asserted role string onto a Role. Anything that is
// not exactly "host" joins as a participant.
func ParseRole(s string) Role {
	if s == string(RoleHost) {
		return RoleHost
	}
	return RoleParticipant
}

// PeerIdentity describes one joined connection within a room.
type PeerIdentity struct {
	ConnectionID string
	DisplayName  string
	Role         Role
}

// ChatMessage is one entry in a room's bounded chat history and the payload
// delivered on receive-chat.
type ChatMessage struct {
	From      string `json:"from"`
	Role      Role   `json:"role"`
	Message   string `json:"message"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
}

// Room holds the live session state for one roomId: membership, the host
// slot, the chat permission flag, and the bounded chat history. All fields
// are guarded by mu. Membership mutations go through Registry.Seat and
// Registry.Depart so that they are atomic with the registry's room map; when
// both locks are taken, the registry lock comes first.
type Room struct {
	ID string

	mu           sync.Mutex
	participants map[string]*PeerIdentity
	hostID       string
	chatEnabled  bool
	history      []ChatMessage
}

func newRoom(id string) *Room {
	return &Room{
		ID:           id,
		participants: make(map[string]*PeerIdentity),
		chatEnabled:  true,
	}
}

// members returns a snapshot of all joined identities, optionally excluding
// one connection.
func (r *Room) members(exclude string) []PeerIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]PeerIdentity, 0, len(r.participants))
	for id, p := range r.participants {
		if id == exclude {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// HostID returns the connection id currently holding the host slot, or "".
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// ChatEnabled reports the room's chat permission flag.
func (r *Room) ChatEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chatEnabled
}

// setChatEnabled flips the permission flag if the requester holds the host
// slot. Returns false when the requester is not the host (silent policy
// denial, nothing changes).
func (r *Room) setChatEnabled(requesterID string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID || r.hostID == "" {
		return false
	}
	r.chatEnabled = enabled
	return true
}

// History returns a copy of the room's chat history, oldest first.
func (r *Room) History() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ChatMessage, len(r.history))
	copy(out, r.history)
	return out
}

// seatResult is the picture of a room taken in the same critical section
// that seated a new peer: everything the join flow pushes to the joiner and
// to the rest of the room.
type seatResult struct {
	others      []PeerIdentity
	chatEnabled bool
	history     []ChatMessage
	hostID      string
}

// departure describes the outcome of removing a connection from a room.
type departure struct {
	ok        bool           // the connection was joined; notifications are due
	hostLeft  bool           // the departing connection held the host slot
	roomGone  bool           // the room was removed from the registry
	remaining []PeerIdentity // members to notify, snapshotted at departure
}

// Registry owns the mapping from roomId to live room state. It is created
// once per process and handed to the Hub; nothing in this package keeps
// global state.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (reg *Registry) getOrCreateLocked(roomID string) *Room {
	room, ok := reg.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		reg.rooms[roomID] = room
	}
	return room
}

// GetOrCreate returns the room for roomID, creating it with empty
// membership, no host and chat enabled if it does not exist yet. Any string
// is a valid room id, including the empty one.
func (reg *Registry) GetOrCreate(roomID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.getOrCreateLocked(roomID)
}

// Get returns the room for roomID if it exists.
func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[roomID]
	return room, ok
}

// Remove drops the room and everything it owns (membership, chat permission,
// history). Removing an unknown room is a no-op.
func (reg *Registry) Remove(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, roomID)
}

// Len reports the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Seat resolves or creates the room and records the peer in it, in one
// critical section: a seated peer can never land in a room that a concurrent
// departure is removing. A host-role join takes over the host slot; any
// previous host keeps its membership but is demoted to participant so the
// room never holds two host identities. The returned snapshot is taken
// before any other handler can touch the room again.
func (reg *Registry) Seat(roomID string, p *PeerIdentity) seatResult {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room := reg.getOrCreateLocked(roomID)

	room.mu.Lock()
	defer room.mu.Unlock()

	if p.Role == RoleHost {
		if prev, ok := room.participants[room.hostID]; ok && room.hostID != p.ConnectionID {
			prev.Role = RoleParticipant
		}
		room.hostID = p.ConnectionID
	}
	room.participants[p.ConnectionID] = p

	others := make([]PeerIdentity, 0, len(room.participants)-1)
	for id, m := range room.participants {
		if id == p.ConnectionID {
			continue
		}
		others = append(others, *m)
	}
	history := make([]ChatMessage, len(room.history))
	copy(history, room.history)

	return seatResult{
		others:      others,
		chatEnabled: room.chatEnabled,
		history:     history,
		hostID:      room.hostID,
	}
}

// Depart removes a connection from a room, applying the teardown policy in
// the same critical section as the membership change: a host departure drops
// the whole room, a participant departure drops the room only if it emptied
// the membership. Because the emptiness check and the map delete happen
// under both locks, a concurrent Seat can neither be lost nor end up inside
// a removed room. Departing a connection that is not joined (duplicate close
// signal, already-torn-down room) is a no-op.
func (reg *Registry) Depart(roomID, connID string) departure {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[roomID]
	if !ok {
		return departure{}
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if _, joined := room.participants[connID]; !joined {
		return departure{}
	}

	if room.hostID == connID {
		// The host's departure ends the session for everyone.
		delete(reg.rooms, roomID)
		remaining := make([]PeerIdentity, 0, len(room.participants)-1)
		for id, m := range room.participants {
			if id != connID {
				remaining = append(remaining, *m)
			}
		}
		return departure{ok: true, hostLeft: true, roomGone: true, remaining: remaining}
	}

	delete(room.participants, connID)
	if len(room.participants) == 0 {
		delete(reg.rooms, roomID)
		return departure{ok: true, roomGone: true}
	}

	remaining := make([]PeerIdentity, 0, len(room.participants))
	for _, m := range room.participants {
		remaining = append(remaining, *m)
	}
	return departure{ok: true, remaining: remaining}
}
