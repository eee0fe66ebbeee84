package signaling

import "log"

// handleJoin processes join-room: records the peer in the room, updates the
// side table, pushes the current room picture to the joiner and announces the
// newcomer to everyone else. Seating and the room snapshot happen in one
// critical section inside the registry.
func (h *Hub) handleJoin(c *Client, data JoinRoomData) {
	role := ParseRole(data.Role)
	name := data.UserID
	if name == "" {
		name = c.DisplayName
	}

	seated := h.registry.Seat(data.RoomID, &PeerIdentity{
		ConnectionID: c.ID,
		DisplayName:  name,
		Role:         role,
	})

	h.mu.Lock()
	h.contexts[c.ID] = peerContext{roomID: data.RoomID, userID: name, role: role}
	h.mu.Unlock()

	log.Printf("%s %q joined room %q as %s", role, name, data.RoomID, c.ID)

	// The joiner gets the existing members so it can open a negotiation
	// with each of them, plus the current chat state.
	users := make([]RoomUser, 0, len(seated.others))
	for _, m := range seated.others {
		users = append(users, RoomUser{ConnectionID: m.ConnectionID, Name: m.DisplayName})
	}
	c.enqueue(EventAllUsers, users)
	c.enqueue(EventChatPermission, ChatPermissionData{Enabled: seated.chatEnabled})
	c.enqueue(EventChatHistory, seated.history)

	if role != RoleHost && seated.hostID != "" {
		c.enqueue(EventHostInfo, HostInfoData{SocketID: seated.hostID})
	}

	h.notify(seated.others, EventUserConnected, UserConnectedData{
		ConnectionID: c.ID,
		Name:         name,
	})

	if h.presence != nil {
		h.presence.PeerJoined(data.RoomID, c.ID)
	}
}

// Disconnect tears down a connection's room state. It is idempotent: a
// second call for the same connection, or a call for a room that is already
// gone, does nothing. The membership change and the teardown decision are
// one registry critical section; only the notifications happen after it.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	pc, joined := h.contexts[c.ID]
	delete(h.contexts, c.ID)
	h.mu.Unlock()

	log.Printf("Peer disconnected: %s", c.ID)

	if !joined {
		return
	}

	dep := h.registry.Depart(pc.roomID, c.ID)
	if !dep.ok {
		return
	}

	if dep.hostLeft {
		// The host's departure ends the session for everyone.
		h.notify(dep.remaining, EventHostDisconnected, nil)
		log.Printf("Host left, room %q closed", pc.roomID)
	} else {
		h.notify(dep.remaining, EventParticipantLeft, ParticipantLeftData{SocketID: c.ID})
		if dep.roomGone {
			log.Printf("Removed empty room %q", pc.roomID)
		}
	}

	if h.presence != nil {
		h.presence.PeerLeft(pc.roomID, c.ID)
	}
}
