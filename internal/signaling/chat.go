package signaling

import (
	"log"
	"time"
)

// handleToggleChat flips a room's chat permission flag. Only the connection
// holding the host slot may do this; anyone else's request is dropped
// without a reply.
func (h *Hub) handleToggleChat(c *Client, data ToggleChatData) {
	room, ok := h.registry.Get(data.RoomID)
	if !ok {
		return
	}

	if !room.setChatEnabled(c.ID, data.Enabled) {
		return
	}

	log.Printf("Chat %s in room %q", onOff(data.Enabled), data.RoomID)
	h.broadcast(room, "", EventChatPermission, ChatPermissionData{Enabled: data.Enabled})
}

// handleSendChat relays a chat message room-wide or to one named recipient.
// When chat is disabled, non-host messages vanish: no delivery, no history
// append, no error back to the sender.
func (h *Hub) handleSendChat(c *Client, data SendChatData) {
	room, ok := h.registry.Get(data.RoomID)
	if !ok {
		return
	}

	msg, ok := room.recordChat(c.ID, data.Message, data.To)
	if !ok {
		return
	}

	if data.To != "" {
		// Private message: exactly two deliveries, recipient plus an
		// echo so the sender's UI renders it like any other message.
		h.sendTo(data.To, EventReceiveChat, msg)
		c.enqueue(EventReceiveChat, msg)
		return
	}

	h.broadcast(room, "", EventReceiveChat, msg)
}

// recordChat resolves the sender's identity, applies the permission gate and
// appends to the bounded history in one critical section, so a concurrent
// toggle or host takeover cannot interleave with the gate decision. The
// second return is false when the message must not be delivered.
func (r *Room) recordChat(senderID, text, to string) (ChatMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sender, ok := r.participants[senderID]
	if !ok {
		return ChatMessage{}, false
	}

	if !r.chatEnabled && sender.Role != RoleHost {
		log.Printf("Chat blocked for %q in room %q", sender.DisplayName, r.ID)
		return ChatMessage{}, false
	}

	if to == "" {
		to = "all"
	}
	msg := ChatMessage{
		From:      sender.DisplayName,
		Role:      sender.Role,
		Message:   text,
		To:        to,
		Timestamp: time.Now().UnixMilli(),
	}

	r.history = append(r.history, msg)
	if len(r.history) > maxChatHistory {
		r.history = r.history[len(r.history)-maxChatHistory:]
	}
	return msg, true
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
