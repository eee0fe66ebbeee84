package signaling

// Media-control events are pure notifications: the hub fans them out to the
// rest of the room and keeps nothing.

func (h *Hub) handleMuteToggle(c *Client, data MuteToggleData) {
	room, ok := h.registry.Get(data.RoomID)
	if !ok {
		return
	}
	h.broadcast(room, c.ID, EventUserMuted, MuteToggleData{
		UserID:  data.UserID,
		IsMuted: data.IsMuted,
	})
}

func (h *Hub) handleCameraToggle(c *Client, data CameraToggleData) {
	room, ok := h.registry.Get(data.RoomID)
	if !ok {
		return
	}
	h.broadcast(room, c.ID, EventUserCameraToggle, CameraToggleData{
		UserID:      data.UserID,
		IsCameraOff: data.IsCameraOff,
	})
}

// handleScreenShare announces screen-share start/stop. The room and identity
// come from the join-time context, so the client payload carries nothing.
func (h *Hub) handleScreenShare(c *Client, event string) {
	pc, ok := h.context(c.ID)
	if !ok {
		return
	}
	room, ok := h.registry.Get(pc.roomID)
	if !ok {
		return
	}
	h.broadcast(room, c.ID, event, ScreenShareData{
		UserID:       pc.userID,
		ConnectionID: c.ID,
	})
}
