package signaling

import "encoding/json"

// Event names exchanged over the websocket. Client-to-server events are
// dispatched by the hub; server-to-client events are pushed on the client's
// send channel.
const (
	// client -> server
	EventJoinRoom           = "join-room"
	EventSendOffer          = "send-offer"
	EventSendAnswer         = "send-answer"
	EventSendICECandidate   = "send-ice-candidate"
	EventMuteToggle         = "mute-toggle"
	EventCameraToggle       = "camera-toggle"
	EventScreenShareStarted = "screen-share-started"
	EventScreenShareStopped = "screen-share-stopped"
	EventToggleChat         = "toggle-chat"
	EventSendChat           = "send-chat"
	EventCheckHost          = "check-host"

	// server -> client
	EventAllUsers         = "all-users"
	EventChatHistory      = "chat-history"
	EventChatPermission   = "chat-permission-updated"
	EventHostInfo         = "host-info"
	EventUserConnected    = "user-connected"
	EventReceiveOffer     = "receive-offer"
	EventReceiveAnswer    = "receive-answer"
	EventReceiveICE       = "receive-ice-candidate"
	EventUserMuted        = "user-muted"
	EventUserCameraToggle = "user-camera-toggle"
	EventReceiveChat      = "receive-chat"
	EventHostPresent      = "host-present"
	EventHostDisconnected = "host-disconnected"
	EventParticipantLeft  = "participant-left"
)

// Envelope is the wire format for every websocket message in both
// directions: an event name plus an event-specific JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomData is the payload of join-room. Role is asserted by the client
// and trusted; it is immutable for the lifetime of the connection.
type JoinRoomData struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// SignalData carries one opaque negotiation payload between two peers. The
// server never inspects Offer/Answer/Candidate; exactly one of them is set
// depending on the event. To addresses the outbound leg, From tags the
// inbound leg so the recipient can reply.
type SignalData struct {
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	To        string          `json:"to,omitempty"`
	From      string          `json:"from,omitempty"`
}

// MuteToggleData is the payload of mute-toggle / user-muted.
type MuteToggleData struct {
	RoomID  string `json:"roomId,omitempty"`
	UserID  string `json:"userId"`
	IsMuted bool   `json:"isMuted"`
}

// CameraToggleData is the payload of camera-toggle / user-camera-toggle.
type CameraToggleData struct {
	RoomID      string `json:"roomId,omitempty"`
	UserID      string `json:"userId"`
	IsCameraOff bool   `json:"isCameraOff"`
}

// ScreenShareData announces a screen-share state change to the rest of the
// room.
type ScreenShareData struct {
	RoomID       string `json:"roomId,omitempty"`
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// ToggleChatData is the payload of toggle-chat; only the room host may flip
// the flag.
type ToggleChatData struct {
	RoomID  string `json:"roomId"`
	Enabled bool   `json:"enabled"`
}

// ChatPermissionData is pushed as chat-permission-updated.
type ChatPermissionData struct {
	Enabled bool `json:"enabled"`
}

// SendChatData is the payload of send-chat. An empty To means a room-wide
// message; otherwise To names the recipient connection.
type SendChatData struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
	To      string `json:"to,omitempty"`
}

// CheckHostData asks whether a room currently has a live host.
type CheckHostData struct {
	RoomID string `json:"roomId"`
}

// HostPresentData answers check-host.
type HostPresentData struct {
	HostPresent bool `json:"hostPresent"`
}

// HostInfoData tells a joining participant which connection holds the host
// slot, so it can start negotiating with the host directly.
type HostInfoData struct {
	SocketID string `json:"socketId"`
}

// UserConnectedData announces a newly joined peer to the rest of the room.
type UserConnectedData struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
}

// RoomUser is one entry of the all-users list sent to a joining peer.
type RoomUser struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
}

// ParticipantLeftData announces a participant's departure.
type ParticipantLeftData struct {
	SocketID string `json:"socketId"`
}
