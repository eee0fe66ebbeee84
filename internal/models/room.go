package models

import "time"

// RoomRecord is the persistent room entity. It identifies who created a room
// and who has joined it over time; live membership is tracked separately by
// the signaling hub.
type RoomRecord struct {
	RoomID       string            `gorm:"primaryKey" json:"roomId"`
	Code         string            `gorm:"uniqueIndex" json:"code"` // short, shareable join code
	HostID       string            `json:"hostId"`
	CreatedAt    time.Time         `json:"createdAt"`
	Participants []RoomParticipant `gorm:"foreignKey:RoomID;references:RoomID" json:"participants"`
}

// RoomParticipant links a user record to a room record.
type RoomParticipant struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	RoomID string `gorm:"index" json:"-"`
	UserID string `json:"userId"`
}

// CreateRoomRequest is the request body for creating a room record.
type CreateRoomRequest struct {
	RoomID string `json:"roomId" binding:"required"`
}

// CreateRoomResponse is the response for creating a room record.
type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

// JoinRoomRequest is the request body for joining a room record.
type JoinRoomRequest struct {
	RoomID        string `json:"roomId" binding:"required"`
	ParticipantID string `json:"participantId" binding:"required"`
}

// RoomInfo is the room record plus the live peer count.
type RoomInfo struct {
	RoomRecord
	PeerCount int64 `json:"peerCount"`
}

// UploadResponse is returned by the recording upload endpoint.
type UploadResponse struct {
	Message string `json:"message"`
	FileURL string `json:"fileUrl"`
}
