package handlers

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ramanand1101/webRtc-backend/internal/models"
	"github.com/Ramanand1101/webRtc-backend/internal/store"
)

const (
	roomCodeLength = 6
	codeChars      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no ambiguous chars
)

// LiveStore is the slice of the Redis layer the room handlers need: join
// codes and live peer counts.
type LiveStore interface {
	SaveRoomCode(ctx context.Context, code, roomID string) error
	ResolveRoomCode(ctx context.Context, code string) (string, error)
	PeerCount(ctx context.Context, roomID string) (int64, error)
	PurgeRoom(ctx context.Context, roomID, code string) error
}

// CreateRoom creates a persistent room record owned by the authenticated
// user, plus a short join code in Redis.
func CreateRoom(s *store.Store, live LiveStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var req models.CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		code := generateRoomCode()
		room, err := s.CreateRoom(c.Request.Context(), req.RoomID, code, userID.(string))
		if errors.Is(err, store.ErrRoomExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Room already exists"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Room creation failed"})
			return
		}

		if err := live.SaveRoomCode(c.Request.Context(), code, room.RoomID); err != nil {
			log.Printf("Failed to store join code for room %s: %v", room.RoomID, err)
		}

		log.Printf("Room created: %s (code: %s) by user %s", room.RoomID, code, userID)
		c.JSON(http.StatusCreated, models.CreateRoomResponse{RoomID: room.RoomID, Code: code})
	}
}

// JoinRoom appends a participant to an existing room record.
func JoinRoom(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.JoinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		room, err := s.AddParticipant(c.Request.Context(), req.RoomID, req.ParticipantID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join room"})
			return
		}
		c.JSON(http.StatusOK, room)
	}
}

// GetRoom returns a room record by id or join code, with the live peer
// count.
func GetRoom(s *store.Store, live LiveStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")

		// A 6-char identifier may be a join code.
		if len(roomID) == roomCodeLength {
			if resolved, err := live.ResolveRoomCode(c.Request.Context(), roomID); err == nil {
				roomID = resolved
			}
		}

		room, err := s.GetRoom(c.Request.Context(), roomID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get room"})
			return
		}

		peerCount, err := live.PeerCount(c.Request.Context(), room.RoomID)
		if err != nil {
			log.Printf("Failed to get peer count for room %s: %v", room.RoomID, err)
		}

		c.JSON(http.StatusOK, models.RoomInfo{RoomRecord: *room, PeerCount: peerCount})
	}
}

// DeleteRoom removes a room record. Only the creator may delete it.
func DeleteRoom(s *store.Store, live LiveStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		roomID := c.Param("roomId")
		room, err := s.GetRoom(c.Request.Context(), roomID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get room"})
			return
		}

		if room.HostID != userID.(string) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the room creator can delete the room"})
			return
		}

		if err := s.DeleteRoom(c.Request.Context(), roomID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete room"})
			return
		}
		live.PurgeRoom(c.Request.Context(), roomID, room.Code)

		log.Printf("Room deleted: %s by user %s", roomID, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Room deleted"})
	}
}

// generateRoomCode generates a random short join code.
func generateRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}
