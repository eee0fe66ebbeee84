package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ramanand1101/webRtc-backend/internal/signaling"
)

// GetChatHistory returns the live chat history of a room. Rooms that do not
// exist (or have been torn down) report an empty list rather than an error.
func GetChatHistory(hub *signaling.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		messages := hub.History(c.Param("roomId"))
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"messages": messages,
		})
	}
}
