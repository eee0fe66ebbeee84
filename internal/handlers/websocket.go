package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Ramanand1101/webRtc-backend/internal/signaling"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// ServeWS upgrades the connection, assigns it a connection id, registers it
// with the hub and starts the pumps. The client joins a room by sending
// join-room afterwards; any room id is valid, rooms are created lazily.
func ServeWS(hub *signaling.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Failed to upgrade connection: %v", err)
			return
		}

		client := signaling.NewClient(hub, conn, uuid.New().String(), c.Query("displayName"))
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
