package signaling

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size. SDP offers stay well below this.
	maxMessageSize = 64 * 1024

	// Outbound buffer per connection; sends drop when it is full.
	sendBufferSize = 256
)

// Client wraps one websocket connection. ID is assigned by the transport
// layer at upgrade time and is stable for the connection's lifetime.
type Client struct {
	ID          string
	DisplayName string
	Conn        *websocket.Conn
	Send        chan []byte

	hub *Hub
}

// NewClient builds a client for an upgraded connection. The caller starts
// ReadPump and WritePump afterwards.
func NewClient(hub *Hub, conn *websocket.Conn, id, displayName string) *Client {
	return &Client{
		ID:          id,
		DisplayName: displayName,
		Conn:        conn,
		Send:        make(chan []byte, sendBufferSize),
		hub:         hub,
	}
}

// enqueue marshals an envelope onto the client's send channel. Delivery is
// best-effort: a full buffer drops the message with a log line, never blocks
// the caller.
func (c *Client) enqueue(event string, data any) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("Failed to marshal %s payload: %v", event, err)
			return
		}
		raw = b
	}

	b, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		log.Printf("Failed to marshal envelope: %v", err)
		return
	}

	select {
	case c.Send <- b:
	default:
		log.Printf("Dropping %s for peer %s, send buffer full", event, c.ID)
	}
}

// ReadPump pumps inbound messages from the websocket to the hub dispatcher.
// It runs in its own goroutine; all reads happen here. On exit the
// connection is unregistered, which triggers room cleanup.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for peer %s: %v", c.ID, err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Failed to parse message from peer %s: %v", c.ID, err)
			continue
		}

		c.hub.route(c, env)
	}
}

// WritePump pumps messages from the send channel to the websocket and keeps
// the connection alive with pings. One writer goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write to peer %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
