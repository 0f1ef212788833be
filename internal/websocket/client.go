package websocket

import (
	"encoding/json"
	"time"

	"world-server/internal/models"
	"world-server/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	// Oversized frames are a protocol violation, not a game error.
	maxMessageSize = 8192

	sendBufferSize = 256
)

// Client owns one upgraded connection. Inbound frames are handed to the
// dispatch callback in read order, which is what gives each connection's
// intents their sequencing. Outbound events go through a buffered channel;
// a full buffer drops the message rather than stalling a room broadcast.
type Client struct {
	ConnID string

	conn     *websocket.Conn
	send     chan []byte
	dispatch func(raw []byte)
	onClose  func()
}

func NewClient(connID string, conn *websocket.Conn, dispatch func(raw []byte), onClose func()) *Client {
	return &Client{
		ConnID:   connID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		dispatch: dispatch,
		onClose:  onClose,
	}
}

// Send implements game.Sender.
func (c *Client) Send(event models.ServerEnvelope) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Error marshaling event %s: %v", event.Type, err)
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn("Send buffer full for connection %s, dropping %s", c.ConnID, event.Type)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.onClose()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on %s: %v", c.ConnID, err)
			}
			break
		}
		c.dispatch(message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error on %s: %v", c.ConnID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
