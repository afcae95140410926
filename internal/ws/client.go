package ws

import (
	"encoding/json"
	"time"

	"invest_platform/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	UserID  int64
	IsAdmin bool
	Conn    *websocket.Conn
	Send    chan []byte

	Hub  *Hub
	Done chan struct{}
}

func NewClient(userID int64, isAdmin bool, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID:  userID,
		IsAdmin: isAdmin,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Hub:     hub,
		Done:    make(chan struct{}),
	}
}

func (c *Client) Run() {
	c.Hub.Register(c)
	go c.writePump()

	if msg, err := encode(MsgReady, nil); err == nil {
		c.enqueue(msg)
	}

	c.readPump()
}

// enqueue drops the message when the client is not keeping up.
func (c *Client) enqueue(msg []byte) {
	select {
	case <-c.Done:
	case c.Send <- msg:
	default:
		logger.Warn("ws send buffer full, dropping message", "user_id", c.UserID)
	}
}

// read
func (c *Client) readPump() {
	defer c.disconnect()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			if msg, err := encode(MsgError, ErrorPayload{Message: "invalid message"}); err == nil {
				c.enqueue(msg)
			}
			continue
		}
		switch env.Type {
		case MsgPing:
			if msg, err := encode(MsgPong, nil); err == nil {
				c.enqueue(msg)
			}
		default:
			if msg, err := encode(MsgError, ErrorPayload{Message: "unknown message type"}); err == nil {
				c.enqueue(msg)
			}
		}
	}
}

// write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.Done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "user_id", c.UserID, "error", err)
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

// disconnect
func (c *Client) disconnect() {
	c.Hub.Unregister(c)
	close(c.Done)
	_ = c.Conn.Close()
}
