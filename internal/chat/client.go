package chat

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// ConnLike is the subset of the websocket connection the client needs.
// Tests substitute their own implementation.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// Client is one live websocket session for an authenticated user. The
// send channel is buffered and pushes are non-blocking: a full buffer
// drops the frame rather than stalling dispatch to other connections.
type Client struct {
	UserID string
	ConnID string

	hub  *Hub
	conn ConnLike

	Send chan []byte

	// mu serializes sends against close. A dispatcher can look a
	// connection up and push while the disconnect path is closing it;
	// the flag turns that push into a dropped frame instead of a send
	// on a closed channel.
	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, userID string, conn ConnLike) *Client {
	return &Client{
		UserID: userID,
		ConnID: uuid.NewString(),
		hub:    hub,
		conn:   conn,
		Send:   make(chan []byte, 16),
	}
}

// Push marshals an outbound envelope onto the send channel without
// blocking. A push after the connection closed is a no-op.
func (c *Client) Push(event string, data any) {
	b, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		c.hub.log.Warn("marshal outbound event failed", "event", event, "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.hub.log.Debug("push after close dropped", "user", c.UserID, "event", event)
		return
	}
	select {
	case c.Send <- b:
	default:
		c.hub.log.Debug("send buffer full, frame dropped", "user", c.UserID, "event", event)
	}
}

// ReadPump decodes inbound envelopes and hands them to the hub until
// the connection errors, then reports the close.
func (c *Client) ReadPump() {
	defer c.hub.ConnectionClosed(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		c.hub.Dispatch(c, &env)
	}
}

func (c *Client) WritePump() {
	for data := range c.Send {
		_ = c.conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}
