// internal/ws/client.go
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"junketops-service/internal/domain/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// ClientAuth holds the verified identity a connection runs under.
type ClientAuth struct {
	IdentityID int64
	TokenID    string
	Roles      []string
	AgentID    string
	Device     string
}

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	identityID int64
	tokenID    string
	roles      []string
	agentID    string
	device     string

	subscriptions map[event.Channel]bool
	subMutex      sync.RWMutex

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, 256),
		identityID:    auth.IdentityID,
		tokenID:       auth.TokenID,
		roles:         auth.Roles,
		agentID:       auth.AgentID,
		device:        auth.Device,
		subscriptions: make(map[event.Channel]bool),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (c *Client) HasRole(role string) bool {
	for _, r := range c.roles {
		if r == role {
			return true
		}
	}
	return false
}

// Subscribe joins a channel. The system channel carries operational
// degradation detail and stays admin-only.
func (c *Client) Subscribe(channel event.Channel) bool {
	if channel == event.ChannelSystem && !c.HasRole("admin") {
		return false
	}

	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	c.subscriptions[channel] = true
	return true
}

func (c *Client) Unsubscribe(channel event.Channel) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	delete(c.subscriptions, channel)
}

func (c *Client) IsSubscribed(channel event.Channel) bool {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	return c.subscriptions[channel]
}

func (c *Client) IdentityID() int64 {
	return c.identityID
}

func (c *Client) AgentID() string {
	return c.agentID
}

// ReadPump consumes client frames until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.hub.logger.Warn("websocket read failed",
						zap.Int64("identity_id", c.identityID), zap.Error(err))
				}
				return
			}

			c.handleMessage(message)
		}
	}
}

// WritePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) handleMessage(data []byte) {
	msg, err := event.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	switch msg.Type {
	case event.TypePing:
		c.SendMessage(event.NewMessage(event.TypePong, nil))

	case event.TypeSubscribe:
		var req event.SubscribeRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.SendError("invalid_subscribe", "Invalid subscribe request", err.Error())
			return
		}
		granted := make([]event.Channel, 0, len(req.Channels))
		for _, channel := range req.Channels {
			if c.Subscribe(channel) {
				granted = append(granted, channel)
			}
		}
		c.SendMessage(event.NewMessage(event.TypeSubscribe, map[string]any{
			"channels": granted,
			"status":   "subscribed",
		}))

	case event.TypeUnsubscribe:
		var req event.UnsubscribeRequest
		if err := decodeData(msg.Data, &req); err != nil {
			c.SendError("invalid_unsubscribe", "Invalid unsubscribe request", err.Error())
			return
		}
		for _, channel := range req.Channels {
			c.Unsubscribe(channel)
		}
		c.SendMessage(event.NewMessage(event.TypeUnsubscribe, map[string]any{
			"channels": req.Channels,
			"status":   "unsubscribed",
		}))
	}
}

// trySend queues pre-marshaled bytes, reporting false when the queue
// is full. Closed or closing clients swallow the message.
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// SendMessage queues a message without ever blocking. A full queue
// drops the message; sustained fullness gets the client disconnected
// during hub fan-out.
func (c *Client) SendMessage(msg *event.Message) {
	data, err := msg.ToJSON()
	if err != nil {
		c.hub.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}
	c.trySend(data)
}

func (c *Client) SendError(code, message, details string) {
	c.SendMessage(event.NewMessage(event.TypeError, event.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close is idempotent; the hub and both pumps may all race to it. The
// send channel is never closed: cancellation stops both pumps and the
// queue is simply collected with the client, which removes any window
// for a send on a closed channel.
func (c *Client) Close() {
	c.closeOnce.Do(c.cancel)
}

// decodeData converts a decoded JSON value into a request struct.
func decodeData(data any, target any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}
