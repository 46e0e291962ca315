// internal/domain/event/event.go
package event

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies a real-time event pushed to dashboard viewers.
type Type string

const (
	// Connection events
	TypePing         Type = "ping"
	TypePong         Type = "pong"
	TypeConnected    Type = "connected"
	TypeDisconnected Type = "disconnected"
	TypeError        Type = "error"

	// Report events (server -> client). Clients refetch through the
	// REST surface; events carry just enough to decide whether to.
	TypeReportRefreshed Type = "report:refreshed"
	TypeTripUpdated     Type = "trip:updated"
	TypeSourceDegraded  Type = "source:degraded"

	// Subscription events
	TypeSubscribe   Type = "subscribe"
	TypeUnsubscribe Type = "unsubscribe"
)

// Channel groups events a client can subscribe to.
type Channel string

const (
	ChannelDashboard Channel = "dashboard"
	ChannelTrips     Channel = "trips"
	ChannelSystem    Channel = "system"
)

// Message is the universal wire format for both directions.
type Message struct {
	Type      Type      `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id,omitempty"`
}

// SubscribeRequest sent by a client to join channels.
type SubscribeRequest struct {
	Channels []Channel `json:"channels"`
}

// UnsubscribeRequest sent by a client to leave channels.
type UnsubscribeRequest struct {
	Channels []Channel `json:"channels"`
}

// ErrorData for error events.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RefreshedData announces that a new report snapshot is available.
type RefreshedData struct {
	GeneratedAt time.Time `json:"generated_at"`
	Warnings    int       `json:"warnings"`
}

// TripUpdatedData announces that one trip's figures changed.
type TripUpdatedData struct {
	TripID string `json:"trip_id"`
}

// DegradedData announces that an upstream collection could not be
// resolved and the current report carries fallback values for it.
type DegradedData struct {
	Warnings []string `json:"warnings"`
}

func NewMessage(eventType Type, data any) *Message {
	return &Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
