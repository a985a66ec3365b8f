// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents the live view event types
type EventType string

const (
	// Connection events
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	// View events (client -> server)
	EventTypeViewCommand EventType = "view:command"
	EventTypeViewRefresh EventType = "view:refresh"
	EventTypeViewAgency  EventType = "view:agency"

	// View events (server -> client)
	EventTypeViewPage EventType = "view:page"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	ID        string          `json:"id,omitempty"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// AgencyData is the payload of view:agency.
type AgencyData struct {
	Agency string `json:"agency"`
}

// NewMessage builds a server message. Data that cannot be encoded is sent
// as null.
func NewMessage(eventType EventType, data any) *WSMessage {
	msg := &WSMessage{
		Type:      eventType,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			msg.Data = raw
		}
	}
	return msg
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Decode unmarshals the message payload into target.
func (m *WSMessage) Decode(target any) error {
	if len(m.Data) == 0 {
		return json.Unmarshal([]byte("{}"), target)
	}
	return json.Unmarshal(m.Data, target)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
