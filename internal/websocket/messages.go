package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	TypeEventCreated      MessageType = "event.created"
	TypeEventUpdated      MessageType = "event.updated"
	TypeEventDeleted      MessageType = "event.deleted"
	TypeSeriesCreated     MessageType = "series.created"
	TypeSeriesRegenerated MessageType = "series.regenerated"
	TypeSeriesDeleted     MessageType = "series.deleted"
	TypePaymentUpdated    MessageType = "payment.updated"
	TypeDayRollover       MessageType = "agenda.day_rollover"
	TypeNotification      MessageType = "notification"
)

// Message is the WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventPayload accompanies event.* messages.
type EventPayload struct {
	EventID  string `json:"event_id"`
	Type     string `json:"event_type,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	SeriesID string `json:"series_id,omitempty"`
}

// SeriesPayload accompanies series.* messages.
type SeriesPayload struct {
	SeriesID    string `json:"series_id"`
	Occurrences int    `json:"occurrences"`
}

// PaymentPayload accompanies payment.updated messages.
type PaymentPayload struct {
	EventID   string `json:"event_id"`
	PayStatus string `json:"pay_status"`
}

// DayRolloverPayload accompanies agenda.day_rollover messages.
type DayRolloverPayload struct {
	DayKey           string `json:"day_key"`
	PendingSurgeries int    `json:"pending_surgeries"`
}

// NotificationPayload accompanies notification messages.
type NotificationPayload struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
