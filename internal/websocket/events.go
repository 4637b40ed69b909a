package websocket

import (
	"log"

	"github.com/practice-agenda/backend/internal/storage/models"
)

// EventBroadcaster publishes agenda changes to all connected clients.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new broadcaster over the hub.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastEventChange publishes a single-event create/update/delete.
func (b *EventBroadcaster) BroadcastEventChange(msgType MessageType, event *models.Event) {
	b.broadcast(NewMessage(msgType, EventPayload{
		EventID:  event.ID,
		Type:     event.Type,
		Start:    event.Start,
		End:      event.End,
		SeriesID: event.SeriesID,
	}))
}

// BroadcastSeriesChange publishes a series create/regenerate/delete.
func (b *EventBroadcaster) BroadcastSeriesChange(msgType MessageType, seriesID string, occurrences int) {
	b.broadcast(NewMessage(msgType, SeriesPayload{
		SeriesID:    seriesID,
		Occurrences: occurrences,
	}))
}

// BroadcastPaymentUpdated publishes a surgery payment status flip.
func (b *EventBroadcaster) BroadcastPaymentUpdated(eventID, payStatus string) {
	b.broadcast(NewMessage(TypePaymentUpdated, PaymentPayload{
		EventID:   eventID,
		PayStatus: payStatus,
	}))
}

// BroadcastDayRollover publishes the local-midnight day change.
func (b *EventBroadcaster) BroadcastDayRollover(dayKey string, pendingSurgeries int) {
	b.broadcast(NewMessage(TypeDayRollover, DayRolloverPayload{
		DayKey:           dayKey,
		PendingSurgeries: pendingSurgeries,
	}))
}

// BroadcastNotification publishes a free-form notification.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:   level,
		Title:   title,
		Message: message,
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
