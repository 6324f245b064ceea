package tracking

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
)

// Client-facing event names.
const (
	EventTrackingUpdate = "order:tracking-update"
	EventStatusChanged  = "order:status-changed"
)

// OrderEventsChannel is the Redis channel every API instance subscribes to,
// so a status change applied on one instance reaches sockets held by another.
const OrderEventsChannel = "sv:orders:events"

// Message is the frame pushed to websocket clients.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// TrackingEntry is one row of an order's tracking history.
type TrackingEntry struct {
	Status    enums.OrderStatus `json:"status"`
	Message   string            `json:"message,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// TrackingUpdateData accompanies EventTrackingUpdate.
type TrackingUpdateData struct {
	OrderID uuid.UUID       `json:"orderId"`
	History []TrackingEntry `json:"history"`
}

// StatusChangedData accompanies EventStatusChanged.
type StatusChangedData struct {
	OrderID uuid.UUID         `json:"orderId"`
	Status  enums.OrderStatus `json:"status"`
}

// ChannelEvent is the payload published on OrderEventsChannel.
type ChannelEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	UserID  uuid.UUID         `json:"user_id"`
	Status  enums.OrderStatus `json:"status"`
}

func historyFromModels(events []models.TrackingEvent) []TrackingEntry {
	history := make([]TrackingEntry, 0, len(events))
	for _, event := range events {
		history = append(history, TrackingEntry{
			Status:    event.Status,
			Message:   event.Message,
			CreatedAt: event.CreatedAt,
		})
	}
	return history
}
