package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/enums"
)

// TrackingEvent is one append-only entry in an order's tracking history.
type TrackingEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Message   string            `gorm:"column:message;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
