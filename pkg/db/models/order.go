package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/types"
)

// Order captures a placed order. Line items and totals are immutable after
// creation; status is the only field that changes afterwards.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64               `gorm:"column:order_number;not null;uniqueIndex"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	SubtotalCents   int                 `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int                 `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents      int                 `gorm:"column:total_cents;not null"`
	Currency        enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	ShippingAddress *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'card'"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TrackingEvents  []TrackingEvent     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt     *time.Time          `gorm:"column:delivered_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
