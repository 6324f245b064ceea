package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/types"
)

// Payment records one gateway charge attempt against an order.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	AmountCents      int                 `gorm:"column:amount_cents;not null"`
	Currency         enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	Status           enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'PENDING'"`
	Method           enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id;uniqueIndex"`
	GatewayMetadata  *types.JSONMap      `gorm:"column:gateway_metadata;type:jsonb;serializer:json"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
