package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the per-user singleton shopping cart. Totals are denormalized and
// recomputed from the line items on every mutation.
type Cart struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	TotalQuantity   int        `gorm:"column:total_quantity;not null;default:0"`
	TotalPriceCents int        `gorm:"column:total_price_cents;not null;default:0"`
	Items           []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
