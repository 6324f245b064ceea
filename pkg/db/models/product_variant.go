package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/types"
)

// ProductVariant describes a purchasable variation of a product, e.g. a
// size or color with its own SKU and optional price override.
type ProductVariant struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index"`
	SKU        string         `gorm:"column:sku;not null;uniqueIndex"`
	Name       string         `gorm:"column:name;not null"`
	PriceCents *int           `gorm:"column:price_cents"`
	Attributes *types.JSONMap `gorm:"column:attributes;type:jsonb;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
