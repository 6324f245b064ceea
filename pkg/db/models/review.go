package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shopvite/shopvite-backend/pkg/enums"
)

// Review is a product review. One review per user per product is enforced
// by the unique index; the service also pre-checks to return a clean
// conflict instead of a driver error.
type Review struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product"`
	ProductID        uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_reviews_user_product"`
	OrderID          *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Rating           int                `gorm:"column:rating;not null;check:rating >= 1 AND rating <= 5"`
	Title            string             `gorm:"column:title;not null"`
	Comment          *string            `gorm:"column:comment"`
	Pros             pq.StringArray     `gorm:"column:pros;type:text[];not null;default:ARRAY[]::text[]"`
	Cons             pq.StringArray     `gorm:"column:cons;type:text[];not null;default:ARRAY[]::text[]"`
	Status           enums.ReviewStatus `gorm:"column:status;type:review_status;not null;default:'PENDING'"`
	VerifiedPurchase bool               `gorm:"column:verified_purchase;not null;default:false"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
