package reviews

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

// CreateReviewInput submits a review. OrderID is optional; when it points
// at a delivered order containing the product the review is marked as a
// verified purchase.
type CreateReviewInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	OrderID   *uuid.UUID `json:"order_id"`
	Rating    int        `json:"rating" validate:"required,min=1,max=5"`
	Title     string     `json:"title" validate:"required,max=200"`
	Comment   *string    `json:"comment" validate:"omitempty,max=5000"`
	Pros      []string   `json:"pros" validate:"omitempty,dive,max=200"`
	Cons      []string   `json:"cons" validate:"omitempty,dive,max=200"`
}

// ModerateReviewInput changes a review's moderation status.
type ModerateReviewInput struct {
	Status string `json:"status" validate:"required"`
}

// ReviewDTO is the API shape of a review.
type ReviewDTO struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"user_id"`
	ProductID        uuid.UUID          `json:"product_id"`
	Rating           int                `json:"rating"`
	Title            string             `json:"title"`
	Comment          *string            `json:"comment,omitempty"`
	Pros             []string           `json:"pros"`
	Cons             []string           `json:"cons"`
	Status           enums.ReviewStatus `json:"status"`
	VerifiedPurchase bool               `json:"verified_purchase"`
	CreatedAt        time.Time          `json:"created_at"`
}

// ReviewListResult is a page of approved reviews plus the product's
// aggregate rating.
type ReviewListResult struct {
	Reviews       []ReviewDTO       `json:"reviews"`
	AverageRating decimal.Decimal   `json:"average_rating"`
	Pagination    pagination.Result `json:"pagination"`
}

// FromModel maps a stored review to its API shape.
func FromModel(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:               review.ID,
		UserID:           review.UserID,
		ProductID:        review.ProductID,
		Rating:           review.Rating,
		Title:            review.Title,
		Comment:          review.Comment,
		Pros:             review.Pros,
		Cons:             review.Cons,
		Status:           review.Status,
		VerifiedPurchase: review.VerifiedPurchase,
		CreatedAt:        review.CreatedAt,
	}
}
