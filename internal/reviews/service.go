package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// Service exposes review submission, listing and moderation.
type Service interface {
	CreateReview(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error)
	ModerateReview(ctx context.Context, id uuid.UUID, input ModerateReviewInput) (*ReviewDTO, error)
}

type service struct {
	runner uowRunner
}

// NewService wires the review service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, errors.New("reviews: runner is required")
	}
	return &service{runner: runner}, nil
}

func (s *service) CreateReview(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	var created *models.Review
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if _, err := u.Products.FindByID(ctx, input.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		if _, err := u.Reviews.FindByUserAndProduct(ctx, userID, input.ProductID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}

		verified, err := s.verifyPurchase(ctx, u, userID, input.ProductID, input.OrderID)
		if err != nil {
			return err
		}

		review := &models.Review{
			ID:               uuid.New(),
			UserID:           userID,
			ProductID:        input.ProductID,
			OrderID:          input.OrderID,
			Rating:           input.Rating,
			Title:            input.Title,
			Comment:          input.Comment,
			Pros:             input.Pros,
			Cons:             input.Cons,
			Status:           enums.ReviewStatusPending,
			VerifiedPurchase: verified,
		}
		if err := u.Reviews.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "ux_reviews_user_product") {
				return pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}
		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

// verifyPurchase confirms the referenced order belongs to the reviewer and
// actually contains the product. A bad reference is a validation error
// rather than a silent unverified review.
func (s *service) verifyPurchase(ctx context.Context, u *uow.UnitOfWork, userID, productID uuid.UUID, orderID *uuid.UUID) (bool, error) {
	if orderID == nil {
		return false, nil
	}
	order, err := u.Orders.FindByID(ctx, *orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.NewValidation("Invalid order reference", []pkgerrors.FieldDetail{
				{Field: "order_id", Message: "order not found"},
			})
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return false, pkgerrors.NewValidation("Invalid order reference", []pkgerrors.FieldDetail{
			{Field: "order_id", Message: "order not found"},
		})
	}
	for _, item := range order.Items {
		if item.ProductID != nil && *item.ProductID == productID {
			return true, nil
		}
	}
	return false, pkgerrors.NewValidation("Invalid order reference", []pkgerrors.FieldDetail{
		{Field: "order_id", Message: "order does not contain this product"},
	})
}

func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error) {
	params = params.Normalize()
	repos := s.runner.Repos()

	if _, err := repos.Products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	reviews, total, err := repos.Reviews.ListApprovedByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	average, err := repos.Reviews.AverageRating(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "average rating")
	}

	result := &ReviewListResult{
		Reviews:       make([]ReviewDTO, 0, len(reviews)),
		AverageRating: average.Round(2),
		Pagination:    pagination.BuildResult(params, total),
	}
	for i := range reviews {
		result.Reviews = append(result.Reviews, *FromModel(&reviews[i]))
	}
	return result, nil
}

func (s *service) ModerateReview(ctx context.Context, id uuid.UUID, input ModerateReviewInput) (*ReviewDTO, error) {
	status, err := enums.ParseReviewStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.NewValidation("Invalid review status", []pkgerrors.FieldDetail{
			{Field: "status", Message: err.Error()},
		})
	}

	var moderated *models.Review
	err = s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Reviews.UpdateStatus(ctx, id, status); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review status")
		}
		review, err := u.Reviews.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload review")
		}
		moderated = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(moderated), nil
}
