package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/uow/uowtest"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

type reviewsFixture struct {
	svc     Service
	runner  *uowtest.Runner
	userID  uuid.UUID
	product *models.Product
}

func newReviewsFixture(t *testing.T) *reviewsFixture {
	t.Helper()
	runner := uowtest.NewRunner()
	svc, err := NewService(runner)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("reviewer@example.com", role)
	category := runner.Store.SeedCategory("Audio")
	product := runner.Store.SeedProduct("Earbuds", 5999, category.ID)
	return &reviewsFixture{svc: svc, runner: runner, userID: user.ID, product: product}
}

func (fx *reviewsFixture) seedDeliveredOrder(t *testing.T, productID uuid.UUID) *models.Order {
	t.Helper()
	pid := productID
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: 100001,
		UserID:      fx.userID,
		Status:      enums.OrderStatusDelivered,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: &pid, Name: "Earbuds", Quantity: 1, UnitPriceCents: 5999, TotalCents: 5999},
		},
	}
	fx.runner.Store.Orders[order.ID] = order
	return order
}

func TestCreateReviewStartsPending(t *testing.T) {
	fx := newReviewsFixture(t)

	dto, err := fx.svc.CreateReview(context.Background(), fx.userID, CreateReviewInput{
		ProductID: fx.product.ID,
		Rating:    4,
		Title:     "Solid sound",
		Pros:      []string{"battery"},
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if dto.Status != enums.ReviewStatusPending {
		t.Fatalf("expected PENDING, got %s", dto.Status)
	}
	if dto.VerifiedPurchase {
		t.Fatal("expected unverified review without order reference")
	}
}

func TestCreateReviewDuplicate(t *testing.T) {
	fx := newReviewsFixture(t)

	input := CreateReviewInput{ProductID: fx.product.ID, Rating: 5, Title: "Great"}
	if _, err := fx.svc.CreateReview(context.Background(), fx.userID, input); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	_, err := fx.svc.CreateReview(context.Background(), fx.userID, input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	fx := newReviewsFixture(t)

	_, err := fx.svc.CreateReview(context.Background(), fx.userID, CreateReviewInput{
		ProductID: uuid.New(),
		Rating:    3,
		Title:     "Hmm",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateReviewVerifiedPurchase(t *testing.T) {
	fx := newReviewsFixture(t)
	order := fx.seedDeliveredOrder(t, fx.product.ID)

	dto, err := fx.svc.CreateReview(context.Background(), fx.userID, CreateReviewInput{
		ProductID: fx.product.ID,
		OrderID:   &order.ID,
		Rating:    5,
		Title:     "As ordered",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if !dto.VerifiedPurchase {
		t.Fatal("expected verified purchase")
	}
}

func TestCreateReviewRejectsForeignOrderReference(t *testing.T) {
	fx := newReviewsFixture(t)
	order := fx.seedDeliveredOrder(t, fx.product.ID)
	order.UserID = uuid.New()

	_, err := fx.svc.CreateReview(context.Background(), fx.userID, CreateReviewInput{
		ProductID: fx.product.ID,
		OrderID:   &order.ID,
		Rating:    5,
		Title:     "Sneaky",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateReviewRejectsOrderWithoutProduct(t *testing.T) {
	fx := newReviewsFixture(t)
	order := fx.seedDeliveredOrder(t, uuid.New())

	_, err := fx.svc.CreateReview(context.Background(), fx.userID, CreateReviewInput{
		ProductID: fx.product.ID,
		OrderID:   &order.ID,
		Rating:    5,
		Title:     "Wrong order",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListProductReviewsApprovedOnly(t *testing.T) {
	fx := newReviewsFixture(t)

	first, err := fx.svc.CreateReview(context.Background(), fx.userID, CreateReviewInput{
		ProductID: fx.product.ID,
		Rating:    4,
		Title:     "Good",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	otherRole := fx.runner.Store.SeedRole("customer-2", nil)
	other := fx.runner.Store.SeedUser("second@example.com", otherRole)
	second, err := fx.svc.CreateReview(context.Background(), other.ID, CreateReviewInput{
		ProductID: fx.product.ID,
		Rating:    2,
		Title:     "Meh",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	if _, err := fx.svc.ModerateReview(context.Background(), first.ID, ModerateReviewInput{Status: "APPROVED"}); err != nil {
		t.Fatalf("ModerateReview: %v", err)
	}
	if _, err := fx.svc.ModerateReview(context.Background(), second.ID, ModerateReviewInput{Status: "APPROVED"}); err != nil {
		t.Fatalf("ModerateReview: %v", err)
	}
	pending, err := fx.svc.CreateReview(context.Background(), fx.runner.Store.SeedUser("third@example.com", otherRole).ID, CreateReviewInput{
		ProductID: fx.product.ID,
		Rating:    1,
		Title:     "Pending only",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	_ = pending

	result, err := fx.svc.ListProductReviews(context.Background(), fx.product.ID, pagination.Params{})
	if err != nil {
		t.Fatalf("ListProductReviews: %v", err)
	}
	if len(result.Reviews) != 2 {
		t.Fatalf("expected 2 approved reviews, got %d", len(result.Reviews))
	}
	if got := result.AverageRating.StringFixed(2); got != "3.00" {
		t.Fatalf("expected average 3.00, got %s", got)
	}
	if result.Pagination.Total != 2 {
		t.Fatalf("expected total 2, got %d", result.Pagination.Total)
	}
}

func TestModerateReviewValidation(t *testing.T) {
	fx := newReviewsFixture(t)

	_, err := fx.svc.ModerateReview(context.Background(), uuid.New(), ModerateReviewInput{Status: "LOUD"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = fx.svc.ModerateReview(context.Background(), uuid.New(), ModerateReviewInput{Status: "APPROVED"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
