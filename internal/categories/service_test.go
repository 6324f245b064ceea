package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/uow/uowtest"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *uowtest.Runner) {
	t.Helper()
	runner := uowtest.NewRunner()
	svc, err := NewService(runner)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, runner
}

func TestCreateCategory(t *testing.T) {
	svc, _ := newTestService(t)

	dto, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Audio"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if dto.Name != "Audio" || dto.ID == uuid.Nil {
		t.Fatalf("unexpected dto %+v", dto)
	}
}

func TestCreateCategoryNameConflict(t *testing.T) {
	svc, runner := newTestService(t)
	runner.Store.SeedCategory("Audio")

	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "Audio"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestGetCategory(t *testing.T) {
	svc, runner := newTestService(t)
	category := runner.Store.SeedCategory("Audio")

	dto, err := svc.GetCategory(context.Background(), category.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if dto.ID != category.ID || dto.Name != "Audio" {
		t.Fatalf("unexpected dto %+v", dto)
	}

	_, err = svc.GetCategory(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	svc, runner := newTestService(t)
	category := runner.Store.SeedCategory("Audio")

	name := "Audio & Video"
	dto, err := svc.UpdateCategory(context.Background(), category.ID, UpdateCategoryInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if dto.Name != "Audio & Video" {
		t.Fatalf("expected renamed category, got %q", dto.Name)
	}
}

func TestDeleteCategoryBlockedByProducts(t *testing.T) {
	svc, runner := newTestService(t)
	category := runner.Store.SeedCategory("Audio")
	product := runner.Store.SeedProduct("Headphones", 12999, category.ID)

	err := svc.DeleteCategory(context.Background(), category.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT while products exist, got %v", err)
	}

	delete(runner.Store.Products, product.ID)
	if err := svc.DeleteCategory(context.Background(), category.ID); err != nil {
		t.Fatalf("DeleteCategory after removing products: %v", err)
	}
	if _, exists := runner.Store.Categories[category.ID]; exists {
		t.Fatal("expected category removed")
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeleteCategory(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
