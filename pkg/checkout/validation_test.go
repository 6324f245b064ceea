package checkout

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

func TestValidateStockAllAvailable(t *testing.T) {
	items := []StockValidationInput{
		{ProductID: uuid.New(), Available: 10, Requested: 3},
		{ProductID: uuid.New(), Available: 1, Requested: 1},
	}
	if err := ValidateStock(items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStockReportsEachShortage(t *testing.T) {
	short1 := uuid.New()
	short2 := uuid.New()
	items := []StockValidationInput{
		{ProductID: short1, ProductName: "Desk Lamp", Available: 2, Requested: 5},
		{ProductID: uuid.New(), Available: 4, Requested: 4},
		{ProductID: short2, Available: 0, Requested: 1},
	}

	err := ValidateStock(items)
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %T", err)
	}
	if typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", typed.Code())
	}
	fields := typed.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(fields))
	}
	if fields[0].Field != short1.String() {
		t.Fatalf("unexpected first violation field %q", fields[0].Field)
	}
	if fields[1].Field != short2.String() {
		t.Fatalf("unexpected second violation field %q", fields[1].Field)
	}
}

func TestValidateStockEmptyInput(t *testing.T) {
	if err := ValidateStock(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
