package visibility

import (
	"testing"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

func TestEnsureProductVisible(t *testing.T) {
	tests := []struct {
		name     string
		product  *models.Product
		wantCode pkgerrors.Code
	}{
		{name: "nil product", product: nil, wantCode: pkgerrors.CodeNotFound},
		{name: "inactive product", product: &models.Product{IsActive: false}, wantCode: pkgerrors.CodeNotFound},
		{name: "active product", product: &models.Product{IsActive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureProductVisible(tt.product)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil {
				t.Fatalf("expected typed error, got %v", err)
			}
			if typed.Code() != tt.wantCode {
				t.Fatalf("expected %s, got %s", tt.wantCode, typed.Code())
			}
		})
	}
}

func TestEnsurePurchasable(t *testing.T) {
	active := &models.Product{IsActive: true}

	if err := EnsurePurchasable(active, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := EnsurePurchasable(active, 0)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	err = EnsurePurchasable(&models.Product{IsActive: false}, 5)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
