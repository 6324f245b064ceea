package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

// StockValidationInput describes the data required to verify a line item's availability.
type StockValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

// ValidateStock ensures every provided line item can be fulfilled from
// current inventory. Violations are reported per item so the client can
// adjust quantities in one pass.
func ValidateStock(items []StockValidationInput) error {
	var violations []pkgerrors.FieldDetail
	for _, item := range items {
		if item.Requested <= item.Available {
			continue
		}
		name := item.ProductName
		if name == "" {
			name = item.ProductID.String()
		}
		violations = append(violations, pkgerrors.FieldDetail{
			Field:   item.ProductID.String(),
			Message: fmt.Sprintf("%s: requested %d but only %d available", name, item.Requested, item.Available),
		})
	}
	if len(violations) == 0 {
		return nil
	}
	msg := fmt.Sprintf("insufficient stock for %d item(s)", len(violations))
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithFields(violations)
}
