package visibility

import (
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

// EnsureProductVisible enforces canonical rules so deactivated products never
// leak through storefront queries. Hidden products read as not found rather
// than forbidden.
func EnsureProductVisible(product *models.Product) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// EnsurePurchasable extends the visibility check with stock awareness for
// cart and checkout flows.
func EnsurePurchasable(product *models.Product, availableQty int) error {
	if err := EnsureProductVisible(product); err != nil {
		return err
	}
	if availableQty <= 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}
	return nil
}
