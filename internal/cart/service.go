package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/visibility"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// AddToCartInput is the payload for adding a product line.
type AddToCartInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CartItemDTO is one line of the cart view.
type CartItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
}

// CartDTO is the API view of the cart.
type CartDTO struct {
	ID              uuid.UUID     `json:"id"`
	Items           []CartItemDTO `json:"items"`
	TotalQuantity   int           `json:"total_quantity"`
	TotalPriceCents int           `json:"total_price_cents"`
}

// Service exposes the per-user cart operations.
type Service interface {
	// GetCart returns nil without error when the user has no cart yet.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddToCart(ctx context.Context, userID uuid.UUID, input AddToCartInput) (*CartDTO, error)
	UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	runner uowRunner
}

// NewService builds the cart service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("unit of work runner required")
	}
	return &service{runner: runner}, nil
}

// GetCart loads the cart, dropping lines whose product no longer exists and
// persisting the corrected totals.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	var dto *CartDTO
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		cart, err := u.Carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		if err := s.pruneVanished(ctx, u, cart); err != nil {
			return err
		}
		d := fromModel(cart)
		dto = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (s *service) AddToCart(ctx context.Context, userID uuid.UUID, input AddToCartInput) (*CartDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var dto CartDTO
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		product, err := u.Products.FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}
		if err := visibility.EnsureProductVisible(product); err != nil {
			return err
		}

		cart, err := u.Carts.FindByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
			}
			cart = &models.Cart{UserID: userID}
			if err := u.Carts.Create(ctx, cart); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
			}
		}

		// Duplicate product lines merge by incrementing quantity.
		var existing *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == input.ProductID {
				existing = &cart.Items[i]
				break
			}
		}
		if existing != nil {
			if err := u.Carts.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+input.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart line")
			}
		} else {
			item := &models.CartItem{
				CartID:         cart.ID,
				ProductID:      input.ProductID,
				Quantity:       input.Quantity,
				UnitPriceCents: product.PriceCents,
			}
			if err := u.Carts.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart line")
			}
		}

		return s.reload(ctx, u, userID, &dto)
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var dto CartDTO
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		item, err := s.ownedItem(ctx, u, userID, itemID)
		if err != nil {
			return err
		}
		if err := u.Carts.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return s.reload(ctx, u, userID, &dto)
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	var dto CartDTO
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		item, err := s.ownedItem(ctx, u, userID, itemID)
		if err != nil {
			return err
		}
		if err := u.Carts.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
		}
		return s.reload(ctx, u, userID, &dto)
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		cart, err := u.Carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if err := u.Carts.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		if err := u.Carts.UpdateTotals(ctx, cart.ID, 0, 0); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist totals")
		}
		return nil
	})
}

// ownedItem resolves the line and verifies it belongs to the caller's cart.
func (s *service) ownedItem(ctx context.Context, u *uow.UnitOfWork, userID, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := u.Carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	item, err := u.Carts.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart line")
	}
	if item.CartID != cart.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
	}
	return item, nil
}

// reload recomputes totals from the line items, persists them, and fills dto.
func (s *service) reload(ctx context.Context, u *uow.UnitOfWork, userID uuid.UUID, dto *CartDTO) error {
	cart, err := u.Carts.FindByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	if err := persistTotals(ctx, u, cart); err != nil {
		return err
	}
	*dto = fromModel(cart)
	return nil
}

// pruneVanished drops lines whose product row no longer exists.
func (s *service) pruneVanished(ctx context.Context, u *uow.UnitOfWork, cart *models.Cart) error {
	if len(cart.Items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := u.Products.FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}
	known := make(map[uuid.UUID]struct{}, len(products))
	for _, product := range products {
		known[product.ID] = struct{}{}
	}

	kept := cart.Items[:0]
	pruned := false
	for _, item := range cart.Items {
		if _, ok := known[item.ProductID]; !ok {
			if err := u.Carts.DeleteItem(ctx, item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prune cart line")
			}
			pruned = true
			continue
		}
		kept = append(kept, item)
	}
	cart.Items = kept
	if pruned {
		return persistTotals(ctx, u, cart)
	}
	return nil
}

func persistTotals(ctx context.Context, u *uow.UnitOfWork, cart *models.Cart) error {
	quantity, price := computeTotals(cart.Items)
	if cart.TotalQuantity != quantity || cart.TotalPriceCents != price {
		if err := u.Carts.UpdateTotals(ctx, cart.ID, quantity, price); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist totals")
		}
	}
	cart.TotalQuantity = quantity
	cart.TotalPriceCents = price
	return nil
}

func computeTotals(items []models.CartItem) (quantity, priceCents int) {
	for _, item := range items {
		quantity += item.Quantity
		priceCents += item.Quantity * item.UnitPriceCents
	}
	return quantity, priceCents
}

func fromModel(cart *models.Cart) CartDTO {
	dto := CartDTO{
		ID:              cart.ID,
		Items:           make([]CartItemDTO, 0, len(cart.Items)),
		TotalQuantity:   cart.TotalQuantity,
		TotalPriceCents: cart.TotalPriceCents,
	}
	for _, item := range cart.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.Quantity * item.UnitPriceCents,
		})
	}
	return dto
}
