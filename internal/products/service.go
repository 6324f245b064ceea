package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
	"github.com/shopvite/shopvite-backend/pkg/visibility"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// Service exposes catalog product operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error)
	GetProductBySlug(ctx context.Context, slug string, includeInactive bool) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, hard bool) error
}

type service struct {
	runner uowRunner
}

// NewService builds the products service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("unit of work runner required")
	}
	return &service{runner: runner}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = GenerateSlug(input.Name)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name must contain at least one letter or digit")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	var dto ProductDTO
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if _, err := u.Categories.FindByID(ctx, input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
		}

		product := &models.Product{
			Name:               strings.TrimSpace(input.Name),
			Slug:               slug,
			Description:        input.Description,
			SKU:                strings.TrimSpace(input.SKU),
			CategoryID:         input.CategoryID,
			PriceCents:         input.PriceCents,
			OriginalPriceCents: input.OriginalPriceCents,
			ImageURL:           input.ImageURL,
			IsActive:           active,
			IsFeatured:         input.IsFeatured,
		}
		if err := u.Products.Create(ctx, product); err != nil {
			return mapProductConflict(err, "create product")
		}

		if len(input.Variants) > 0 {
			variants := buildVariants(product.ID, input.Variants)
			if err := u.Products.ReplaceVariants(ctx, product.ID, variants); err != nil {
				return mapProductConflict(err, "create variants")
			}
		}

		created, err := u.Products.FindByID(ctx, product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
		}
		dto = FromModel(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	product, err := s.runner.Repos().Products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	return s.present(ctx, product, includeInactive)
}

func (s *service) GetProductBySlug(ctx context.Context, slug string, includeInactive bool) (*ProductDTO, error) {
	product, err := s.runner.Repos().Products.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
	}
	return s.present(ctx, product, includeInactive)
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	filters := uow.ProductFilters{
		CategoryID: input.CategoryID,
		Active:     input.Active,
		Featured:   input.Featured,
		Search:     input.Search,
	}
	products, total, err := s.runner.Repos().Products.List(ctx, input.Pagination, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, FromModel(&products[i]))
	}
	return &ProductListResult{
		Products:   dtos,
		Pagination: pagination.BuildResult(input.Pagination, total),
	}, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PriceCents != nil {
		updates["price_cents"] = *input.PriceCents
	}
	if input.OriginalPriceCents != nil {
		updates["original_price_cents"] = *input.OriginalPriceCents
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}

	var dto ProductDTO
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if _, err := u.Products.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}

		if input.CategoryID != nil {
			if _, err := u.Categories.FindByID(ctx, *input.CategoryID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
			}
			updates["category_id"] = *input.CategoryID
		}

		if len(updates) > 0 {
			if err := u.Products.Update(ctx, id, updates); err != nil {
				return mapProductConflict(err, "update product")
			}
		}
		if input.Variants != nil {
			variants := buildVariants(id, *input.Variants)
			if err := u.Products.ReplaceVariants(ctx, id, variants); err != nil {
				return mapProductConflict(err, "replace variants")
			}
		}

		updated, err := u.Products.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
		}
		dto = FromModel(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// DeleteProduct deactivates the listing; a hard delete removes the row and
// cascades to variants.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID, hard bool) error {
	repos := s.runner.Repos()
	if !hard {
		if _, err := repos.Products.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product")
		}
		if err := repos.Products.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate product")
		}
		return nil
	}
	if err := repos.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

// present applies storefront visibility and attaches the aggregate stock.
func (s *service) present(ctx context.Context, product *models.Product, includeInactive bool) (*ProductDTO, error) {
	if !includeInactive {
		if err := visibility.EnsureProductVisible(product); err != nil {
			return nil, err
		}
	}
	dto := FromModel(product)
	available, err := s.runner.Repos().Inventory.AvailableForProduct(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stock")
	}
	dto.AvailableQty = &available
	return &dto, nil
}

func buildVariants(productID uuid.UUID, inputs []VariantInput) []models.ProductVariant {
	variants := make([]models.ProductVariant, 0, len(inputs))
	for _, input := range inputs {
		variants = append(variants, models.ProductVariant{
			ProductID:  productID,
			SKU:        strings.TrimSpace(input.SKU),
			Name:       strings.TrimSpace(input.Name),
			PriceCents: input.PriceCents,
			Attributes: input.Attributes,
		})
	}
	return variants
}

func mapProductConflict(err error, op string) error {
	switch {
	case db.IsUniqueViolation(err, "ux_products_slug"):
		return pkgerrors.New(pkgerrors.CodeConflict, "product slug already in use")
	case db.IsUniqueViolation(err, "ux_products_sku"):
		return pkgerrors.New(pkgerrors.CodeConflict, "product sku already in use")
	case db.IsUniqueViolation(err, "ux_product_variants_sku"):
		return pkgerrors.New(pkgerrors.CodeConflict, "variant sku already in use")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
	}
}
