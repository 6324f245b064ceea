package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
	"github.com/shopvite/shopvite-backend/pkg/types"
)

// CreateProductInput holds the validated payload to create a product. Slug
// is derived from the name unless provided explicitly.
type CreateProductInput struct {
	Name               string  `json:"name" validate:"required"`
	Slug               string  `json:"slug,omitempty"`
	Description        *string `json:"description,omitempty"`
	SKU                string  `json:"sku" validate:"required"`
	CategoryID         uuid.UUID `json:"category_id" validate:"required"`
	PriceCents         int     `json:"price_cents" validate:"required,gt=0"`
	OriginalPriceCents *int    `json:"original_price_cents,omitempty"`
	ImageURL           *string `json:"image_url,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
	IsFeatured         bool    `json:"is_featured,omitempty"`
	Variants           []VariantInput `json:"variants,omitempty"`
}

// UpdateProductInput carries the mutable product fields. Nil means "leave
// unchanged"; a non-nil Variants slice replaces the full variant set.
type UpdateProductInput struct {
	Name               *string    `json:"name,omitempty"`
	Description        *string    `json:"description,omitempty"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	PriceCents         *int       `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	OriginalPriceCents *int       `json:"original_price_cents,omitempty"`
	ImageURL           *string    `json:"image_url,omitempty"`
	IsActive           *bool      `json:"is_active,omitempty"`
	IsFeatured         *bool      `json:"is_featured,omitempty"`
	Variants           *[]VariantInput `json:"variants,omitempty"`
}

// VariantInput describes one purchasable variation in a product payload.
type VariantInput struct {
	SKU        string         `json:"sku" validate:"required"`
	Name       string         `json:"name" validate:"required"`
	PriceCents *int           `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	Attributes *types.JSONMap `json:"attributes,omitempty"`
}

// ListProductsInput bundles pagination with the supported list filters.
type ListProductsInput struct {
	Pagination pagination.Params
	CategoryID *uuid.UUID
	Active     *bool
	Featured   *bool
	Search     string
}

// VariantDTO is the API view of a product variant.
type VariantDTO struct {
	ID         uuid.UUID      `json:"id"`
	SKU        string         `json:"sku"`
	Name       string         `json:"name"`
	PriceCents *int           `json:"price_cents,omitempty"`
	Attributes *types.JSONMap `json:"attributes,omitempty"`
}

// ProductDTO is the API view of a product.
type ProductDTO struct {
	ID                 uuid.UUID    `json:"id"`
	Name               string       `json:"name"`
	Slug               string       `json:"slug"`
	Description        *string      `json:"description,omitempty"`
	SKU                string       `json:"sku"`
	CategoryID         uuid.UUID    `json:"category_id"`
	CategoryName       string       `json:"category_name,omitempty"`
	PriceCents         int          `json:"price_cents"`
	OriginalPriceCents *int         `json:"original_price_cents,omitempty"`
	ImageURL           *string      `json:"image_url,omitempty"`
	IsActive           bool         `json:"is_active"`
	IsFeatured         bool         `json:"is_featured"`
	AvailableQty       *int         `json:"available_qty,omitempty"`
	Variants           []VariantDTO `json:"variants,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// ProductListResult pairs a product page with its pagination metadata.
type ProductListResult struct {
	Products   []ProductDTO      `json:"products"`
	Pagination pagination.Result `json:"pagination"`
}

// FromModel maps the product row (with preloaded associations) to its DTO.
func FromModel(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:                 product.ID,
		Name:               product.Name,
		Slug:               product.Slug,
		Description:        product.Description,
		SKU:                product.SKU,
		CategoryID:         product.CategoryID,
		PriceCents:         product.PriceCents,
		OriginalPriceCents: product.OriginalPriceCents,
		ImageURL:           product.ImageURL,
		IsActive:           product.IsActive,
		IsFeatured:         product.IsFeatured,
		CreatedAt:          product.CreatedAt,
		UpdatedAt:          product.UpdatedAt,
	}
	if product.Category != nil {
		dto.CategoryName = product.Category.Name
	}
	for _, variant := range product.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:         variant.ID,
			SKU:        variant.SKU,
			Name:       variant.Name,
			PriceCents: variant.PriceCents,
			Attributes: variant.Attributes,
		})
	}
	return dto
}
