package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// CreateCategoryInput is the payload for a new category.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// UpdateCategoryInput carries mutable category fields; nil leaves a field
// unchanged.
type UpdateCategoryInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// CategoryDTO is the API view of a category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service exposes catalog category operations.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type service struct {
	runner uowRunner
}

// NewService builds the categories service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("unit of work runner required")
	}
	return &service{runner: runner}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		ImageURL:    input.ImageURL,
	}
	if category.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.runner.Repos().Categories.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "ux_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	dto := fromModel(category)
	return &dto, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.runner.Repos().Categories.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		dtos = append(dtos, fromModel(&categories[i]))
	}
	return dtos, nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.runner.Repos().Categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	dto := fromModel(category)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}

	repos := s.runner.Repos()
	if _, err := repos.Categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	if len(updates) > 0 {
		if err := repos.Categories.Update(ctx, id, updates); err != nil {
			if db.IsUniqueViolation(err, "ux_categories_name") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already in use")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
		}
	}
	updated, err := repos.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload category")
	}
	dto := fromModel(updated)
	return &dto, nil
}

// DeleteCategory removes the category unless products still reference it.
// The guard and the delete share one transaction so a concurrent product
// create cannot slip between them.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if _, err := u.Categories.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
		}

		count, err := u.Products.CountByCategory(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count category products")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category still has associated products")
		}

		if err := u.Categories.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
		}
		return nil
	})
}

func fromModel(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		ImageURL:    category.ImageURL,
		CreatedAt:   category.CreatedAt,
	}
}
