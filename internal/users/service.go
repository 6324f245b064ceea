package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	dbtypes "github.com/shopvite/shopvite-backend/pkg/db/types"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// Service exposes profile and favorites operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
	AddFavorite(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	runner uowRunner
}

// NewService builds the users service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("unit of work runner required")
	}
	return &service{runner: runner}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.findUser(ctx, s.runner.Repos(), userID)
	if err != nil {
		return nil, err
	}
	profile := NewProfile(user)
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}

	var profile Profile
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		user, err := s.findUser(ctx, u, userID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := u.Users.Update(ctx, userID, updates); err != nil {
				return err
			}
			user, err = s.findUser(ctx, u, userID)
			if err != nil {
				return err
			}
		}
		profile = NewProfile(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListFavorites loads the user's favorite products. Ids whose product has
// been deleted are pruned from the user row on read.
func (s *service) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var favorites []models.Product
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		user, err := s.findUser(ctx, u, userID)
		if err != nil {
			return err
		}
		if len(user.Favorites) == 0 {
			favorites = []models.Product{}
			return nil
		}

		products, err := u.Products.FindByIDs(ctx, user.Favorites)
		if err != nil {
			return err
		}

		if len(products) != len(user.Favorites) {
			kept := make(dbtypes.UUIDArray, 0, len(products))
			for _, product := range products {
				kept = append(kept, product.ID)
			}
			if err := u.Users.Update(ctx, userID, map[string]any{"favorites": kept}); err != nil {
				return err
			}
		}
		favorites = products
		return nil
	})
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

func (s *service) AddFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		user, err := s.findUser(ctx, u, userID)
		if err != nil {
			return err
		}
		if _, err := u.Products.FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}
		if user.Favorites.Contains(productID) {
			return nil
		}
		updated := append(user.Favorites, productID)
		return u.Users.Update(ctx, userID, map[string]any{"favorites": updated})
	})
}

func (s *service) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		user, err := s.findUser(ctx, u, userID)
		if err != nil {
			return err
		}
		if !user.Favorites.Contains(productID) {
			return nil
		}
		return u.Users.Update(ctx, userID, map[string]any{"favorites": user.Favorites.Without(productID)})
	})
}

func (s *service) findUser(ctx context.Context, u *uow.UnitOfWork, userID uuid.UUID) (*models.User, error) {
	user, err := u.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}
