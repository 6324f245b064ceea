package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/outbox/payloads"
	"github.com/shopvite/shopvite-backend/pkg/security"
)

// Register creates the user under the default customer role, emits the
// user.registered event in the same transaction, and mints the first token
// pair.
func (s *service) Register(ctx context.Context, req RegisterRequest, clientIP string) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := s.allow(ctx, "auth:register", email, clientIP, s.rateCfg.RegisterEmailLimit, s.rateCfg.RegisterIPLimit, s.rateCfg.RegisterWindow); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		role, err := u.Roles.FindByName(ctx, defaultCustomerRole)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup default role")
		}

		if _, err := u.Users.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		candidate := &models.User{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			RoleID:       role.ID,
			IsActive:     true,
		}
		if err := u.Users.Create(ctx, candidate); err != nil {
			// The unique index backs the pre-check under concurrent signups.
			if db.IsUniqueViolation(err, "ux_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		candidate.Role = role

		event := outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   candidate.ID,
			Actor:         &outbox.ActorRef{UserID: candidate.ID, Role: role.Name},
			Data: payloads.UserRegisteredEvent{
				UserID: candidate.ID,
				Email:  candidate.Email,
				Name:   candidate.FirstName + " " + candidate.LastName,
			},
		}
		if err := u.Outbox.Emit(ctx, u.Tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue registration event")
		}

		user = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.mintPair(ctx, user, time.Now().UTC())
}
