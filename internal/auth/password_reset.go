package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"gorm.io/gorm"

	redisclient "github.com/shopvite/shopvite-backend/pkg/redis"

	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/security"
)

const resetCodeDigits = 6

const invalidResetMessage = "invalid or expired reset code"

type resetStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ResetTokenKey(userID string) string
}

// RequestPasswordReset issues a 6-digit code with a short TTL. A second
// request overwrites the first, so one code is active per user. Unknown
// emails return success to keep the endpoint non-enumerating.
func (s *service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.runner.Repos().Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	code, err := security.GenerateOTP(resetCodeDigits)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset code")
	}
	key := s.resets.ResetTokenKey(user.ID.String())
	if err := s.resets.Set(ctx, key, code, s.resetCfg.TokenTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset code")
	}
	return nil
}

// ResetPassword consumes the code, replaces the password hash, and revokes
// any live refresh session.
func (s *service) ResetPassword(ctx context.Context, req PasswordResetConfirm) error {
	email := normalizeEmail(req.Email)
	if email == "" || req.Code == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
	}

	user, err := s.runner.Repos().Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	key := s.resets.ResetTokenKey(user.ID.String())
	stored, err := s.resets.Get(ctx, key)
	if err != nil {
		if redisclient.IsNil(err) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reset code")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(req.Code)) != 1 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidResetMessage)
	}

	passwordHash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.runner.Repos().Users.Update(ctx, user.ID, map[string]any{"password_hash": passwordHash}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	if err := s.resets.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume reset code")
	}
	if err := s.session.Revoke(ctx, user.ID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}
