package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/internal/users"
	pkgAuth "github.com/shopvite/shopvite-backend/pkg/auth"
	"github.com/shopvite/shopvite-backend/pkg/auth/session"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	defaultCustomerRole       = "customer"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

type sessionManager interface {
	Generate(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, userID, provided string) error
	Revoke(ctx context.Context, userID string) error
}

type authLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest, clientIP string) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest, clientIP string) (*AuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ResetPassword(ctx context.Context, req PasswordResetConfirm) error
	ChangePermission(ctx context.Context, actor uuid.UUID, req ChangePermissionRequest) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Runner         uowRunner
	SessionManager sessionManager
	ResetStore     resetStore
	Limiter        authLimiter
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	ResetConfig    config.PasswordResetConfig
	RateLimit      config.AuthRateLimitConfig
}

type service struct {
	runner      uowRunner
	session     sessionManager
	resets      resetStore
	limiter     authLimiter
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	resetCfg    config.PasswordResetConfig
	rateCfg     config.AuthRateLimitConfig
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Runner == nil {
		return nil, fmt.Errorf("unit of work runner required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if params.ResetStore == nil {
		return nil, fmt.Errorf("reset store required")
	}
	if params.Limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	return &service{
		runner:      params.Runner,
		session:     params.SessionManager,
		resets:      params.ResetStore,
		limiter:     params.Limiter,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		resetCfg:    params.ResetConfig,
		rateCfg:     params.RateLimit,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, clientIP string) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if err := s.allow(ctx, "auth:login", email, clientIP, s.rateCfg.LoginEmailLimit, s.rateCfg.LoginIPLimit, s.rateCfg.LoginWindow); err != nil {
		return nil, err
	}

	user, err := s.authenticate(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]any{"last_login_at": now}
	if err := s.runner.Repos().Users.Update(ctx, user.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}
	user.LastLoginAt = &now

	return s.mintPair(ctx, user, now)
}

// Refresh re-mints the access token. The owner is identified from the
// expired access token; the refresh token itself is compared in constant
// time against the stored session and stays valid until logout or expiry.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err := s.session.Validate(ctx, claims.UserID.String(), req.RefreshToken); err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate refresh token")
	}

	// Reload the user so role and permission changes made since login ride
	// the new token.
	user, err := s.runner.Repos().Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	accessToken, err := s.mintAccess(user, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: accessToken}, nil
}

func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if err := s.session.Revoke(ctx, userID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

// ChangePermission reassigns a user's role and/or replaces a role's
// permission list in one transaction. Replacing permissions bumps the role
// version so tokens minted before the change stop passing middleware.
func (s *service) ChangePermission(ctx context.Context, actor uuid.UUID, req ChangePermissionRequest) error {
	roleName := strings.TrimSpace(req.RoleName)
	if roleName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "role_name is required")
	}
	if req.UserID == nil && req.Permissions == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing to change")
	}

	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		role, err := u.Roles.FindByName(ctx, roleName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup role")
		}

		if req.UserID != nil {
			if _, err := u.Users.FindByID(ctx, *req.UserID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
			}
			if err := u.Users.Update(ctx, *req.UserID, map[string]any{"role_id": role.ID}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reassign role")
			}
		}

		if req.Permissions != nil {
			if err := u.Roles.UpdatePermissions(ctx, role.ID, *req.Permissions, actor); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update permissions")
			}
		}
		return nil
	})
}

// authenticate resolves credentials to a user. Unknown email, wrong
// password, and inactive account all produce the same 401.
func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.runner.Repos().Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) mintPair(ctx context.Context, user *models.User, now time.Time) (*AuthResponse, error) {
	accessToken, err := s.mintAccess(user, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, user.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	profile := users.NewProfile(user)
	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &profile,
	}, nil
}

func (s *service) mintAccess(user *models.User, now time.Time) (string, error) {
	if user.Role == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "user role not loaded")
	}
	payload := pkgAuth.AccessTokenPayload{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role.Name,
		RoleVersion: user.Role.Version,
		Permissions: user.Role.Permissions,
		JTI:         session.NewAccessID(),
	}
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return accessToken, nil
}

// allow applies the fixed-window limits per email and per client IP.
func (s *service) allow(ctx context.Context, action, email, clientIP string, emailLimit, ipLimit int, window time.Duration) error {
	if email != "" && emailLimit > 0 {
		ok, _, err := s.limiter.FixedWindowAllow(ctx, action+":email:"+email, int64(emailLimit), window)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit check")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
		}
	}
	if clientIP != "" && ipLimit > 0 {
		ok, _, err := s.limiter.FixedWindowAllow(ctx, action+":ip:"+clientIP, int64(ipLimit), window)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit check")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
