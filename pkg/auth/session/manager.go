package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/shopvite/shopvite-backend/pkg/config"
	redisclient "github.com/shopvite/shopvite-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	RefreshTokenKey(userID string) string
}

// Manager handles refresh token creation, validation, and revocation.
// Sessions are keyed by user id: a later login overwrites the earlier one,
// so at most one refresh token is live per user.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// SessionChecker exposes the read-only surface needed by middleware.
type SessionChecker interface {
	HasSession(ctx context.Context, userID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Generate creates a refresh token for the user and stores it in Redis,
// replacing any prior session.
func (m *Manager) Generate(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.RefreshTokenKey(userID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Validate compares the provided refresh token against the stored one in
// constant time. The token stays valid until logout or expiry; refresh only
// re-mints the access token.
func (m *Manager) Validate(ctx context.Context, userID, provided string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(provided) == "" {
		return ErrInvalidRefreshToken
	}

	stored, err := m.store.Get(ctx, m.keyer.RefreshTokenKey(userID))
	if err != nil {
		return wrapNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return ErrInvalidRefreshToken
	}
	return nil
}

// Revoke deletes the refresh session for the user.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	return m.store.Del(ctx, m.keyer.RefreshTokenKey(userID))
}

// HasSession reports whether the user still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("user id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.RefreshTokenKey(userID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}
