package roles

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopvite/shopvite-backend/internal/uow"
)

const versionCacheTTL = 30 * time.Second

type versionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Versions resolves the current version of a role for token validation.
// Lookups ride a short Redis cache so every request does not hit Postgres.
type Versions struct {
	repo  uow.RoleRepository
	cache versionCache
}

// NewVersions builds a role version source. The cache is optional.
func NewVersions(repo uow.RoleRepository, cache versionCache) (*Versions, error) {
	if repo == nil {
		return nil, errors.New("roles: repository is required")
	}
	return &Versions{repo: repo, cache: cache}, nil
}

// CurrentVersion returns the live version for the named role.
func (v *Versions) CurrentVersion(ctx context.Context, roleName string) (int, error) {
	key := "sv:roles:version:" + roleName

	if v.cache != nil {
		if raw, err := v.cache.Get(ctx, key); err == nil && raw != "" {
			if version, convErr := strconv.Atoi(raw); convErr == nil {
				return version, nil
			}
		}
	}

	role, err := v.repo.FindByName(ctx, roleName)
	if err != nil {
		return 0, fmt.Errorf("find role %q: %w", roleName, err)
	}

	if v.cache != nil {
		_ = v.cache.Set(ctx, key, strconv.Itoa(role.Version), versionCacheTTL)
	}
	return role.Version, nil
}
