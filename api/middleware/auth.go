package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopvite/shopvite-backend/api/responses"
	pkgauth "github.com/shopvite/shopvite-backend/pkg/auth"
	"github.com/shopvite/shopvite-backend/pkg/config"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

// SessionChecker reports whether a user still has a live refresh session.
// A logout revokes the session, which invalidates outstanding access tokens.
type SessionChecker interface {
	HasSession(ctx context.Context, userID string) (bool, error)
}

// RoleVersionSource returns the current version of a named role. Tokens
// minted before a permission change carry a stale version and are rejected.
type RoleVersionSource interface {
	CurrentVersion(ctx context.Context, roleName string) (int, error)
}

// Auth validates a bearer token and seeds the request context with the
// claims. WebSocket handshakes cannot set headers from a browser, so the
// token may also ride the "token" query parameter.
func Auth(cfg config.JWTConfig, sessions SessionChecker, roleVersions RoleVersionSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if sessions != nil {
				ok, err := sessions.HasSession(r.Context(), claims.UserID.String())
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
					return
				}
			}

			if roleVersions != nil {
				current, err := roleVersions.CurrentVersion(r.Context(), claims.Role)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve role version"))
					return
				}
				if current != claims.RoleVersion {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "permissions changed, sign in again"))
					return
				}
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRole(ctx, claims.Role)
			ctx = WithPermissions(ctx, claims.Permissions)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": claims.Role,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the access token from the Authorization header or
// the "token" query parameter.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
