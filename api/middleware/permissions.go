package middleware

import (
	"net/http"

	"github.com/shopvite/shopvite-backend/api/responses"
	pkgauth "github.com/shopvite/shopvite-backend/pkg/auth"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

// RequirePermission gates a route on the caller's role permissions. A grant
// matches exactly, by resource wildcard ("orders:*"), or by the global "*".
func RequirePermission(permission string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted := PermissionsFromContext(r.Context())
			if !pkgauth.AnyPermissionAllows(granted, permission) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
