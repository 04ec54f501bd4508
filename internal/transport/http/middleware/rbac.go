package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"talenthub/internal/transport/http/api"
)

// PermissionStore answers whether a role holds a permission key such as
// "assessment.write".
type PermissionStore interface {
	HasPermission(ctx context.Context, roleName, permission string) (bool, error)
}

// RequirePermission admits the request only when the session's role holds
// every listed permission.
func RequirePermission(permission string, store PermissionStore, more ...string) func(http.Handler) http.Handler {
	required := append([]string{permission}, more...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}
			for _, perm := range required {
				allowed, err := store.HasPermission(r.Context(), user.RoleName, perm)
				if err != nil {
					slog.Error("permission lookup failed", "permission", perm, "role", user.RoleName, "err", err)
					api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
					return
				}
				if !allowed {
					slog.Debug("permission denied", "permission", perm, "role", user.RoleName, "userId", user.UserID)
					api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
