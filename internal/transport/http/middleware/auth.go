package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"talenthub/internal/domain/auth"
	"talenthub/internal/transport/http/api"
)

// SessionResolver turns verified token claims into the live session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, claims auth.Claims) (auth.UserContext, error)
}

// Auth attaches the session of a valid bearer token to the request context.
// Requests without a usable token pass through anonymously; RequireAuth
// decides whether that is acceptable.
func Auth(secret string, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user := auth.UserContext{UserID: claims.UserID, RoleName: claims.RoleName, SessionID: claims.SessionID}
			if sessions != nil {
				resolved, err := sessions.ResolveSession(r.Context(), *claims)
				if err != nil {
					if !auth.IsAuthError(err) && !errors.Is(err, context.Canceled) {
						slog.Warn("session lookup failed", "err", err, "requestId", GetRequestID(r.Context()))
					}
					next.ServeHTTP(w, r)
					return
				}
				user = resolved
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
