package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"talenthub/internal/platform/requestctx"
	"talenthub/internal/transport/http/shared"
)

const maxRequestIDLength = 128

// RequestID propagates X-Request-ID (or mints one) and records the client IP
// for the audit trail.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.WithMeta(r.Context(), requestctx.Meta{RequestID: reqID, ClientIP: shared.RemoteIP(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
