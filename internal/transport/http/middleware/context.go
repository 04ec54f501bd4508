package middleware

import (
	"context"

	"talenthub/internal/domain/auth"
	"talenthub/internal/platform/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// WithUser places the resolved session on ctx.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
