package requestctx

import "context"

type ctxKey string

const metaKey ctxKey = "request_meta"

// Meta is the per-request metadata that outlives the transport layer, so the
// audit trail and logs can pick it up from the context.
type Meta struct {
	RequestID string
	ClientIP  string
}

func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey, meta)
}

func GetMeta(ctx context.Context) Meta {
	if value, ok := ctx.Value(metaKey).(Meta); ok {
		return value
	}
	return Meta{}
}

func GetRequestID(ctx context.Context) string {
	return GetMeta(ctx).RequestID
}

func GetClientIP(ctx context.Context) string {
	return GetMeta(ctx).ClientIP
}
