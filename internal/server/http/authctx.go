package httpserver

import (
	"context"

	"github.com/and161185/gamestats/internal/model"
)

type ctxKey string

const (
	identityKey  ctxKey = "gs.identity"
	requestIDKey ctxKey = "gs.requestID"
)

// WithIdentity stores the authenticated caller in context.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx fetches the authenticated caller from context.
func IdentityFromCtx(ctx context.Context) (model.Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return model.Identity{}, false
	}
	id, ok := v.(model.Identity)
	return id, ok
}

// WithRequestID stores the request correlation id in context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx returns the request correlation id or "".
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
