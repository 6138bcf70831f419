// Package ctxutil carries per-request values (resolved identity, request ID)
// through context.Context.
package ctxutil

import (
	"context"

	"github.com/avolkova/journal/internal/domain"
)

type ctxKey string

const (
	identityKey  ctxKey = "identity"
	requestIDKey ctxKey = "request_id"
)

// WithIdentity stores the resolved identity in the context.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx extracts the identity from the context.
// A missing or mistyped value resolves to domain.Anonymous.
func IdentityFromCtx(ctx context.Context) domain.Identity {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok {
		return domain.Anonymous
	}
	return id
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
