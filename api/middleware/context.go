package middleware

import (
	"context"

	"github.com/google/uuid"
)

type callerKey struct{}

// WithCaller stores the authenticated user in the request context.
func WithCaller(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFromContext returns the authenticated user, if any.
func CallerFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(callerKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// UserIDFromContext is the string form used for log fields and limiter keys.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := CallerFromContext(ctx); ok {
		return id.String()
	}
	return ""
}
