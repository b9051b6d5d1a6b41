package middleware

import (
	"context"

	"session-auth-service/internal/user/domain"
)

type contextKey struct{ name string }

var (
	userIDKey = contextKey{"user_id"}
	roleKey   = contextKey{"role"}
)

// WithIdentity returns a context carrying the authenticated user id and role.
func WithIdentity(ctx context.Context, userID string, role domain.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	return ctx
}

// GetUserID returns the authenticated user id and true if set.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetRole returns the authenticated role and true if set.
func GetRole(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(roleKey).(domain.Role)
	return v, ok
}
