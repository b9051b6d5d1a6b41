// Package middleware implements the request-time access guard: bearer token
// authentication followed by role authorization, in that order.
package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"session-auth-service/internal/apperr"
	"session-auth-service/internal/security"
	"session-auth-service/internal/server/httpx"
	"session-auth-service/internal/user/domain"
)

const bearerPrefix = "bearer "

// Authenticate verifies the Authorization bearer token and attaches the
// verified identity to the request context. Missing header, wrong scheme, and
// failed verification all fail unauthorized.
func Authenticate(tokens *security.TokenService, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpx.WriteError(log, w, r, apperr.Unauthorized("authorization header not found"))
				return
			}
			token := extractBearer(header)
			if token == "" {
				httpx.WriteError(log, w, r, apperr.Unauthorized("malformed authorization header"))
				return
			}
			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				httpx.WriteError(log, w, r, err)
				return
			}
			ctx := WithIdentity(r.Context(), claims.UserID, domain.Role(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose attached role is not in the allow-list.
// Must run after Authenticate; a missing identity is forbidden, not a panic.
func RequireRole(log zerolog.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok || !allowed[role] {
				httpx.WriteError(log, w, r, apperr.Forbidden("you do not have permission to access this resource"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer returns the token from an Authorization header value, or ""
// when the scheme is not Bearer or the token is missing.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
