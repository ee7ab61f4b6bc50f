package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyAdminEmail contextKey = "admin_email"

// adminEmail extracts the authenticated admin's email from context.
func adminEmail(ctx context.Context) string {
	if email, ok := ctx.Value(contextKeyAdminEmail).(string); ok {
		return email
	}
	return ""
}

// RequireAdmin returns the authenticated admin email, or a 401 when the
// request carried no valid token.
func RequireAdmin(ctx context.Context) (string, error) {
	email := adminEmail(ctx)
	if email == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return email, nil
}

// authMiddleware validates Bearer tokens and stores the admin identity
// in context. An absent or invalid token continues without identity;
// handlers use RequireAdmin to reject unauthenticated requests.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyToken(authHeader[7:])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyAdminEmail, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
