package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aldermere/storefront/internal/auth"
)

const principalContextKey contextKey = "principal"

// RequireAuth verifies the Authorization bearer token and stores the
// principal id it resolves to in the request context. Requests without a
// valid token are rejected with 401.
func RequireAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			principalID, err := tokens.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipalID retrieves the authenticated user id from the context.
// Returns "" when the request was not authenticated.
func GetPrincipalID(ctx context.Context) string {
	if id, ok := ctx.Value(principalContextKey).(string); ok {
		return id
	}
	return ""
}
