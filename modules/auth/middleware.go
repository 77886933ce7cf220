package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/everly-app/everly/internal/api"
)

type contextKey int

const claimsContextKey contextKey = iota

// RequireAuth is the HTTP middleware sibling modules wrap their protected
// routes with. It validates the bearer token and stores the claims on the
// request context.
func RequireAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				api.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := v.ValidateToken(token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user's ID, or "" when the
// request did not pass through RequireAuth.
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}
