package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/auth"
	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
)

type contextKey string

const userKey contextKey = "user"

// SessionAuth validates the Bearer session token and stores the user in the
// request context. Any invalid or missing token is treated as signed out.
func SessionAuth(tokens *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			user, err := tokens.Verify(token)
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from context
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}
