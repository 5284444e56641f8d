package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/arkhipov/post-service/internal/apperr"
	"github.com/arkhipov/post-service/internal/token"
	"github.com/gorilla/mux"
)

type contextKey struct{}

var identityKey contextKey

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID int
	Role   string
}

// Auth verifies the bearer token on every request and attaches the decoded
// identity to the context. Requests without a valid token never reach the
// wrapped handler.
func Auth(tokens *token.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apperr.Write(w, apperr.Unauthorized("Token not provided"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				apperr.Write(w, apperr.Unauthorized("Invalid token"))
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				apperr.Write(w, apperr.Unauthorized("Invalid token"))
				return
			}

			identity := Identity{UserID: claims.UserID, Role: claims.Role}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the authenticated identity stored by Auth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
