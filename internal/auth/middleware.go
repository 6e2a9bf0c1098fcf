package auth

import (
	"context"
	"net/http"
	"strings"

	"procurement/internal/apperr"
	"procurement/internal/httpx"
	"procurement/models"
)

type identityKey struct{}

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by RequireSession.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}

// RequireSession rejects requests without a valid Bearer token.
func RequireSession(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httpx.Error(w, r, apperr.ErrUnauthenticated.WithMessage("Authorization header is required"))
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				httpx.Error(w, r, apperr.ErrUnauthenticated.WithMessage("Invalid token format"))
				return
			}

			id, err := tokens.ParseSession(token)
			if err != nil {
				httpx.Error(w, r, apperr.ErrUnauthenticated.WithMessage("Invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole must run after RequireSession.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				httpx.Error(w, r, apperr.ErrUnauthenticated)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Error(w, r, apperr.ErrUnauthorized)
		})
	}
}
