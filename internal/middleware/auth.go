package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
)

// PrincipalResolver turns a bearer token into the identity behind it.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error)
}

type contextKey string

const principalKey contextKey = "principal"

// AuthMiddleware rejects requests without a valid bearer token and stores
// the resolved principal on the request context.
func AuthMiddleware(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				unauthorized(w, "Authorization header required")
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil {
				if errors.IsUnauthenticated(err) {
					unauthorized(w, "Invalid token")
					return
				}
				services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*models.Principal)
	return principal, ok && principal != nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	services.SendErrorResponse(w, message, http.StatusUnauthorized, nil)
}
