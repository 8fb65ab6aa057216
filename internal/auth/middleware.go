package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/storesmith/storefront/internal/models"
	pkghttp "github.com/storesmith/storefront/pkg/http"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the authenticated principal attached to the request context.
type Identity struct {
	UserID string
	Role   string
}

// UserFetcher loads the user referenced by a validated token so the gate
// can reject tokens for deleted or disabled accounts.
type UserFetcher interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the bearer token and attaches the caller's identity
// to the request context. A missing or malformed header is 401; a token
// that is present but invalid, expired, or references a missing or disabled
// account is 403.
func RequireAuth(codec *TokenCodec, users UserFetcher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := codec.VerifyAccessToken(parts[1])
			if err != nil {
				pkghttp.WriteForbidden(w, "invalid or expired token")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteForbidden(w, "invalid or expired token")
					return
				}
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if !user.IsActive {
				pkghttp.WriteForbidden(w, "account is disabled")
				return
			}

			// The role comes from the store, not the token, so a role
			// change takes effect before the access token expires.
			identity := &Identity{UserID: user.ID, Role: user.Role}
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin restricts a route to admin users. Must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		if identity == nil {
			pkghttp.WriteUnauthorized(w, "unauthorized")
			return
		}
		if identity.Role != models.RoleAdmin {
			pkghttp.WriteForbidden(w, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext extracts the authenticated identity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// ContextWithIdentity is used by tests to simulate an authenticated request.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
