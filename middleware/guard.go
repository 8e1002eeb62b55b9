// Package middleware is the access control gate: net/http middleware that
// extracts a bearer token from an inbound request, validates it through
// the engine, and places the verified claim set in the request context for
// downstream handlers. It holds no state of its own.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	tokenward "github.com/tokenward/tokenward"
	"github.com/tokenward/tokenward/jwt"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claim set placed by a guard, if any.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*jwt.Claims)
	return claims, ok
}

// RequireAccess guards a handler with access-token validation. Rejections
// are 401 except store outages, which are 500: an unanswerable revocation
// store must never admit a request.
func RequireAccess(engine *tokenward.Engine) func(http.Handler) http.Handler {
	return guard(engine, jwt.TokenAccess, false)
}

// RequireRefresh guards a handler with refresh-token validation, for the
// refresh and logout endpoints where the refresh token is the credential.
func RequireRefresh(engine *tokenward.Engine) func(http.Handler) http.Handler {
	return guard(engine, jwt.TokenRefresh, false)
}

// RequireAdmin is RequireAccess plus an admin-role check. A valid,
// non-revoked token without the role yields 403, distinct from 401.
func RequireAdmin(engine *tokenward.Engine) func(http.Handler) http.Handler {
	return guard(engine, jwt.TokenAccess, true)
}

func guard(engine *tokenward.Engine, expected jwt.TokenType, admin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var claims *jwt.Claims
			var err error
			if expected == jwt.TokenRefresh {
				claims, err = engine.ValidateRefresh(r.Context(), token)
			} else {
				claims, err = engine.Validate(r.Context(), token)
			}
			if err != nil {
				http.Error(w, statusText(err), statusCode(err))
				return
			}

			if admin && !claims.HasAdminRole() {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}

func statusCode(err error) int {
	if errors.Is(err, tokenward.ErrStoreUnavailable) || errors.Is(err, tokenward.ErrEngineNotReady) {
		return http.StatusInternalServerError
	}
	return http.StatusUnauthorized
}

func statusText(err error) string {
	if statusCode(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return "unauthorized"
}
