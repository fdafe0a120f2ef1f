// Package middleware provides HTTP middlewares for authentication, rate
// limiting, host filtering and request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/auth"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/server/respond"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>"
// header, or "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth rejects requests without a valid bearer token with 401 and a
// Bearer challenge. On success the user is stored in the request context
// (see auth.UserFromContext).
func RequireAuth(a Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				respond.Error(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// RequirePermission rejects authenticated users lacking p with 403. It must
// run after RequireAuth; without a user in context it answers 401.
func RequirePermission(p models.Permission, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil {
				respond.Error(w, log, apperr.ErrUnauthenticated)
				return
			}
			if !auth.Authorize(user, p) {
				log.Info("permission denied",
					zap.String("username", user.Username),
					zap.String("permission", p),
					zap.String("path", r.URL.Path),
				)
				respond.Error(w, log, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth stores the user of a valid bearer token in the request
// context and otherwise lets the request through anonymously.
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r); token != "" {
				if user, err := a.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(auth.WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
