// Package auth resolves bearer tokens to active users and checks their
// permissions.
package auth

import (
	"context"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
)

// TokenValidator returns the subject of a valid token.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// UserLookup loads users by login name.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Guard authenticates bearer tokens against the user store.
type Guard struct {
	tokens TokenValidator
	users  UserLookup
}

// NewGuard creates a Guard.
func NewGuard(tokens TokenValidator, users UserLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate validates token and loads its subject. Any failure to
// establish an active identity is reported as apperr.ErrUnauthenticated;
// infrastructure errors are passed through.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}
	username, err := g.tokens.Validate(token)
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, apperr.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrUnauthenticated
	}
	return user, nil
}

// Authorize reports whether user holds permission. There is no implied
// hierarchy between permissions and no role bypass.
func Authorize(user *models.User, permission models.Permission) bool {
	return user.HasPermission(permission)
}

type userKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}
