package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/security"
)

type fakeUsers struct {
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.GetByUsernameFunc(ctx, username)
}

func usersWith(u *models.User) *fakeUsers {
	return &fakeUsers{GetByUsernameFunc: func(_ context.Context, name string) (*models.User, error) {
		if u != nil && name == u.Username {
			return u, nil
		}
		return nil, apperr.NotFound("User not found")
	}}
}

func TestAuthenticate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens, err := security.NewTokenService("secret", "HS256", 30*time.Minute, security.WithClock(clock))
	require.NoError(t, err)

	alice := &models.User{Username: "alice", IsActive: true, Permissions: []string{"read"}}
	good, _, err := tokens.Issue("alice")
	require.NoError(t, err)
	ghost, _, err := tokens.Issue("ghost")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		u, err := NewGuard(tokens, usersWith(alice)).Authenticate(context.Background(), good)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := NewGuard(tokens, usersWith(alice)).Authenticate(context.Background(), "")
		assert.Same(t, apperr.ErrUnauthenticated, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := NewGuard(tokens, usersWith(alice)).Authenticate(context.Background(), "not.a.jwt")
		assert.Same(t, apperr.ErrUnauthenticated, err)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := NewGuard(tokens, usersWith(alice)).Authenticate(context.Background(), ghost)
		assert.Same(t, apperr.ErrUnauthenticated, err)
	})

	t.Run("inactive user", func(t *testing.T) {
		disabled := *alice
		disabled.IsActive = false
		_, err := NewGuard(tokens, usersWith(&disabled)).Authenticate(context.Background(), good)
		assert.Same(t, apperr.ErrUnauthenticated, err)
	})

	t.Run("expired", func(t *testing.T) {
		later, err := security.NewTokenService("secret", "HS256", 30*time.Minute,
			security.WithClock(func() time.Time { return now.Add(30 * time.Minute) }))
		require.NoError(t, err)
		_, err = NewGuard(later, usersWith(alice)).Authenticate(context.Background(), good)
		assert.Same(t, apperr.ErrUnauthenticated, err)
	})

	t.Run("store failure passes through", func(t *testing.T) {
		boom := errors.New("db down")
		users := &fakeUsers{GetByUsernameFunc: func(context.Context, string) (*models.User, error) { return nil, boom }}
		_, err := NewGuard(tokens, users).Authenticate(context.Background(), good)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
	})
}

func TestAuthorize(t *testing.T) {
	writer := &models.User{Role: "admin", Permissions: []string{"write"}}
	assert.True(t, Authorize(writer, models.PermWrite))
	assert.False(t, Authorize(writer, models.PermRead), "write does not imply read")
	assert.False(t, Authorize(writer, models.PermManageUsers), "role label grants nothing")
	assert.False(t, Authorize(nil, models.PermRead))
	assert.False(t, Authorize(&models.User{}, models.PermRead))
}

func TestUserContext(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))
	u := &models.User{Username: "bob"}
	assert.Same(t, u, UserFromContext(WithUser(context.Background(), u)))
}
