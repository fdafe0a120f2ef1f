// Package service provides the business logic for accounts, the menu, the
// document catalogue and its categories, delegating persistence to
// repository interfaces.
package service

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/apperr"
	"github.com/tmsiti/backend/internal/models"
)

// UserRepository defines the persistence operations on user accounts.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// Create inserts u and sets its ID; duplicates yield CONFLICT.
	Create(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]models.User, error)
	// Update persists role, permissions and the active flag.
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
	TTL() time.Duration
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// RegisterInput carries the self-registration fields.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

const maxUsernameLen = 50

// ErrBadCredentials is returned by Login for any unknown user, wrong
// password or disabled account.
var ErrBadCredentials = apperr.New(apperr.CodeUnauthenticated, "Incorrect username or password")

// AuthService implements login and self-registration.
type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log, now: time.Now}
}

// Login verifies the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	if username == "" || password == "" {
		return nil, ErrBadCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		s.log.Info("login rejected", zap.String("username", username))
		return nil, ErrBadCredentials
	}

	token, _, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL() / time.Second),
	}, nil
}

// Register creates an active account with the read permission and the
// default role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperr.New(apperr.CodeConflict, "Username already registered")
	} else if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperr.New(apperr.CodeConflict, "Email already registered")
	} else if apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		Role:         models.DefaultRole,
		Permissions:  []models.Permission{models.PermRead},
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("username", user.Username), zap.Int64("id", user.ID))
	return user, nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case in.Username == "":
		return apperr.Validation("username is required")
	case utf8.RuneCountInString(in.Username) > maxUsernameLen:
		return apperr.Validation("username must be at most 50 characters")
	case in.Password == "":
		return apperr.Validation("password is required")
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return apperr.Validation("email is not a valid address")
	}
	return nil
}
