package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tmsiti/backend/internal/apperr"
)

var (
	// ErrTokenInvalid is returned for malformed tokens, bad signatures and
	// tokens without a subject.
	ErrTokenInvalid = apperr.New(apperr.CodeUnauthenticated, "could not validate credentials")
	// ErrTokenExpired is returned once the current time reaches the expiry.
	ErrTokenExpired = apperr.New(apperr.CodeUnauthenticated, "token has expired")
)

// TokenService issues and validates HMAC-signed bearer tokens.
// Validation depends only on the token, the key and the clock; there is no
// server-side session or revocation state.
type TokenService struct {
	key    []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService signing with secret using the named
// HMAC algorithm (HS256, HS384 or HS512). ttl is the default token lifetime.
func NewTokenService(secret, algorithm string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	s := &TokenService{
		key:    []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject with the default lifetime.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token for subject that expires ttl from now.
func (s *TokenService) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is empty")
	}
	now := s.now().UTC()
	exp := jwt.NewNumericDate(now.Add(ttl))
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: exp,
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp.Time, nil
}

// Validate verifies the token and returns its subject. A token is rejected
// when its signature or algorithm does not match, when it has no subject or
// expiry, or when the current time is at or past its expiry.
func (s *TokenService) Validate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenInvalid
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUnauthenticated, ErrTokenInvalid.Message, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return "", ErrTokenInvalid
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return "", ErrTokenExpired
	}
	return claims.Subject, nil
}
