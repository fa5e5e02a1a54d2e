package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose tells which step of the account lifecycle a token was issued for.
type Purpose string

const (
	PurposeConfirm Purpose = "confirm"
	PurposeReset   Purpose = "reset"
	PurposeSession Purpose = "session"
)

// Claims is the claim set carried by every token the service issues.
// The subject is the account email.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

var (
	ErrMissingSecret  = errors.New("token signing secret is not configured")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrWrongPurpose   = errors.New("token was issued for a different purpose")
)

// TokenService issues and verifies purpose-bound tokens signed with a single shared secret.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	jwtAuth JWTAuthenticator
	secret  string
	issuer  string
	now     func() time.Time
}

// TokenServiceOption configures a TokenService.
type TokenServiceOption func(*TokenService)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService. It fails with ErrMissingSecret when secret is empty,
// which callers are expected to treat as fatal at startup.
func NewTokenService(secret, issuer string, opts ...TokenServiceOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	s := &TokenService{
		secret: secret,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.jwtAuth = NewJWTAuthenticator(issuer, issuer).WithClock(s.now)

	return s, nil
}

// Issue signs a token for subject with the given purpose that expires after ttl.
func (s *TokenService) Issue(subject string, purpose Purpose, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.issuer},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := s.jwtAuth.GenerateToken(claims, s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// Verify checks the signature and expiry of tokenString and that it was issued for expected.
func (s *TokenService) Verify(tokenString string, expected Purpose) (*Claims, error) {
	claims := &Claims{}
	if _, err := s.jwtAuth.ValidateTokenWithClaims(tokenString, s.secret, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}

	if claims.Purpose != expected {
		return nil, ErrWrongPurpose
	}

	return claims, nil
}
