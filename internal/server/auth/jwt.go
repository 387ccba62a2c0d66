// Package auth issues and validates the signed tokens used by the API:
// session tokens handed out on login and password-reset tokens sent by mail.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType separates session tokens from reset tokens. It is mandatory and
// checked by every purpose-specific validator.
type TokenType string

const (
	TokenTypeSession TokenType = "session"
	TokenTypeReset   TokenType = "reset"
)

// ResetPurpose is the value of the "tipo" claim on reset tokens.
const ResetPurpose = "recuperacion"

// Claims is the payload of every token.
type Claims struct {
	jwt.RegisteredClaims
	Email   string    `json:"email"`
	Role    string    `json:"role,omitempty"`
	Type    TokenType `json:"typ"`
	Purpose string    `json:"tipo,omitempty"`
	Version int64     `json:"ver,omitempty"`
}

// TokenConfig is the immutable signing configuration, built once at start-up.
type TokenConfig struct {
	SecretKey       []byte
	Issuer          string
	Audience        string
	SessionValidity time.Duration
	ResetValidity   time.Duration
}

// TokenService signs and validates HS256 JWTs. It holds no mutable state and
// is safe for concurrent use.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(cfg TokenConfig, opts ...Option) *TokenService {
	s := &TokenService{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IssueSessionToken returns a token proving a successful login as email.
func (s *TokenService) IssueSessionToken(email, role string) (string, error) {
	return s.sign(Claims{
		Email: email,
		Role:  role,
		Type:  TokenTypeSession,
	}, s.cfg.SessionValidity)
}

// IssueResetToken returns a short-lived token that allows one password
// replacement for email. version is the person's credential version at
// issuance; the token stops matching once the password changes.
func (s *TokenService) IssueResetToken(email string, version int64) (string, error) {
	return s.sign(Claims{
		Email:   email,
		Type:    TokenTypeReset,
		Purpose: ResetPurpose,
		Version: version,
	}, s.cfg.ResetValidity)
}

func (s *TokenService) sign(c Claims, validity time.Duration) (string, error) {
	now := s.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.cfg.Issuer,
		Subject:   c.Email,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.cfg.SecretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer, audience and expiry and returns the
// claims. Every failure wraps common.ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.cfg.SecretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// ValidateSession accepts only session tokens.
func (s *TokenService) ValidateSession(tokenString string) (*Claims, error) {
	return s.validateType(tokenString, TokenTypeSession)
}

// ValidateReset accepts only reset tokens carrying the reset purpose.
func (s *TokenService) ValidateReset(tokenString string) (*Claims, error) {
	claims, err := s.validateType(tokenString, TokenTypeReset)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != ResetPurpose {
		return nil, fmt.Errorf("%w: missing reset purpose", common.ErrInvalidToken)
	}
	return claims, nil
}

func (s *TokenService) validateType(tokenString string, want TokenType) (*Claims, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", common.ErrInvalidToken, want, claims.Type)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", common.ErrInvalidToken)
	}
	return claims, nil
}
