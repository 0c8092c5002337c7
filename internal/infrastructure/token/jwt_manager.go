package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	domain "authservice/backend/internal/domain/auth"
	usecase "authservice/backend/internal/usecase/auth"
)

// MinSecretLength is the shortest HMAC secret accepted for HS256.
const MinSecretLength = 32

// JWTManager issues and validates HS256 JWT tokens.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// Option customises a JWTManager.
type Option func(*JWTManager)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) {
		m.now = now
	}
}

// NewJWTManager constructs a manager with the provided secret and expiration.
// The secret is copied and never mutated afterwards.
func NewJWTManager(secret []byte, expiration time.Duration, issuer string, opts ...Option) (*JWTManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if expiration <= 0 {
		return nil, fmt.Errorf("jwt expiry must be positive")
	}
	m := &JWTManager{
		secret:     append([]byte(nil), secret...),
		expiration: expiration,
		issuer:     issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Generate creates a signed JWT whose subject is the given login key.
func (m *JWTManager) Generate(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", oops.Code("TOKEN_SUBJECT_EMPTY").Errorf("token subject is required")
	}
	now := m.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry and returns the subject claim.
//
// Failures wrap ErrMalformedToken, ErrInvalidSignature or ErrTokenExpired.
// The signature is checked before expiry, so a tampered expired token reports
// an invalid signature.
func (m *JWTManager) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return "", oops.Code("TOKEN_SIGNATURE_INVALID").Wrap(domain.ErrInvalidSignature)
		default:
			return "", oops.Code("TOKEN_MALFORMED").With("cause", err.Error()).Wrap(domain.ErrMalformedToken)
		}
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return "", oops.Code("TOKEN_MALFORMED").With("reason", "missing sub or exp claim").Wrap(domain.ErrMalformedToken)
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return "", oops.Code("TOKEN_ISSUER_MISMATCH").With("issuer", claims.Issuer).Wrap(domain.ErrInvalidSignature)
	}
	if !m.now().Before(claims.ExpiresAt.Time) {
		return "", oops.Code("TOKEN_EXPIRED").With("expired_at", claims.ExpiresAt.Time).Wrap(domain.ErrTokenExpired)
	}
	return claims.Subject, nil
}

// TTL returns the configured token lifetime.
func (m *JWTManager) TTL() time.Duration {
	return m.expiration
}

// ExpiresInSeconds returns the configured token lifetime in whole seconds.
func (m *JWTManager) ExpiresInSeconds() int64 {
	return int64(m.expiration / time.Second)
}
