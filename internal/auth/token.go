package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func init() {
	// NumericDate claims keep microseconds so exp is exactly issue time + TTL.
	jwt.TimePrecision = time.Microsecond
}

// ErrInvalidToken covers every verification failure: malformed input, bad
// signature, wrong issuer or expiry. Callers cannot tell them apart.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and verifies HS256 JWTs carrying a username subject.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the manager that checks expiry against now.
func (t *TokenManager) WithClock(now func() time.Time) *TokenManager {
	clone := *t
	clone.now = now
	return &clone
}

// TTL is the fixed lifetime of issued tokens.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for subject valid from now until now+TTL.
func (t *TokenManager) Issue(subject string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify returns the subject of a valid, unexpired token.
func (t *TokenManager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
