// Package session issues and resolves the opaque session tokens handed to
// browsers after a successful login, and the one-time tokens used to confirm
// email addresses.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotFound is returned when a token is unknown, revoked or already used.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidToken is returned when a token fails signature or expiry checks.
	ErrInvalidToken = errors.New("invalid session token")
)

// Token is a signed session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Store persists live sessions keyed by the token's jti.
type Store interface {
	Issue(ctx context.Context, subject string) (Token, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// OneTimeStore hands out single-use tokens bound to a subject.
type OneTimeStore interface {
	Put(ctx context.Context, subject string) (string, error)
	Take(ctx context.Context, token string) (string, error)
}

// Signer produces HS256 session tokens. The signature only proves the token was
// minted here; whether it is still live is decided by the Store.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a token signer.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration { return s.ttl }

func (s *Signer) sign(subject, id string) (Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp.UTC()}, nil
}

func (s *Signer) parse(token string) (jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return jwt.RegisteredClaims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return jwt.RegisteredClaims{}, ErrInvalidToken
	}
	return claims, nil
}
