package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix      = "session:v1:"
	confirmationPrefix = "confirm:v1:"
)

// RedisStore keeps live sessions in Redis with the token TTL.
type RedisStore struct {
	cache  *redis.Client
	signer *Signer
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(cache *redis.Client, signer *Signer) *RedisStore {
	return &RedisStore{cache: cache, signer: signer}
}

// Issue mints a token for subject and records it as live.
func (s *RedisStore) Issue(ctx context.Context, subject string) (Token, error) {
	id := uuid.NewString()
	token, err := s.signer.sign(subject, id)
	if err != nil {
		return Token{}, err
	}
	if err := s.cache.Set(ctx, sessionPrefix+id, subject, s.signer.ttl).Err(); err != nil {
		return Token{}, fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve returns the subject of a live token.
func (s *RedisStore) Resolve(ctx context.Context, token string) (string, error) {
	claims, err := s.signer.parse(token)
	if err != nil {
		return "", err
	}
	subject, err := s.cache.Get(ctx, sessionPrefix+claims.ID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	if subject != claims.Subject {
		return "", ErrInvalidToken
	}
	return subject, nil
}

// Revoke deletes a live token.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	claims, err := s.signer.parse(token)
	if err != nil {
		return err
	}
	n, err := s.cache.Del(ctx, sessionPrefix+claims.ID).Result()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RedisOneTimeStore keeps confirmation tokens in Redis until used or expired.
type RedisOneTimeStore struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisOneTimeStore builds a Redis-backed one-time token store.
func NewRedisOneTimeStore(cache *redis.Client, ttl time.Duration) *RedisOneTimeStore {
	return &RedisOneTimeStore{cache: cache, ttl: ttl}
}

// Put stores a fresh token for subject.
func (s *RedisOneTimeStore) Put(ctx context.Context, subject string) (string, error) {
	token := uuid.NewString()
	if err := s.cache.Set(ctx, confirmationPrefix+token, subject, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store confirmation token: %w", err)
	}
	return token, nil
}

// Take consumes a token and returns its subject.
func (s *RedisOneTimeStore) Take(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotFound
	}
	subject, err := s.cache.GetDel(ctx, confirmationPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume confirmation token: %w", err)
	}
	return subject, nil
}
