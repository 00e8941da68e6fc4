package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	subject   string
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	signer  *Signer
	entries map[string]memoryEntry
}

// NewMemoryStore builds an in-process session store for development and tests.
func NewMemoryStore(signer *Signer) Store {
	return &memoryStore{signer: signer, entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) Issue(_ context.Context, subject string) (Token, error) {
	id := uuid.NewString()
	token, err := s.signer.sign(subject, id)
	if err != nil {
		return Token{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{subject: subject, expiresAt: token.ExpiresAt}
	return token, nil
}

func (s *memoryStore) Resolve(_ context.Context, token string) (string, error) {
	claims, err := s.signer.parse(token)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[claims.ID]
	if !ok {
		return "", ErrNotFound
	}
	if !s.signer.now().Before(entry.expiresAt) {
		delete(s.entries, claims.ID)
		return "", ErrNotFound
	}
	return entry.subject, nil
}

func (s *memoryStore) Revoke(_ context.Context, token string) error {
	claims, err := s.signer.parse(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[claims.ID]; !ok {
		return ErrNotFound
	}
	delete(s.entries, claims.ID)
	return nil
}

type memoryOneTimeStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryOneTimeStore builds an in-process one-time token store.
func NewMemoryOneTimeStore(ttl time.Duration) OneTimeStore {
	return &memoryOneTimeStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *memoryOneTimeStore) Put(_ context.Context, subject string) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{subject: subject, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func (s *memoryOneTimeStore) Take(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, token)
	if !s.now().Before(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.subject, nil
}
