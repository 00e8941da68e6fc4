package account

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryIdentity struct {
	identity     Identity
	passwordHash string
}

// MemoryService is an in-process Account Service used in development and tests.
// It enforces email uniqueness and at most one record per owner and table.
type MemoryService struct {
	*core

	mu         sync.RWMutex
	byEmail    map[string]string
	identities map[string]memoryIdentity
	records    map[string]map[string]Record
}

// NewMemoryService builds an in-memory Account Service.
func NewMemoryService(opts ...Option) (*MemoryService, error) {
	c, err := newCore(opts)
	if err != nil {
		return nil, err
	}
	return &MemoryService{
		core:       c,
		byEmail:    make(map[string]string),
		identities: make(map[string]memoryIdentity),
		records: map[string]map[string]Record{
			TableProfiles: {},
			TableWallets:  {},
		},
	}, nil
}

// CreateIdentity registers a new identity.
func (s *MemoryService) CreateIdentity(ctx context.Context, email, password string, attrs Attributes) (Identity, error) {
	// Stored strings outlive the request; callers may hand in views of reused buffers.
	email = strings.Clone(NormalizeEmail(email))
	if err := validateCredentials(email, password); err != nil {
		return Identity{}, err
	}
	attrs = Attributes{FullName: strings.Clone(attrs.FullName), UserType: strings.Clone(attrs.UserType)}
	hash, err := hashPassword(password, s.hashCost)
	if err != nil {
		return Identity{}, err
	}

	now := s.now().UTC()
	identity := Identity{
		ID:          uuid.NewString(),
		Email:       email,
		Attributes:  attrs,
		ConfirmedAt: s.confirmedAt(now),
		CreatedAt:   now,
	}

	s.mu.Lock()
	if _, exists := s.byEmail[email]; exists {
		s.mu.Unlock()
		return Identity{}, ErrDuplicateEmail
	}
	s.byEmail[email] = identity.ID
	s.identities[identity.ID] = memoryIdentity{identity: identity, passwordHash: hash}
	s.mu.Unlock()

	s.sendConfirmation(ctx, identity)
	return identity, nil
}

// VerifyCredentials checks email and password and opens a session.
func (s *MemoryService) VerifyCredentials(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)

	s.mu.RLock()
	stored, ok := s.identities[s.byEmail[email]]
	s.mu.RUnlock()

	if !s.passwordMatches(stored.passwordHash, password) || !ok {
		return Session{}, ErrInvalidCredentials
	}
	return s.openSession(ctx, stored.identity)
}

// ActiveIdentity returns the identity behind the session in ctx.
func (s *MemoryService) ActiveIdentity(ctx context.Context) (Identity, error) {
	id, err := s.subject(ctx)
	if err != nil {
		return Identity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.identities[id]
	if !ok {
		return Identity{}, ErrNoSession
	}
	return stored.identity, nil
}

// ConfirmEmail marks the identity bound to token as confirmed.
func (s *MemoryService) ConfirmEmail(ctx context.Context, token string) error {
	id, err := s.confirmationSubject(ctx, token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.identities[id]
	if !ok {
		return ErrInvalidToken
	}
	if stored.identity.ConfirmedAt == nil {
		now := s.now().UTC()
		stored.identity.ConfirmedAt = &now
		s.identities[id] = stored
	}
	return nil
}

// InsertRecord stores record in its table.
func (s *MemoryService) InsertRecord(_ context.Context, record Record) error {
	if record == nil {
		return unknown(fmt.Errorf("nil record"))
	}
	table := record.Table()
	if !knownTable(table) {
		return unknown(fmt.Errorf("relation %q does not exist", table))
	}
	owner := strings.Clone(record.OwnerID())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[owner]; !ok {
		return unknown(fmt.Errorf("insert into %s violates foreign key: identity %s not found", table, owner))
	}
	if _, exists := s.records[table][owner]; exists {
		return unknown(fmt.Errorf("duplicate key value violates unique constraint on %s", table))
	}
	s.records[table][owner] = record
	return nil
}

// LookupRecord returns the record stored for owner in table.
func (s *MemoryService) LookupRecord(table, ownerID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[table][ownerID]
	return record, ok
}
