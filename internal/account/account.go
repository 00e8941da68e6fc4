// Package account defines the Account Service contract: identity creation,
// credential verification, session lookup and record insertion. Registration
// and session handling depend only on the Service interface; the Postgres and
// in-memory backends in this package implement it.
package account

import (
	"context"
	"time"
)

// Record tables accepted by InsertRecord.
const (
	TableProfiles = "profiles"
	TableWallets  = "wallets"
)

// MinPasswordLength is the shortest password the service accepts.
const MinPasswordLength = 6

// Attributes are the profile hints stored alongside an identity.
type Attributes struct {
	FullName string `json:"full_name"`
	UserType string `json:"user_type"`
}

// Identity is the authentication record issued by the service.
type Identity struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Attributes  Attributes `json:"user_metadata"`
	ConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Confirmed reports whether the identity's email has been confirmed.
func (i Identity) Confirmed() bool {
	return i.ConfirmedAt != nil
}

// Session is returned by a successful credential check.
type Session struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// Record is a row owned by an identity, stored in one of the record tables.
// Columns and Values must line up index by index.
type Record interface {
	Table() string
	OwnerID() string
	Columns() []string
	Values() []any
}

// Service is the Account Service contract.
type Service interface {
	CreateIdentity(ctx context.Context, email, password string, attrs Attributes) (Identity, error)
	VerifyCredentials(ctx context.Context, email, password string) (Session, error)
	// TerminateSession ends the session whose token travels in ctx.
	TerminateSession(ctx context.Context) error
	// ActiveIdentity returns the identity behind the session token in ctx, or ErrNoSession.
	ActiveIdentity(ctx context.Context) (Identity, error)
	InsertRecord(ctx context.Context, record Record) error
}

// Confirmer is implemented by services that confirm email addresses with one-time tokens.
type Confirmer interface {
	ConfirmEmail(ctx context.Context, token string) error
}

// RecordLookup reads back stored records. Implemented by MemoryService so that
// read repositories can share its state.
type RecordLookup interface {
	LookupRecord(table, ownerID string) (Record, bool)
}

func knownTable(table string) bool {
	return table == TableProfiles || table == TableWallets
}
