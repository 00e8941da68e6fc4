package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/kerjalepas/kerjalepas/internal/infra"
)

// PostgresService implements Service on PostgreSQL. Identities live in the
// identities table; records go to their own tables.
type PostgresService struct {
	*core
	db infra.Querier
}

// NewPostgresService builds a Postgres-backed Account Service.
func NewPostgresService(db infra.Querier, opts ...Option) (*PostgresService, error) {
	c, err := newCore(opts)
	if err != nil {
		return nil, err
	}
	return &PostgresService{core: c, db: db}, nil
}

// CreateIdentity inserts a new identity; the unique index on email rejects duplicates.
func (s *PostgresService) CreateIdentity(ctx context.Context, email, password string, attrs Attributes) (Identity, error) {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Identity{}, err
	}
	hash, err := hashPassword(password, s.hashCost)
	if err != nil {
		return Identity{}, err
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return Identity{}, unknown(oops.Code("ACCOUNT_IDENTITY_CREATE_FAILED").
			With("operation", "marshal attributes").
			Wrap(err))
	}

	id := uuid.New()
	now := s.now().UTC()
	confirmedAt := s.confirmedAt(now)

	_, err = s.db.Exec(ctx, `INSERT INTO identities (id, email, password_hash, attributes, confirmed_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, email, hash, attrsJSON, confirmedAt, now)
	if err != nil {
		if isUniqueViolation(err) {
			return Identity{}, ErrDuplicateEmail
		}
		return Identity{}, unknown(oops.Code("ACCOUNT_IDENTITY_CREATE_FAILED").
			With("operation", "insert identity").
			Wrap(err))
	}

	identity := Identity{
		ID:          id.String(),
		Email:       email,
		Attributes:  attrs,
		ConfirmedAt: confirmedAt,
		CreatedAt:   now,
	}
	s.sendConfirmation(ctx, identity)
	return identity, nil
}

// VerifyCredentials checks email and password and opens a session.
func (s *PostgresService) VerifyCredentials(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	row := s.db.QueryRow(ctx, `SELECT id, email, password_hash, attributes, confirmed_at, created_at
        FROM identities WHERE email = $1`, email)

	identity, hash, err := scanIdentity(row, true)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Session{}, unknown(oops.Code("ACCOUNT_VERIFY_FAILED").
			With("operation", "select identity by email").
			Wrap(err))
	}
	if !s.passwordMatches(hash, password) || err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.openSession(ctx, identity)
}

// ActiveIdentity returns the identity behind the session in ctx.
func (s *PostgresService) ActiveIdentity(ctx context.Context) (Identity, error) {
	id, err := s.subject(ctx)
	if err != nil {
		return Identity{}, err
	}
	row := s.db.QueryRow(ctx, `SELECT id, email, attributes, confirmed_at, created_at
        FROM identities WHERE id = $1`, id)
	identity, _, err := scanIdentity(row, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, unknown(oops.Code("ACCOUNT_ACTIVE_IDENTITY_FAILED").
			With("user_id", id).
			Wrap(err))
	}
	return identity, nil
}

// ConfirmEmail marks the identity bound to token as confirmed.
func (s *PostgresService) ConfirmEmail(ctx context.Context, token string) error {
	id, err := s.confirmationSubject(ctx, token)
	if err != nil {
		return err
	}
	cmd, err := s.db.Exec(ctx, `UPDATE identities SET confirmed_at = COALESCE(confirmed_at, $1) WHERE id = $2`,
		s.now().UTC(), id)
	if err != nil {
		return unknown(oops.Code("ACCOUNT_CONFIRM_FAILED").With("user_id", id).Wrap(err))
	}
	if cmd.RowsAffected() == 0 {
		return ErrInvalidToken
	}
	return nil
}

// InsertRecord writes record into its table.
func (s *PostgresService) InsertRecord(ctx context.Context, record Record) error {
	if record == nil {
		return unknown(fmt.Errorf("nil record"))
	}
	if !knownTable(record.Table()) {
		return unknown(fmt.Errorf("relation %q does not exist", record.Table()))
	}
	query, err := insertStatement(record)
	if err != nil {
		return unknown(err)
	}
	if _, err := s.db.Exec(ctx, query, record.Values()...); err != nil {
		return unknown(oops.Code("ACCOUNT_RECORD_INSERT_FAILED").
			With("table", record.Table()).
			With("owner_id", record.OwnerID()).
			Wrap(err))
	}
	return nil
}

func insertStatement(record Record) (string, error) {
	columns := record.Columns()
	if len(columns) == 0 || len(columns) != len(record.Values()) {
		return "", fmt.Errorf("record for %s has %d columns and %d values", record.Table(), len(columns), len(record.Values()))
	}
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{record.Table()}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	), nil
}

func scanIdentity(row pgx.Row, withHash bool) (Identity, string, error) {
	var (
		identity  Identity
		hash      string
		attrs     []byte
		confirmed *time.Time
	)
	dest := []any{&identity.ID, &identity.Email}
	if withHash {
		dest = append(dest, &hash)
	}
	dest = append(dest, &attrs, &confirmed, &identity.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return Identity{}, "", err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &identity.Attributes); err != nil {
			return Identity{}, "", fmt.Errorf("decode attributes: %w", err)
		}
	}
	if confirmed != nil {
		t := confirmed.UTC()
		identity.ConfirmedAt = &t
	}
	identity.CreatedAt = identity.CreatedAt.UTC()
	return identity, hash, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
