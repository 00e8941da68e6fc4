package profile

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/infra"
)

// PostgresRepository reads profiles from PostgreSQL.
type PostgresRepository struct {
	db infra.Querier
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db infra.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches the profile owned by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, full_name, user_type, skills, hourly_rate, company, created_at
        FROM profiles WHERE id = $1`, id)
	var (
		rec       Record
		userType  string
		createdAt time.Time
	)
	if err := row.Scan(&rec.ID, &rec.Email, &rec.FullName, &userType, &rec.Skills, &rec.HourlyRate, &rec.Company, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.UserType = UserType(userType)
	rec.CreatedAt = createdAt.UTC()
	if rec.Skills == nil {
		rec.Skills = []string{}
	}
	return rec, nil
}

// UserType returns only the role of the profile owned by id.
func (r *PostgresRepository) UserType(ctx context.Context, id string) (UserType, error) {
	var userType string
	err := r.db.QueryRow(ctx, `SELECT user_type FROM profiles WHERE id = $1`, id).Scan(&userType)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return UserType(userType), nil
}

type memoryRepository struct {
	records account.RecordLookup
}

// NewMemoryRepository reads profiles stored by an in-memory Account Service.
func NewMemoryRepository(records account.RecordLookup) Repository {
	return &memoryRepository{records: records}
}

func (r *memoryRepository) Get(_ context.Context, id string) (Record, error) {
	stored, ok := r.records.LookupRecord(account.TableProfiles, id)
	if !ok {
		return Record{}, ErrNotFound
	}
	rec, ok := stored.(Record)
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *memoryRepository) UserType(ctx context.Context, id string) (UserType, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.UserType, nil
}
