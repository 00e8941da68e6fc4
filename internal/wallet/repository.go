package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kerjalepas/kerjalepas/internal/infra"
)

// ErrNotFound is returned when an identity has no wallet.
var ErrNotFound = errors.New("wallet not found")

// Repository reads wallets.
type Repository interface {
	GetByOwner(ctx context.Context, userID string) (Record, error)
}

// PostgresRepository reads wallets from PostgreSQL.
type PostgresRepository struct {
	db infra.Querier
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db infra.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByOwner fetches the wallet of userID.
func (r *PostgresRepository) GetByOwner(ctx context.Context, userID string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT user_id, current_balance, created_at
        FROM wallets WHERE user_id = $1`, userID)
	var w Record
	var createdAt time.Time
	if err := row.Scan(&w.UserID, &w.CurrentBalance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
