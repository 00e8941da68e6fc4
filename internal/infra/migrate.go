package infra

import (
	"embed"
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations for identities, profiles and wallets.
func Migrate(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(databaseURL))
	if err != nil {
		_ = source.Close()
		return oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	defer m.Close() //nolint:errcheck

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// migrationURL rewrites postgres:// URLs to the pgx5:// scheme golang-migrate expects.
func migrationURL(databaseURL string) string {
	if rest, found := strings.CutPrefix(databaseURL, "postgres://"); found {
		return "pgx5://" + rest
	}
	if rest, found := strings.CutPrefix(databaseURL, "postgresql://"); found {
		return "pgx5://" + rest
	}
	return databaseURL
}
