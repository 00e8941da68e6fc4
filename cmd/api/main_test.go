package main

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kerjalepas/kerjalepas/internal/config"
	"github.com/kerjalepas/kerjalepas/internal/logging"
)

func stubDatabase(t *testing.T, connectErr error) *[]string {
	t.Helper()
	var steps []string
	origConnect, origMigrate := connectPostgres, migrateDatabase
	t.Cleanup(func() { connectPostgres, migrateDatabase = origConnect, origMigrate })

	connectPostgres = func(context.Context, string) (*pgxpool.Pool, error) {
		steps = append(steps, "connect")
		return nil, connectErr
	}
	migrateDatabase = func(string) error {
		steps = append(steps, "migrate")
		return nil
	}
	return &steps
}

func TestOpenDatabaseMigratesAfterConnecting(t *testing.T) {
	steps := stubDatabase(t, nil)
	cfg := config.Config{DatabaseURL: "postgres://localhost/kerjalepas"}

	if _, err := openDatabase(context.Background(), cfg, logging.Discard()); err != nil {
		t.Fatalf("open database: %v", err)
	}
	if len(*steps) != 2 || (*steps)[0] != "connect" || (*steps)[1] != "migrate" {
		t.Fatalf("expected connect then migrate, got %v", *steps)
	}
}

func TestOpenDatabaseSkipsMigrationWhenUnreachable(t *testing.T) {
	steps := stubDatabase(t, errors.New("connection refused"))
	cfg := config.Config{DatabaseURL: "postgres://localhost/kerjalepas"}

	if _, err := openDatabase(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("expected connect error")
	}
	if len(*steps) != 1 || (*steps)[0] != "connect" {
		t.Fatalf("migration must not run before postgres answers, got %v", *steps)
	}
}

func TestOpenDatabaseWithoutURL(t *testing.T) {
	steps := stubDatabase(t, nil)
	db, err := openDatabase(context.Background(), config.Config{}, logging.Discard())
	if err != nil || db != nil {
		t.Fatalf("expected in-memory fallback, got db=%v err=%v", db, err)
	}
	if len(*steps) != 0 {
		t.Fatalf("expected no database calls, got %v", *steps)
	}
}
