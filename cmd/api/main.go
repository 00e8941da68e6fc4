package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kerjalepas/kerjalepas/internal/config"
	"github.com/kerjalepas/kerjalepas/internal/infra"
	"github.com/kerjalepas/kerjalepas/internal/logging"
	"github.com/kerjalepas/kerjalepas/internal/server"
)

var (
	connectPostgres = infra.NewPostgresPool
	migrateDatabase = infra.Migrate
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error("kerjalepas stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	cache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", slog.Any("error", err))
			}
		}()
	}

	srv, err := server.New(cfg, db, cache, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	listenErr := make(chan error, 1)
	go func() { listenErr <- srv.Listen() }()
	logger.Info("server listening", slog.String("addr", cfg.Address()), slog.String("env", cfg.AppEnv))

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-listenErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openDatabase connects and migrates when DATABASE_URL is set. A nil pool means
// the in-memory account store.
func openDatabase(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory account store")
		return nil, nil
	}
	// Migrations run only after the retried ping succeeds.
	db, err := connectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrateDatabase(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func openCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		return nil, nil
	}
	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return cache, nil
}
