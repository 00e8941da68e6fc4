package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kerjalepas/kerjalepas/internal/config"
	"github.com/kerjalepas/kerjalepas/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// db and cache may be nil in development.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	fiberCfg := routes.AppConfig(cfg)
	fiberCfg.ErrorHandler = errorHandler(logger)
	app := fiber.New(fiberCfg)

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// errorHandler renders fiber errors as {"success":false,"message":...} so the
// forms can show them like any other failure.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		message := err.Error()
		if code == http.StatusInternalServerError {
			if logger != nil {
				logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
			}
			message = http.StatusText(code)
		}
		return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
	}
}

// App exposes the Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
