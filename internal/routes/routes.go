package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/auth"
	"github.com/kerjalepas/kerjalepas/internal/config"
	"github.com/kerjalepas/kerjalepas/internal/logging"
	"github.com/kerjalepas/kerjalepas/internal/middleware"
	"github.com/kerjalepas/kerjalepas/internal/notification"
	"github.com/kerjalepas/kerjalepas/internal/profile"
	"github.com/kerjalepas/kerjalepas/internal/registration"
	"github.com/kerjalepas/kerjalepas/internal/session"
	"github.com/kerjalepas/kerjalepas/internal/ui"
	"github.com/kerjalepas/kerjalepas/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Registry receives the application metrics; a fresh one is used when nil.
	Registry *prometheus.Registry
	// Notifier delivers confirmation tokens; logs them when nil.
	Notifier notification.Notifier
}

type backends struct {
	accounts account.Service
	profiles profile.Repository
	wallets  wallet.Repository
}

// AppConfig is the Fiber configuration the routes are written against.
// Handlers keep form values past the request (account store keys, rate limit
// keys), so values must not alias fasthttp's reused buffers.
func AppConfig(cfg config.Config) fiber.Config {
	return fiber.Config{
		AppName:      cfg.AppName,
		Immutable:    true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
		d.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	b, err := buildBackends(d)
	if err != nil {
		return err
	}
	messages, err := ui.NewMessages(d.Cfg.Locale)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	policy := ui.NewPolicy(d.Cfg.RegisterRedirectDelay, d.Cfg.LoginRedirectDelay)

	orchestrator := registration.NewOrchestrator(b.accounts,
		registration.WithLogger(d.Logger),
		registration.WithMetrics(registration.NewMetrics(d.Registry)),
	)
	manager := auth.NewManager(b.accounts, d.Logger)

	registrationHandler := registration.NewHandler(orchestrator, messages, policy.Register)
	authHandler := auth.NewHandler(manager, messages, policy, b.profiles, !d.Cfg.IsDev())
	walletHandler := wallet.NewHandler(b.wallets, ui.FormatRupiah)

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1", middleware.Session())
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, registrationHandler, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit))
	RegisterAccountRoutes(api, authHandler, walletHandler, middleware.RequireAuth(manager))
	return nil
}

// buildBackends selects Postgres/Redis implementations when connections are
// provided and in-memory ones otherwise.
func buildBackends(d Deps) (backends, error) {
	signer, err := session.NewSigner(d.Cfg.SessionSecret, d.Cfg.SessionTTL)
	if err != nil {
		return backends{}, err
	}

	var (
		sessions      session.Store
		confirmations session.OneTimeStore
	)
	if d.Cache != nil {
		sessions = session.NewRedisStore(d.Cache, signer)
		confirmations = session.NewRedisOneTimeStore(d.Cache, d.Cfg.ConfirmationTTL)
	} else {
		sessions = session.NewMemoryStore(signer)
		confirmations = session.NewMemoryOneTimeStore(d.Cfg.ConfirmationTTL)
	}

	notifier := d.Notifier
	if notifier == nil {
		logNotifier := notification.NewLoggerNotifier(d.Logger)
		if d.Cfg.IsDev() {
			logNotifier.WithConfirmationLinks(fmt.Sprintf("http://localhost%s/api/v1/auth/confirm?token=", d.Cfg.Address()))
		}
		notifier = logNotifier
	}

	opts := []account.Option{
		account.WithSessions(sessions),
		account.WithConfirmations(confirmations),
		account.WithNotifier(notifier),
		account.WithEmailConfirmation(d.Cfg.RequireEmailConfirmation),
		account.WithLogger(d.Logger),
	}

	if d.DB != nil {
		accounts, err := account.NewPostgresService(d.DB, opts...)
		if err != nil {
			return backends{}, err
		}
		return backends{
			accounts: accounts,
			profiles: profile.NewPostgresRepository(d.DB),
			wallets:  wallet.NewPostgresRepository(d.DB),
		}, nil
	}

	accounts, err := account.NewMemoryService(opts...)
	if err != nil {
		return backends{}, err
	}
	return backends{
		accounts: accounts,
		profiles: profile.NewMemoryRepository(accounts),
		wallets:  wallet.NewMemoryRepository(accounts),
	}, nil
}
