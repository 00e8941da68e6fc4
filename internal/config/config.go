package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultAppName          = "KerjaLepas"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultLocale           = "id"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultSessionTTL       = time.Hour
	defaultConfirmationTTL  = 24 * time.Hour
	defaultRegisterRedirect = 3 * time.Second
	defaultLoginRedirect    = time.Second
	defaultLoginRateLimit   = 5
	devSessionSecret        = "dev-session-secret-change-me"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	Locale         string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	SessionSecret            string
	SessionTTL               time.Duration
	ConfirmationTTL          time.Duration
	RequireEmailConfirmation bool
	LoginRateLimit           int

	RegisterRedirectDelay time.Duration
	LoginRedirectDelay    time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
// When CONFIG_FILE names a YAML file, its keys (lowercased variable names such as
// database_url) provide defaults that the environment overrides.
// Outside development DATABASE_URL, REDIS_URL and SESSION_SECRET are mandatory; in
// development missing backends fall back to in-memory implementations.
func Load() (Config, error) {
	k := koanf.New(".")
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("read CONFIG_FILE: %w", err)
		}
	}
	getEnv := func(key, fallback string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		if value := k.String(strings.ToLower(key)); value != "" {
			return value
		}
		return fallback
	}

	cfg := Config{
		AppName:                  getEnv("APP_NAME", defaultAppName),
		AppEnv:                   getEnv("APP_ENV", defaultAppEnv),
		Port:                     getEnv("PORT", defaultPort),
		LogLevel:                 strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		Locale:                   strings.ToLower(getEnv("LOCALE", defaultLocale)),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisURL:                 getEnv("REDIS_URL", ""),
		SessionSecret:            getEnv("SESSION_SECRET", ""),
		ShutdownPeriod:           defaultShutdownDelay,
		IdempotencyTTL:           defaultIdempotencyTTL,
		SessionTTL:               defaultSessionTTL,
		ConfirmationTTL:          defaultConfirmationTTL,
		RequireEmailConfirmation: true,
		LoginRateLimit:           defaultLoginRateLimit,
		RegisterRedirectDelay:    defaultRegisterRedirect,
		LoginRedirectDelay:       defaultLoginRedirect,
	}

	durations := []struct {
		name   string
		target *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"SESSION_TTL", &cfg.SessionTTL},
		{"CONFIRMATION_TTL", &cfg.ConfirmationTTL},
		{"REGISTER_REDIRECT_DELAY", &cfg.RegisterRedirectDelay},
		{"LOGIN_REDIRECT_DELAY", &cfg.LoginRedirectDelay},
	}
	for _, d := range durations {
		if err := durationEnv(getEnv, d.name, d.target); err != nil {
			return Config{}, err
		}
	}

	if v := getEnv("REQUIRE_EMAIL_CONFIRMATION", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REQUIRE_EMAIL_CONFIRMATION: %w", err)
		}
		cfg.RequireEmailConfirmation = b
	}

	if v := getEnv("LOGIN_RATE_LIMIT", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
		}
		cfg.LoginRateLimit = n
	}

	if cfg.IsDev() {
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = devSessionSecret
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the application runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// durationEnv reads NAME_SECONDS as an integer number of seconds, or NAME as a Go
// duration string. The seconds variant wins when both are set.
func durationEnv(getEnv func(string, string) string, name string, target *time.Duration) error {
	secondsVar := name + "_SECONDS"
	if v := getEnv(secondsVar, ""); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		*target = time.Duration(seconds) * time.Second
		return nil
	}
	if v := getEnv(name, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*target = d
	}
	return nil
}
