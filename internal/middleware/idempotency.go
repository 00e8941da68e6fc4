package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kerjalepas/kerjalepas/internal/logging"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	replayCacheTimeout   = 2 * time.Second
)

var (
	errReplayInFlight = fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	errReplayMismatch = fiber.NewError(fiber.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
	errReplayStore    = fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
)

func requestFingerprint(c *fiber.Ctx) string {
	sum := sha256.Sum256(c.Body())
	return hex.EncodeToString(sum[:])
}

func setsCookie(c *fiber.Ctx) bool {
	found := false
	c.Response().Header.VisitAllCookie(func(_, _ []byte) { found = true })
	return found
}

// replay is what gets stored for a finished request. Fingerprint binds it to
// the request body that produced it.
type replay struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
}

type replayCache struct {
	cache *redis.Client
	ttl   time.Duration
}

func (r replayCache) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), replayCacheTimeout)
}

// lookup returns the stored replay, or ok=false when the key is unused.
func (r replayCache) lookup(key string) (replay, bool, error) {
	ctx, cancel := r.withTimeout()
	defer cancel()

	raw, err := r.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return replay{}, false, nil
	}
	if err != nil {
		return replay{}, false, err
	}
	if raw == inProgressMarker {
		return replay{}, true, errReplayInFlight
	}
	var stored replay
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return replay{}, true, err
	}
	return stored, true, nil
}

func (r replayCache) reserve(key string) (bool, error) {
	ctx, cancel := r.withTimeout()
	defer cancel()
	return r.cache.SetNX(ctx, key, inProgressMarker, r.ttl).Result()
}

func (r replayCache) save(key string, stored replay) error {
	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	ctx, cancel := r.withTimeout()
	defer cancel()
	return r.cache.Set(ctx, key, payload, r.ttl).Err()
}

func (r replayCache) release(key string) {
	ctx, cancel := r.withTimeout()
	defer cancel()
	r.cache.Del(ctx, key)
}

// Idempotency replays stored responses for unsafe requests that repeat an
// Idempotency-Key header. Requests without the header are served normally. Keys
// are scoped to method and path, and a stored response is only replayed for
// the same request body; a different body under a used key gets 422.
// Responses that set cookies (logins) are never stored.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	replays := replayCache{cache: cache, ttl: ttl}

	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		switch method {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" {
			return c.Next()
		}
		log := logging.FromContext(c.UserContext(), logger).With(slog.String("idempotency_key", key))
		cacheKey := idempotencyPrefix + method + ":" + c.Path() + ":" + key
		fingerprint := requestFingerprint(c)

		stored, found, err := replays.lookup(cacheKey)
		switch {
		case errors.Is(err, errReplayInFlight):
			return err
		case err != nil && found:
			log.Warn("undecodable idempotent response", slog.Any("error", err))
			return fiber.NewError(fiber.StatusConflict, "duplicate request")
		case err != nil:
			log.Error("idempotency lookup failed", slog.Any("error", err))
			return errReplayStore
		case found && stored.Fingerprint != fingerprint:
			return errReplayMismatch
		case found:
			if stored.ContentType != "" {
				c.Set(fiber.HeaderContentType, stored.ContentType)
			}
			return c.Status(stored.Status).SendString(stored.Body)
		}

		reserved, err := replays.reserve(cacheKey)
		if err != nil {
			log.Error("idempotency reservation failed", slog.Any("error", err))
			return errReplayStore
		}
		if !reserved {
			return errReplayInFlight
		}

		if err := c.Next(); err != nil {
			replays.release(cacheKey)
			return err
		}

		if setsCookie(c) {
			replays.release(cacheKey)
			return nil
		}
		resp := c.Response()
		err = replays.save(cacheKey, replay{
			Fingerprint: fingerprint,
			Status:      resp.StatusCode(),
			ContentType: string(resp.Header.ContentType()),
			Body:        string(resp.Body()),
		})
		if err != nil {
			log.Error("persist idempotent response", slog.Any("error", err))
			replays.release(cacheKey)
			return errReplayStore
		}
		return nil
	}
}
