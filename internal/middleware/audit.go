package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kerjalepas/kerjalepas/internal/logging"
)

// Audit emits one structured log line per request. It also stores a logger
// tagged with the request id in the request context for downstream code.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqLogger := logger
		if requestID, _ := c.Locals(requestIDHeader).(string); requestID != "" {
			reqLogger = logger.With(slog.String("request_id", requestID))
		}
		c.SetUserContext(logging.IntoContext(c.UserContext(), reqLogger))

		err := c.Next()

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if uid, _ := c.Locals("user_id").(string); uid != "" {
			attrs = append(attrs, slog.String("user_id", uid))
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			reqLogger.Error("request completed", attrs...)
			return err
		}

		reqLogger.Info("request completed", attrs...)
		return nil
	}
}
