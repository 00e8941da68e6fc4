package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"

	"github.com/kerjalepas/kerjalepas/internal/account"
)

const loginRateWindow = time.Minute

// LoginRateLimit limits login attempts per email, or per IP when the body has
// no email. It counts in Redis when available and in process memory otherwise.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	if cache == nil {
		return limiter.New(limiter.Config{
			Max:          maxPerMin,
			Expiration:   loginRateWindow,
			KeyGenerator: loginKey,
			LimitReached: func(c *fiber.Ctx) error {
				return tooManyAttempts()
			},
		})
	}
	return func(c *fiber.Ctx) error {
		key := "rl:login:" + loginKey(c)
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next() // fail open when Redis is unavailable
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, loginRateWindow)
		}
		if cnt > int64(maxPerMin) {
			return tooManyAttempts()
		}
		return c.Next()
	}
}

func loginKey(c *fiber.Ctx) string {
	var req struct {
		Email string `form:"email" json:"email"`
	}
	_ = c.BodyParser(&req)
	if email := account.NormalizeEmail(req.Email); email != "" {
		return strings.Clone(email)
	}
	return strings.Clone(c.IP())
}

func tooManyAttempts() error {
	return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
}
