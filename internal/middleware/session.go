package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/auth"
)

// Session moves the session token from the Authorization bearer header or the
// session cookie into the request context. The header wins when both are set.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ""
		authz := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[len("Bearer "):])
		}
		if token == "" {
			token = c.Cookies(auth.SessionCookie)
		}
		if token != "" {
			c.SetUserContext(account.WithSessionToken(c.UserContext(), token))
		}
		return c.Next()
	}
}

// RequireAuth rejects requests without a live session and exposes the caller's
// id as the "user_id" local.
func RequireAuth(manager *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := manager.CurrentUser(c.UserContext())
		if identity == nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		c.Locals("user_id", identity.ID)
		return c.Next()
	}
}
