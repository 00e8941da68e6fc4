package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kerjalepas/kerjalepas/internal/auth"
	"github.com/kerjalepas/kerjalepas/internal/registration"
	"github.com/kerjalepas/kerjalepas/internal/wallet"
)

// RegisterAuthRoutes wires registration, login, logout and email confirmation.
func RegisterAuthRoutes(r fiber.Router, reg *registration.Handler, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", reg.Register)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/logout", h.Logout)
	group.Get("/confirm", h.Confirm)
}

// RegisterAccountRoutes wires the endpoints about the signed in user.
func RegisterAccountRoutes(r fiber.Router, h *auth.Handler, wallets *wallet.Handler, requireAuth fiber.Handler) {
	r.Get("/me", h.Me)
	r.Get("/me/role", requireAuth, h.Role)
	r.Get("/wallet", requireAuth, wallets.Mine)
}
