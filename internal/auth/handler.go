package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/profile"
	"github.com/kerjalepas/kerjalepas/internal/ui"
)

// SessionCookie carries the session token between requests.
const SessionCookie = "kl_session"

// Handler exposes login, logout, confirmation and session endpoints.
type Handler struct {
	manager      *Manager
	messages     *ui.Messages
	policy       ui.Policy
	roles        profile.Repository
	secureCookie bool
}

// NewHandler builds an auth HTTP handler.
func NewHandler(manager *Manager, messages *ui.Messages, policy ui.Policy, roles profile.Repository, secureCookie bool) *Handler {
	return &Handler{manager: manager, messages: messages, policy: policy, roles: roles, secureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type loginResponse struct {
	ui.Response
	UserID    string    `json:"user_id,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Login verifies credentials, sets the session cookie and returns the token.
func (h *Handler) Login(c *fiber.Ctx) error {
	p := h.messages.Printer(c.Get(fiber.HeaderAcceptLanguage))

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(ui.Failure(h.messages.Text(p, ui.KeyFieldsRequired)))
	}

	res := h.manager.Login(c.UserContext(), email, req.Password)
	if !res.Success() {
		status := http.StatusInternalServerError
		switch account.KindOf(res.Err) {
		case account.KindInvalidCredentials:
			status = http.StatusUnauthorized
		case account.KindEmailNotConfirmed:
			status = http.StatusForbidden
		}
		return c.Status(status).JSON(ui.Failure(h.messages.LoginError(p, res.Message())))
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(http.StatusOK).JSON(loginResponse{
		Response:  ui.Success(h.messages.Text(p, ui.KeyLoginSuccess), h.policy.Login),
		UserID:    res.Identity.ID,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

// Logout ends the current session and clears the cookie.
func (h *Handler) Logout(c *fiber.Ctx) error {
	p := h.messages.Printer(c.Get(fiber.HeaderAcceptLanguage))

	res := h.manager.Logout(c.UserContext())
	c.ClearCookie(SessionCookie)
	if !res.Success() {
		status := http.StatusInternalServerError
		if errors.Is(res.Err, account.ErrNoSession) {
			status = http.StatusUnauthorized
		}
		return c.Status(status).JSON(ui.Failure(res.Message()))
	}
	return c.Status(http.StatusOK).JSON(ui.Success(h.messages.Text(p, ui.KeyLogoutSuccess), ui.Redirect{Target: ui.LoginPage}))
}

// Confirm consumes the token from an email confirmation link.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	p := h.messages.Printer(c.Get(fiber.HeaderAcceptLanguage))

	token := c.Query("token")
	if token == "" {
		return c.Status(http.StatusBadRequest).JSON(ui.Failure(h.messages.Text(p, ui.KeyInvalidToken)))
	}
	res := h.manager.ConfirmEmail(c.UserContext(), token)
	switch {
	case res.Success():
		return c.Status(http.StatusOK).JSON(ui.Success(h.messages.Text(p, ui.KeyEmailConfirmed), h.policy.Register))
	case errors.Is(res.Err, account.ErrInvalidToken):
		return c.Status(http.StatusBadRequest).JSON(ui.Failure(h.messages.Text(p, ui.KeyInvalidToken)))
	case errors.Is(res.Err, ErrConfirmationUnsupported):
		return fiber.NewError(http.StatusNotImplemented, res.Message())
	default:
		return fiber.NewError(http.StatusInternalServerError, res.Message())
	}
}

// Me returns the current identity, or a redirect to the login page.
func (h *Handler) Me(c *fiber.Ctx) error {
	identity := h.manager.CurrentUser(c.UserContext())
	if identity == nil {
		p := h.messages.Printer(c.Get(fiber.HeaderAcceptLanguage))
		target, _ := h.manager.RequireAuth(c.UserContext(), c.Query("redirect"))
		resp := ui.Failure(h.messages.Text(p, ui.KeyLoginRequired))
		resp.Redirect = target
		return c.Status(http.StatusUnauthorized).JSON(resp)
	}
	return c.Status(http.StatusOK).JSON(identity)
}

// Role returns the user type stored in the caller's profile; null when the
// profile was never provisioned.
func (h *Handler) Role(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	role, err := h.roles.UserType(c.UserContext(), uid)
	if errors.Is(err, profile.ErrNotFound) {
		return c.Status(http.StatusOK).JSON(fiber.Map{"user_type": nil})
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user_type": role})
}
