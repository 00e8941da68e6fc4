package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	repo   Repository
	format func(int64) string
}

// NewHandler builds a wallet HTTP handler. format renders balances for display.
func NewHandler(repo Repository, format func(int64) string) *Handler {
	return &Handler{repo: repo, format: format}
}

// Mine returns the wallet of the authenticated user.
func (h *Handler) Mine(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	w, err := h.repo.GetByOwner(c.UserContext(), uid)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	resp := fiber.Map{
		"user_id":         w.UserID,
		"current_balance": w.CurrentBalance,
		"created_at":      w.CreatedAt,
	}
	if h.format != nil {
		resp["display_balance"] = h.format(w.CurrentBalance)
	}
	return c.Status(http.StatusOK).JSON(resp)
}
