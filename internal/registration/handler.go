package registration

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/profile"
	"github.com/kerjalepas/kerjalepas/internal/ui"
)

// Handler exposes the registration form endpoint.
type Handler struct {
	orchestrator *Orchestrator
	messages     *ui.Messages
	redirect     ui.Redirect
}

// NewHandler builds a registration HTTP handler.
func NewHandler(orchestrator *Orchestrator, messages *ui.Messages, redirect ui.Redirect) *Handler {
	return &Handler{orchestrator: orchestrator, messages: messages, redirect: redirect}
}

// registerForm accepts the registration form as urlencoded/multipart fields or JSON.
type registerForm struct {
	UserType        string   `form:"userType" json:"user_type"`
	FullName        string   `form:"fullName" json:"full_name"`
	Email           string   `form:"email" json:"email"`
	Password        string   `form:"password" json:"password"`
	ConfirmPassword string   `form:"confirmPassword" json:"confirm_password"`
	Skills          string   `form:"skills" json:"skills"`
	HourlyRate      string   `form:"hourlyRate" json:"-"`
	HourlyRateJSON  *float64 `form:"-" json:"hourly_rate"`
	Company         string   `form:"company" json:"company"`
}

// request copies the fields out of the request body. The copies end up in
// stored records.
func (f registerForm) request() (Request, error) {
	req := Request{
		Email:           strings.Clone(strings.TrimSpace(f.Email)),
		Password:        strings.Clone(f.Password),
		ConfirmPassword: strings.Clone(f.ConfirmPassword),
		FullName:        strings.Clone(strings.TrimSpace(f.FullName)),
		UserType:        profile.UserType(strings.Clone(strings.TrimSpace(f.UserType))),
		Skills:          strings.Clone(f.Skills),
		HourlyRate:      f.HourlyRateJSON,
		Company:         strings.Clone(strings.TrimSpace(f.Company)),
	}
	if raw := strings.TrimSpace(f.HourlyRate); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Request{}, ErrInvalidHourlyRate
		}
		req.HourlyRate = &rate
	}
	return req, nil
}

// Register handles a registration form submission.
func (h *Handler) Register(c *fiber.Ctx) error {
	p := h.messages.Printer(c.Get(fiber.HeaderAcceptLanguage))

	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req, err := form.request()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ui.Failure(h.messages.Text(p, validationKey(err))))
	}
	req.ConfirmRequired = !c.Is("json")

	res := h.orchestrator.Register(c.UserContext(), req)
	if !res.Success() {
		status, msg := h.failure(res.Err)
		if msg == "" {
			msg = h.messages.RegisterError(p, res.Message())
		} else {
			msg = h.messages.Text(p, msg)
		}
		return c.Status(status).JSON(ui.Failure(msg))
	}
	return c.Status(http.StatusCreated).JSON(ui.Success(h.messages.Text(p, ui.KeyRegisterSuccess), h.redirect))
}

// failure maps a failed Result to a status code and, for precondition
// failures, the message key to show.
func (h *Handler) failure(err error) (int, string) {
	if key := validationKey(err); key != "" {
		return http.StatusBadRequest, key
	}
	switch account.KindOf(err) {
	case account.KindDuplicateEmail:
		return http.StatusConflict, ""
	case account.KindInvalidEmail, account.KindInvalidPassword:
		return http.StatusBadRequest, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

func validationKey(err error) string {
	switch {
	case errors.Is(err, ErrUserTypeRequired), errors.Is(err, ErrInvalidUserType):
		return ui.KeyRoleRequired
	case errors.Is(err, ErrPasswordMismatch):
		return ui.KeyPasswordMismatch
	case errors.Is(err, ErrPasswordTooShort):
		return ui.KeyPasswordTooShort
	case errors.Is(err, ErrInvalidEmail):
		return ui.KeyInvalidEmail
	case errors.Is(err, ErrInvalidHourlyRate):
		return ui.KeyInvalidRate
	default:
		return ""
	}
}
