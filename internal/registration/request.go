package registration

import (
	"errors"
	"math"
	"strings"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/profile"
)

// Precondition failures. They are reported before the Account Service is called.
var (
	ErrUserTypeRequired  = errors.New("user type is required")
	ErrInvalidUserType   = errors.New("user type must be freelancer or client")
	ErrPasswordMismatch  = errors.New("password and confirmation do not match")
	ErrPasswordTooShort  = errors.New("password is too short")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrInvalidHourlyRate = errors.New("hourly rate must be a non-negative number")
)

// Request carries the registration form fields.
type Request struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	UserType        profile.UserType
	// Skills is the raw comma separated list typed by a freelancer.
	Skills     string
	HourlyRate *float64
	Company    string
	// ConfirmRequired makes an empty ConfirmPassword a mismatch. Form
	// submissions set it; API callers may omit the confirmation.
	ConfirmRequired bool
}

// Validate re-checks the preconditions the forms enforce. ConfirmPassword is
// compared when supplied or when ConfirmRequired is set.
func (r Request) Validate() error {
	if r.UserType == "" {
		return ErrUserTypeRequired
	}
	if !r.UserType.Valid() {
		return ErrInvalidUserType
	}
	if (r.ConfirmRequired || r.ConfirmPassword != "") && r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(r.Password) < account.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if !account.ValidEmail(account.NormalizeEmail(r.Email)) {
		return ErrInvalidEmail
	}
	if r.HourlyRate != nil && (math.IsNaN(*r.HourlyRate) || math.IsInf(*r.HourlyRate, 0) || *r.HourlyRate < 0) {
		return ErrInvalidHourlyRate
	}
	return nil
}

// ParseSkills splits a comma separated list, trimming each entry and dropping
// empty ones, so "go,,sql" yields ["go" "sql"] rather than keeping a blank
// skill between the commas. The result is never nil.
func ParseSkills(raw string) []string {
	skills := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
