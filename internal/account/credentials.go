package account

import (
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var errPasswordTooLong = &Error{Kind: KindInvalidPassword, Message: "Password cannot be longer than 72 characters"}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address with a dotted domain.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

func validateCredentials(email, password string) error {
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errPasswordTooLong
	}
	if err != nil {
		return "", unknown(err)
	}
	return string(hash), nil
}
