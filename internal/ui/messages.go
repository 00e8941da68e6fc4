// Package ui turns service results into localized text and redirect
// instructions for the registration and login forms.
package ui

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyRegisterSuccess  = "register.success"
	KeyLoginSuccess     = "login.success"
	KeyLogoutSuccess    = "logout.success"
	KeyEmailConfirmed   = "confirm.success"
	KeyDuplicateEmail   = "error.duplicate_email"
	KeyInvalidEmail     = "error.invalid_email"
	KeyWrongCredentials = "error.wrong_credentials"
	KeyEmailNotVerified = "error.email_not_verified"
	KeyRoleRequired     = "error.role_required"
	KeyPasswordMismatch = "error.password_mismatch"
	KeyPasswordTooShort = "error.password_too_short"
	KeyFieldsRequired   = "error.fields_required"
	KeyInvalidRate      = "error.invalid_hourly_rate"
	KeyLoginRequired    = "error.login_required"
	KeyInvalidToken     = "error.invalid_token"
)

var translations = map[language.Tag]map[string]string{
	language.Indonesian: {
		KeyRegisterSuccess:  "Registrasi berhasil! Silakan cek email untuk verifikasi.",
		KeyLoginSuccess:     "Login berhasil! Mengalihkan...",
		KeyLogoutSuccess:    "Anda telah keluar",
		KeyEmailConfirmed:   "Email berhasil diverifikasi. Silakan login",
		KeyDuplicateEmail:   "Email sudah terdaftar",
		KeyInvalidEmail:     "Format email tidak valid",
		KeyWrongCredentials: "Email atau password salah",
		KeyEmailNotVerified: "Email belum diverifikasi. Silakan cek email Anda",
		KeyRoleRequired:     "Pilih peran Anda (freelancer atau client)",
		KeyPasswordMismatch: "Password dan konfirmasi password tidak cocok",
		KeyPasswordTooShort: "Password harus minimal 6 karakter",
		KeyFieldsRequired:   "Harap isi semua field",
		KeyInvalidRate:      "Tarif per jam tidak valid",
		KeyLoginRequired:    "Silakan login terlebih dahulu",
		KeyInvalidToken:     "Tautan verifikasi tidak valid atau sudah kedaluwarsa",
	},
	language.English: {
		KeyRegisterSuccess:  "Registration successful! Please check your email to verify your account.",
		KeyLoginSuccess:     "Login successful! Redirecting...",
		KeyLogoutSuccess:    "You have been logged out",
		KeyEmailConfirmed:   "Email verified. Please log in",
		KeyDuplicateEmail:   "email already registered",
		KeyInvalidEmail:     "invalid email format",
		KeyWrongCredentials: "wrong email or password",
		KeyEmailNotVerified: "email not verified",
		KeyRoleRequired:     "choose your role (freelancer or client)",
		KeyPasswordMismatch: "password and confirmation do not match",
		KeyPasswordTooShort: "password must be at least 6 characters",
		KeyFieldsRequired:   "please fill in all fields",
		KeyInvalidRate:      "invalid hourly rate",
		KeyLoginRequired:    "please log in first",
		KeyInvalidToken:     "verification link is invalid or has expired",
	},
}

// substringRule maps a provider message fragment to a message key.
type substringRule struct {
	fragment string
	key      string
}

var (
	registerRules = []substringRule{
		{"already registered", KeyDuplicateEmail},
		{"invalid email", KeyInvalidEmail},
	}
	loginRules = []substringRule{
		{"Invalid login credentials", KeyWrongCredentials},
		{"Email not confirmed", KeyEmailNotVerified},
	}
)

// Messages is the localized message catalog.
type Messages struct {
	catalog   catalog.Catalog
	supported []language.Tag
	matcher   language.Matcher
}

// NewMessages builds the catalog. fallback selects the language used when a
// request expresses no usable preference; it defaults to Indonesian.
func NewMessages(fallback string) (*Messages, error) {
	def := language.Indonesian
	if fallback != "" {
		tag, err := language.Parse(fallback)
		if err != nil {
			return nil, err
		}
		def = tag
	}

	b := catalog.NewBuilder(catalog.Fallback(def))
	for tag, entries := range translations {
		for key, text := range entries {
			if err := b.SetString(tag, key, text); err != nil {
				return nil, err
			}
		}
	}

	supported := []language.Tag{language.Indonesian, language.English}
	if def == language.English {
		supported = []language.Tag{language.English, language.Indonesian}
	}
	return &Messages{catalog: b, supported: supported, matcher: language.NewMatcher(supported)}, nil
}

// Printer returns a printer for the best match of an Accept-Language header.
func (m *Messages) Printer(acceptLanguage string) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	tag := m.supported[0]
	if err == nil && len(tags) > 0 {
		_, idx, conf := m.matcher.Match(tags...)
		if conf != language.No {
			tag = m.supported[idx]
		}
	}
	return message.NewPrinter(tag, message.Catalog(m.catalog))
}

// Text returns the localized text for key.
func (m *Messages) Text(p *message.Printer, key string) string {
	return p.Sprintf(key)
}

// RegisterError localizes a registration failure. Unmatched messages are returned verbatim.
func (m *Messages) RegisterError(p *message.Printer, providerMessage string) string {
	return m.translate(p, providerMessage, registerRules)
}

// LoginError localizes a login failure. Unmatched messages are returned verbatim.
func (m *Messages) LoginError(p *message.Printer, providerMessage string) string {
	return m.translate(p, providerMessage, loginRules)
}

func (m *Messages) translate(p *message.Printer, providerMessage string, rules []substringRule) string {
	for _, rule := range rules {
		if strings.Contains(providerMessage, rule.fragment) {
			return m.Text(p, rule.key)
		}
	}
	return providerMessage
}
