package account

import "errors"

// Kind classifies Account Service failures.
type Kind string

const (
	KindDuplicateEmail     Kind = "duplicate_email"
	KindInvalidEmail       Kind = "invalid_email"
	KindInvalidPassword    Kind = "invalid_password"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindEmailNotConfirmed  Kind = "email_not_confirmed"
	KindNoSession          Kind = "no_session"
	KindInvalidToken       Kind = "invalid_token"
	KindUnknown            Kind = "unknown"
)

// Error is returned by every Service method. Message uses the hosted provider's
// wording, which the UI layer matches on.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrDuplicateEmail) works
// regardless of message details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "User already registered"}
	ErrInvalidEmail       = &Error{Kind: KindInvalidEmail, Message: "Unable to validate email address: invalid email format"}
	ErrInvalidPassword    = &Error{Kind: KindInvalidPassword, Message: "Password should be at least 6 characters"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid login credentials"}
	ErrEmailNotConfirmed  = &Error{Kind: KindEmailNotConfirmed, Message: "Email not confirmed"}
	ErrNoSession          = &Error{Kind: KindNoSession, Message: "Auth session missing!"}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken, Message: "Token has expired or is invalid"}
)

// KindOf extracts the failure kind of err. Errors not produced by this package are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func unknown(err error) error {
	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}
