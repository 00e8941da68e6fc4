package ui

import "time"

// Redirect targets after a successful form submission.
const (
	LoginPage     = "login.html"
	DashboardPage = "dashboard.html"
)

// Redirect tells the client where to go next and after how long.
type Redirect struct {
	Target string
	Delay  time.Duration
}

// Policy holds the post-success redirects of both forms.
type Policy struct {
	Register Redirect
	Login    Redirect
}

// DefaultPolicy sends new registrations to the login page after 3s and logged in
// users to the dashboard after 1s.
func DefaultPolicy() Policy {
	return NewPolicy(3*time.Second, time.Second)
}

// NewPolicy builds a Policy with custom delays.
func NewPolicy(registerDelay, loginDelay time.Duration) Policy {
	return Policy{
		Register: Redirect{Target: LoginPage, Delay: registerDelay},
		Login:    Redirect{Target: DashboardPage, Delay: loginDelay},
	}
}

// Response is the JSON body returned to the forms.
type Response struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	Redirect        string `json:"redirect,omitempty"`
	RedirectAfterMS int64  `json:"redirect_after_ms,omitempty"`
}

// Failure builds an error response.
func Failure(message string) Response {
	return Response{Message: message}
}

// Success builds a success response that redirects per r.
func Success(message string, r Redirect) Response {
	return Response{
		Success:         true,
		Message:         message,
		Redirect:        r.Target,
		RedirectAfterMS: r.Delay.Milliseconds(),
	}
}
