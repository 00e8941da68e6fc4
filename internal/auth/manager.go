// Package auth wraps the Account Service session operations used by the
// login form and by protected routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/logging"
)

// DefaultLoginPage is where unauthenticated visitors are sent.
const DefaultLoginPage = "login.html"

// ErrConfirmationUnsupported is returned by ConfirmEmail when the Account
// Service has no confirmation flow.
var ErrConfirmationUnsupported = errors.New("email confirmation is not supported")

// Result is the outcome of an operation that returns nothing on success.
type Result struct {
	Err error
}

// Success reports whether the operation succeeded.
func (r Result) Success() bool { return r.Err == nil }

// Message is the failure message, empty on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// LoginResult is the outcome of Login.
type LoginResult struct {
	Identity  *account.Identity
	Token     string
	ExpiresAt time.Time
	Err       error
}

// Success reports whether the credentials were accepted.
func (r LoginResult) Success() bool { return r.Err == nil && r.Identity != nil }

// Message is the provider's failure message, empty on success.
func (r LoginResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Manager runs login, logout and session lookups against an Account Service.
// Build one in the composition root and pass it to whoever needs it.
type Manager struct {
	accounts account.Service
	logger   *slog.Logger
}

// NewManager builds a Manager.
func NewManager(accounts account.Service, logger *slog.Logger) *Manager {
	return &Manager{accounts: accounts, logger: logger}
}

// Login verifies credentials and returns the identity with its new session token.
// Failures carry the provider's message verbatim.
func (m *Manager) Login(ctx context.Context, email, password string) (res LoginResult) {
	log := logging.FromContext(ctx, m.logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("login panicked", slog.Any("panic", r))
			res = LoginResult{Err: fmt.Errorf("login failed: %v", r)}
		}
	}()

	sess, err := m.accounts.VerifyCredentials(ctx, email, password)
	if err != nil {
		log.Info("login rejected", slog.String("kind", string(account.KindOf(err))))
		return LoginResult{Err: err}
	}
	identity := sess.Identity
	return LoginResult{Identity: &identity, Token: sess.Token, ExpiresAt: sess.ExpiresAt}
}

// Logout ends the session carried by ctx.
func (m *Manager) Logout(ctx context.Context) (res Result) {
	log := logging.FromContext(ctx, m.logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("logout panicked", slog.Any("panic", r))
			res = Result{Err: fmt.Errorf("logout failed: %v", r)}
		}
	}()

	if err := m.accounts.TerminateSession(ctx); err != nil {
		log.Info("logout failed", slog.Any("error", err))
		return Result{Err: err}
	}
	return Result{}
}

// CurrentUser returns the identity behind the session in ctx, or nil on any failure.
func (m *Manager) CurrentUser(ctx context.Context) (identity *account.Identity) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx, m.logger).Error("current user lookup panicked", slog.Any("panic", r))
			identity = nil
		}
	}()

	id, err := m.accounts.ActiveIdentity(ctx)
	if err != nil {
		if !errors.Is(err, account.ErrNoSession) {
			logging.FromContext(ctx, m.logger).Warn("current user lookup failed", slog.Any("error", err))
		}
		return nil
	}
	return &id
}

// IsAuthenticated reports whether ctx carries a live session.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.CurrentUser(ctx) != nil
}

// RequireAuth returns the page to redirect to and false when ctx is not
// authenticated. An empty redirect means DefaultLoginPage.
func (m *Manager) RequireAuth(ctx context.Context, redirect string) (string, bool) {
	if m.IsAuthenticated(ctx) {
		return "", true
	}
	if redirect == "" {
		redirect = DefaultLoginPage
	}
	return redirect, false
}

// ConfirmEmail consumes an email confirmation token.
func (m *Manager) ConfirmEmail(ctx context.Context, token string) Result {
	confirmer, ok := m.accounts.(account.Confirmer)
	if !ok {
		return Result{Err: ErrConfirmationUnsupported}
	}
	if err := confirmer.ConfirmEmail(ctx, token); err != nil {
		return Result{Err: err}
	}
	return Result{}
}
