package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kerjalepas/kerjalepas/internal/logging"
	"github.com/kerjalepas/kerjalepas/internal/notification"
	"github.com/kerjalepas/kerjalepas/internal/session"
)

const defaultConfirmationTTL = 24 * time.Hour

// Option configures a service backend.
type Option func(*core)

// WithSessions sets the session store used by VerifyCredentials and friends.
func WithSessions(store session.Store) Option {
	return func(c *core) { c.sessions = store }
}

// WithConfirmations sets the store for email confirmation tokens.
func WithConfirmations(store session.OneTimeStore) Option {
	return func(c *core) { c.confirmations = store }
}

// WithNotifier sets where confirmation tokens are sent.
func WithNotifier(n notification.Notifier) Option {
	return func(c *core) { c.notifier = n }
}

// WithEmailConfirmation makes new identities start unconfirmed and blocks their
// logins until ConfirmEmail succeeds.
func WithEmailConfirmation(required bool) Option {
	return func(c *core) { c.requireConfirmation = required }
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(c *core) { c.hashCost = cost }
}

// WithLogger sets the fallback logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *core) { c.logger = logger }
}

// core holds what the backends share: hashing policy, sessions and confirmations.
type core struct {
	sessions            session.Store
	confirmations       session.OneTimeStore
	notifier            notification.Notifier
	requireConfirmation bool
	hashCost            int
	logger              *slog.Logger
	now                 func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func newCore(opts []Option) (*core, error) {
	c := &core{hashCost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessions == nil {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		signer, err := session.NewSigner(hex.EncodeToString(secret), time.Hour)
		if err != nil {
			return nil, err
		}
		c.sessions = session.NewMemoryStore(signer)
	}
	if c.confirmations == nil {
		c.confirmations = session.NewMemoryOneTimeStore(defaultConfirmationTTL)
	}
	return c, nil
}

func (c *core) log(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, c.logger)
}

// confirmedAt is the confirmation timestamp for a brand-new identity.
func (c *core) confirmedAt(now time.Time) *time.Time {
	if c.requireConfirmation {
		return nil
	}
	return &now
}

// passwordMatches compares against a dummy hash when hash is empty so that
// unknown emails cost the same as wrong passwords.
func (c *core) passwordMatches(hash, password string) bool {
	if hash == "" {
		c.dummyOnce.Do(func() {
			h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), c.hashCost)
			if err == nil {
				c.dummyHash = string(h)
			}
		})
		_ = bcrypt.CompareHashAndPassword([]byte(c.dummyHash), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// sendConfirmation issues a confirmation token for a new identity. Delivery
// problems are logged; the identity already exists.
func (c *core) sendConfirmation(ctx context.Context, identity Identity) {
	if !c.requireConfirmation {
		return
	}
	token, err := c.confirmations.Put(ctx, identity.ID)
	if err != nil {
		c.log(ctx).Error("store confirmation token", slog.String("user_id", identity.ID), slog.Any("error", err))
		return
	}
	if c.notifier == nil {
		return
	}
	err = c.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindEmailConfirmation,
		Destination: identity.Email,
		Body:        "Confirm your email address to finish signing up",
		Token:       token,
	})
	if err != nil {
		c.log(ctx).Error("send confirmation", slog.String("user_id", identity.ID), slog.Any("error", err))
	}
}

func (c *core) openSession(ctx context.Context, identity Identity) (Session, error) {
	if c.requireConfirmation && !identity.Confirmed() {
		return Session{}, ErrEmailNotConfirmed
	}
	token, err := c.sessions.Issue(ctx, identity.ID)
	if err != nil {
		return Session{}, unknown(err)
	}
	return Session{Identity: identity, Token: token.Value, ExpiresAt: token.ExpiresAt}, nil
}

// subject resolves the identity id behind the session token in ctx.
func (c *core) subject(ctx context.Context) (string, error) {
	token, ok := SessionToken(ctx)
	if !ok {
		return "", ErrNoSession
	}
	id, err := c.sessions.Resolve(ctx, token)
	if err != nil {
		return "", sessionError(err)
	}
	return id, nil
}

// TerminateSession revokes the session token carried by ctx.
func (c *core) TerminateSession(ctx context.Context) error {
	token, ok := SessionToken(ctx)
	if !ok {
		return ErrNoSession
	}
	if err := c.sessions.Revoke(ctx, token); err != nil {
		return sessionError(err)
	}
	return nil
}

// confirmationSubject consumes a confirmation token.
func (c *core) confirmationSubject(ctx context.Context, token string) (string, error) {
	id, err := c.confirmations.Take(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", unknown(err)
	}
	return id, nil
}

func sessionError(err error) error {
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidToken) {
		return ErrNoSession
	}
	return unknown(err)
}
