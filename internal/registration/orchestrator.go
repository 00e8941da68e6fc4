// Package registration provisions a new account: the identity first, then its
// profile and wallet records.
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kerjalepas/kerjalepas/internal/account"
	"github.com/kerjalepas/kerjalepas/internal/logging"
	"github.com/kerjalepas/kerjalepas/internal/profile"
	"github.com/kerjalepas/kerjalepas/internal/wallet"
)

// IdentityCreationError is a fatal registration failure. Its message is the
// Account Service's message, unchanged.
type IdentityCreationError struct {
	Err error
}

func (e *IdentityCreationError) Error() string { return e.Err.Error() }

func (e *IdentityCreationError) Unwrap() error { return e.Err }

// RecordInsertionError records a failed profile or wallet insertion. It never
// fails the registration.
type RecordInsertionError struct {
	Table string
	Err   error
}

func (e *RecordInsertionError) Error() string {
	return fmt.Sprintf("insert %s record: %v", e.Table, e.Err)
}

func (e *RecordInsertionError) Unwrap() error { return e.Err }

// Provisioning reports the outcome of the record insertions.
type Provisioning struct {
	Profile error
	Wallet  error
}

// Complete reports whether both records were created.
func (p Provisioning) Complete() bool {
	return p.Profile == nil && p.Wallet == nil
}

// Result is the outcome of Register.
type Result struct {
	Identity     *account.Identity
	Err          error
	Provisioning Provisioning
}

// Success reports whether the identity was created.
func (r Result) Success() bool {
	return r.Err == nil && r.Identity != nil
}

// Message is the failure message, empty on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the fallback logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator sequences identity creation and record provisioning.
type Orchestrator struct {
	accounts account.Service
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewOrchestrator builds an Orchestrator on top of an Account Service.
func NewOrchestrator(accounts account.Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{accounts: accounts, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register creates the identity and then attempts the profile and wallet
// inserts in that order. Once the identity exists the registration succeeds,
// whatever happens to the records. It never panics.
func (o *Orchestrator) Register(ctx context.Context, req Request) (res Result) {
	log := logging.FromContext(ctx, o.logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("registration panicked", slog.Any("panic", r))
			o.metrics.outcome(outcomePanic)
			res = Result{Err: fmt.Errorf("registration failed: %v", r)}
		}
	}()

	if err := req.Validate(); err != nil {
		o.metrics.outcome(outcomeRejected)
		return Result{Err: err}
	}

	identity, err := o.accounts.CreateIdentity(ctx, req.Email, req.Password, account.Attributes{
		FullName: req.FullName,
		UserType: string(req.UserType),
	})
	if err != nil {
		log.Warn("identity creation failed", slog.String("kind", string(account.KindOf(err))), slog.Any("error", err))
		o.metrics.outcome(outcomeIdentityFailed)
		return Result{Err: &IdentityCreationError{Err: err}}
	}
	log = log.With(slog.String("user_id", identity.ID))

	now := o.now().UTC()
	var prov Provisioning
	prov.Profile = o.insert(ctx, log, profileRecord(identity, req, now))
	prov.Wallet = o.insert(ctx, log, wallet.NewRecord(identity.ID, now))

	if prov.Complete() {
		o.metrics.outcome(outcomeSuccess)
	} else {
		o.metrics.outcome(outcomePartial)
	}
	log.Info("registration completed", slog.Bool("provisioned", prov.Complete()))
	return Result{Identity: &identity, Provisioning: prov}
}

func (o *Orchestrator) insert(ctx context.Context, log *slog.Logger, record account.Record) error {
	if err := o.accounts.InsertRecord(ctx, record); err != nil {
		insertErr := &RecordInsertionError{Table: record.Table(), Err: err}
		log.Error("record insertion failed", slog.String("table", record.Table()), slog.Any("error", err))
		o.metrics.provisioningFailure(record.Table())
		return insertErr
	}
	return nil
}

func profileRecord(identity account.Identity, req Request, now time.Time) profile.Record {
	rec := profile.Record{
		ID:        identity.ID,
		Email:     identity.Email,
		FullName:  req.FullName,
		UserType:  req.UserType,
		Skills:    ParseSkills(req.Skills),
		CreatedAt: now,
	}
	if req.HourlyRate != nil {
		rate := *req.HourlyRate
		rec.HourlyRate = &rate
	}
	if req.Company != "" {
		company := req.Company
		rec.Company = &company
	}
	return rec
}
