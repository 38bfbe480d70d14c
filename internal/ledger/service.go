// Package ledger enforces the credit economy. Every generation costs
// credits; the durable store holds the authoritative balance and this
// service decides, per principal, what happens when it runs out.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"atelier/internal/identity"
	"atelier/internal/ledger/metrics"
	"atelier/internal/ledger/models"
	"atelier/internal/notify"
	"atelier/internal/store/ports"
	dErrors "atelier/pkg/domain-errors"
)

const tracerName = "ledger"

// PrincipalResolver yields the acting principal for a request.
type PrincipalResolver interface {
	Resolve(ctx context.Context) (identity.Principal, error)
}

// Service coordinates balance reads and deductions for the acting principal.
type Service struct {
	resolver PrincipalResolver
	users    ports.UserStore
	guests   ports.GuestStore
	notifier notify.Notifier
	prompter notify.LoginPrompter
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.RWMutex
	balance int
	known   bool
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger for deduction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches ledger metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs the ledger service.
func NewService(resolver PrincipalResolver, users ports.UserStore, guests ports.GuestStore,
	notifier notify.Notifier, prompter notify.LoginPrompter, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		users:    users,
		guests:   guests,
		notifier: notifier,
		prompter: prompter,
	}
	if s.notifier == nil {
		s.notifier = notify.NopNotifier{}
	}
	if s.prompter == nil {
		s.prompter = notify.NopLoginPrompter{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Balance returns the last known balance. The second return is false until
// the balance has been fetched at least once this session.
func (s *Service) Balance() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance, s.known
}

func (s *Service) setBalance(n int) {
	s.mu.Lock()
	s.balance = n
	s.known = true
	s.mu.Unlock()
}

// Invalidate forgets the session balance. Called on login and logout so the
// next read fetches under the new principal; a guest's balance must never
// show through to a freshly signed-in user, or vice versa.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.balance = 0
	s.known = false
	s.mu.Unlock()
}

// FetchBalance reads the authoritative balance for the acting principal and
// caches it for the session.
func (s *Service) FetchBalance(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ledger.FetchBalance")
	defer span.End()

	if s.metrics != nil {
		s.metrics.BalanceFetches.Inc()
	}

	principal, err := s.resolver.Resolve(ctx)
	if err != nil {
		return 0, err
	}

	var balance int
	switch p := principal.(type) {
	case identity.User:
		balance, err = s.users.Credits(ctx, p.UserID)
	case identity.Guest:
		balance, err = s.guests.Credits(ctx, p.DeviceID)
	default:
		err = dErrors.New(dErrors.CodeInternal, "unknown principal kind")
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.BalanceFailures.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "balance fetch failed")
		return 0, err
	}

	s.setBalance(balance)
	span.SetAttributes(attribute.Int("balance", balance))
	return balance, nil
}

// CheckAndDeduct attempts to spend amount credits for the acting principal.
//
// The return value answers one question only: may the generation proceed?
// Running out of credits is not an error. A guest who runs out gets the
// sign-in prompt, because an account is the remedy; a signed-in user gets an
// inline notice. A transport failure reaches neither verdict: the caller
// must not proceed, and the error describes why.
func (s *Service) CheckAndDeduct(ctx context.Context, amount int) (bool, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ledger.CheckAndDeduct",
		trace.WithAttributes(attribute.Int("amount", amount)))
	defer span.End()

	if amount <= 0 {
		return false, dErrors.New(dErrors.CodeInvalidInput, "deduction amount must be positive")
	}

	principal, err := s.resolver.Resolve(ctx)
	if err != nil {
		return false, err
	}

	start := time.Now()
	var (
		kind string
		d    models.Deduction
	)
	switch p := principal.(type) {
	case identity.User:
		kind = "user"
		d, err = s.users.DeductCredits(ctx, p.UserID, amount)
	case identity.Guest:
		kind = "guest"
		d, err = s.guests.DeductCredits(ctx, p.DeviceID, amount)
	default:
		return false, dErrors.New(dErrors.CodeInternal, "unknown principal kind")
	}

	if s.metrics != nil {
		s.metrics.RecordDeduction(kind, string(d.Outcome), start)
	}
	span.SetAttributes(attribute.String("outcome", string(d.Outcome)))

	switch d.Outcome {
	case models.OutcomeOK:
		s.setBalance(d.Balance)
		return true, nil

	case models.OutcomeInsufficient:
		if kind == "guest" {
			if s.metrics != nil {
				s.metrics.IncrementLoginPrompts()
			}
			s.prompter.PromptLogin(ctx)
		} else {
			s.notifier.Notify(ctx, notify.Notice{
				Severity:   notify.SeverityWarning,
				MessageKey: "credits.insufficient",
			})
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "deduction refused: insufficient credits",
				"principal", kind, "amount", amount)
		}
		return false, nil

	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "deduction transport failure")
		s.notifier.Notify(ctx, notify.Notice{
			Severity:   notify.SeverityError,
			MessageKey: "credits.check_failed",
		})
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "deduction failed before a verdict",
				"principal", kind, "amount", amount, "error", err)
		}
		if err == nil {
			err = dErrors.New(dErrors.CodeInternal, "deduction reached no verdict")
		}
		return false, err
	}
}
