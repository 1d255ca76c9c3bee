// Package services – ReviewService
//
// ReviewService applies an administrator's decision to a pending request,
// addressed by its approval token.
//
// Approval and rejection treat the token differently. Approval leaves the
// token unspent so the user can redeem the activation link later; rejection
// spends it immediately. Approval mints the activation link before the record
// is updated, so a failed update leaves an issued link next to a record that
// still reads pending. Nothing is rolled back.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// DefaultTokenTTL is how long an approval token stays valid.
const DefaultTokenTTL = 168 * time.Hour

// ApprovalResult is returned by a successful approval.
type ApprovalResult struct {
	SignupID       string `json:"-"`
	ActivationLink string `json:"activation_link"`
}

// ReviewService approves and rejects pending requests.
type ReviewService struct {
	Store    SignupStore
	Identity IdentityIssuer
	Notifier Notifier
	Dispatch *Dispatcher

	TokenTTL time.Duration
	Now      func() time.Time
}

// NewReviewService wires a ReviewService with the default token TTL.
func NewReviewService(store SignupStore, identity IdentityIssuer, notifier Notifier, d *Dispatcher) *ReviewService {
	return &ReviewService{
		Store:    store,
		Identity: identity,
		Notifier: notifier,
		Dispatch: d,
		TokenTTL: DefaultTokenTTL,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Approve approves the request behind token on behalf of admin and returns
// the activation link minted for the user.
func (s *ReviewService) Approve(ctx context.Context, token, admin string) (res *ApprovalResult, err error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Approve")
	defer span.End()
	defer s.observe(span, "approve", &err)

	rec, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("signup.id", rec.ID))

	now := s.now()
	if err := s.gate(rec, domain.StatusApproved, now, true); err != nil {
		return nil, err
	}
	adminID, err := domain.ParseAdminID(admin)
	if err != nil {
		return nil, ErrInvalidAdmin
	}

	link, err := s.Identity.IssueActivationLink(ctx, rec.Email)
	if err != nil {
		return nil, wrap(ErrIssuanceFailed, err)
	}

	next, err := rec.Approve(adminID, now)
	if err != nil {
		return nil, ErrAlreadyProcessed
	}
	if err := s.Store.Update(ctx, next); err != nil {
		loggerFrom(ctx).Error().Err(err).Str("signup_id", rec.ID).
			Msg("activation link issued but approval was not stored")
		return nil, wrap(ErrUpdateFailed, err)
	}

	if s.Notifier != nil {
		s.Dispatch.Go(ctx, "activation", func(ctx context.Context) error {
			return s.Notifier.SendActivation(ctx, next, link)
		})
	}

	loggerFrom(ctx).Info().Str("signup_id", rec.ID).Str("admin_id", adminID).Msg("signup approved")
	return &ApprovalResult{SignupID: rec.ID, ActivationLink: link}, nil
}

// Reject rejects the request behind token on behalf of admin. Expired tokens
// may still be rejected.
func (s *ReviewService) Reject(ctx context.Context, token, admin string) (err error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Reject")
	defer span.End()
	defer s.observe(span, "reject", &err)

	rec, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("signup.id", rec.ID))

	now := s.now()
	if err := s.gate(rec, domain.StatusRejected, now, false); err != nil {
		return err
	}
	adminID, err := domain.ParseAdminID(admin)
	if err != nil {
		return ErrInvalidAdmin
	}

	next, err := rec.Reject(adminID, now)
	if err != nil {
		return ErrAlreadyProcessed
	}
	if err := s.Store.Update(ctx, next); err != nil {
		return wrap(ErrUpdateFailed, err)
	}

	if s.Notifier != nil {
		s.Dispatch.Go(ctx, "rejection", func(ctx context.Context) error {
			return s.Notifier.SendRejection(ctx, next)
		})
	}

	loggerFrom(ctx).Info().Str("signup_id", rec.ID).Str("admin_id", adminID).Msg("signup rejected")
	return nil
}

// load parses token and fetches its record.
func (s *ReviewService) load(ctx context.Context, token string) (*domain.Signup, error) {
	canonical, err := domain.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rec, err := s.Store.FindByToken(ctx, canonical)
	if err != nil {
		return nil, wrap(ErrPersistence, err)
	}
	if rec == nil {
		return nil, ErrSignupNotFound
	}
	return rec, nil
}

// gate checks the token, then the status. On a request that was already
// decided, a spent or expired token reports the decision rather than the
// token state.
func (s *ReviewService) gate(rec *domain.Signup, to domain.Status, now time.Time, checkExpiry bool) error {
	decided := rec.Status.Terminal()
	if rec.TokenUsed() {
		if decided {
			return ErrAlreadyProcessed
		}
		return ErrAlreadyUsed
	}
	if checkExpiry && rec.IsExpired(s.ttl(), now) {
		if decided {
			return ErrAlreadyProcessed
		}
		return ErrTokenExpired
	}
	if !domain.CanTransition(rec.Status, to) {
		return ErrAlreadyProcessed
	}
	return nil
}

func (s *ReviewService) observe(span trace.Span, action string, err *error) {
	reviewsTotal.WithLabelValues(action, outcomeOf(*err)).Inc()
	if *err != nil {
		span.RecordError(*err)
	}
}

func (s *ReviewService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultTokenTTL
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
