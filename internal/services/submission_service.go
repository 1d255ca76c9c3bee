// Package services – SubmissionService
//
// This file implements the signup submission flow: input normalization,
// duplicate and existing-account checks, rate limiting, persistence of the
// pending record, and the detached admin alert.
//
// The duplicate check and the insert are not atomic. Two concurrent
// submissions for the same email may both pass the check and both persist.
package services

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// SubmitInput is a raw submission as received from the caller.
type SubmitInput struct {
	Email     string
	Name      string
	Surname   *string
	IPAddress string
	UserAgent string
}

// SubmitResult identifies the created request.
type SubmitResult struct {
	ID string `json:"id"`
}

// SubmissionService accepts new signup requests.
type SubmissionService struct {
	Store    SignupStore
	Identity IdentityIssuer
	Guard    *RateGuard
	Notifier Notifier
	Links    LinkBuilder
	Dispatch *Dispatcher

	// Rand feeds token generation; crypto/rand when nil.
	Rand io.Reader
	Now  func() time.Time
}

// NewSubmissionService wires a SubmissionService with a UTC clock.
func NewSubmissionService(store SignupStore, identity IdentityIssuer, guard *RateGuard, notifier Notifier, links LinkBuilder, d *Dispatcher) *SubmissionService {
	return &SubmissionService{
		Store:    store,
		Identity: identity,
		Guard:    guard,
		Notifier: notifier,
		Links:    links,
		Dispatch: d,
		Rand:     rand.Reader,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates in and stores a new pending request. Checks run in a
// fixed order and the first failure is returned.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (res *SubmitResult, err error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.Bool("signup.has_ip", in.IPAddress != "")),
	)
	defer span.End()
	defer func() {
		submissionsTotal.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			span.RecordError(err)
		}
	}()

	email, verr := domain.NormalizeEmail(in.Email)
	if verr != nil {
		return nil, ErrInvalidEmail
	}
	name, verr := domain.NormalizeName(in.Name)
	if verr != nil {
		return nil, ErrInvalidName
	}

	existing, ferr := s.Store.FindByEmail(ctx, email)
	if ferr != nil {
		return nil, wrap(ErrPersistenceFailed, ferr)
	}
	if existing != nil && existing.Status == domain.StatusPending {
		return nil, ErrDuplicateRequest
	}

	if s.Identity != nil {
		exists, ierr := s.Identity.AccountExists(ctx, email)
		if ierr != nil {
			return nil, wrap(ErrIdentityUnavailable, ierr)
		}
		if exists {
			return nil, ErrAccountExists
		}
	}

	if s.Guard != nil {
		if in.IPAddress != "" {
			if d := s.Guard.CheckIPLimit(ctx, in.IPAddress); !d.Allowed {
				return nil, &RateLimitedError{Scope: domain.RateScopeIP, RetryAfter: d.RetryAfter, Message: d.Message}
			}
		}
		if d := s.Guard.CheckEmailLimit(ctx, email); !d.Allowed {
			return nil, &RateLimitedError{Scope: domain.RateScopeEmail, RetryAfter: d.RetryAfter, Message: d.Message}
		}
	}

	token, terr := domain.NewToken(s.Rand)
	if terr != nil {
		return nil, wrap(ErrPersistenceFailed, terr)
	}
	rec := domain.NewSignup(uuid.NewString(), token, domain.NewSignupParams{
		Email:     email,
		Name:      name,
		Surname:   domain.NormalizeOptional(in.Surname),
		IPAddress: domain.NormalizeOptional(&in.IPAddress),
		UserAgent: domain.NormalizeOptional(&in.UserAgent),
	}, s.now())

	if serr := s.Store.Save(ctx, rec); serr != nil {
		return nil, wrap(ErrPersistenceFailed, serr)
	}
	span.SetAttributes(attribute.String("signup.id", rec.ID))

	if s.Guard != nil {
		if rerr := s.Guard.Record(ctx, in.IPAddress, email); rerr != nil {
			loggerFrom(ctx).Warn().Err(rerr).Str("signup_id", rec.ID).Msg("rate window not recorded")
		}
	}

	if s.Notifier != nil {
		alert := AdminAlert{
			Signup:     rec,
			ApproveURL: s.Links.Approve(rec.Token),
			RejectURL:  s.Links.Reject(rec.Token),
		}
		s.Dispatch.Go(ctx, "admin_alert", func(ctx context.Context) error {
			return s.Notifier.NotifyAdmins(ctx, alert)
		})
	}

	loggerFrom(ctx).Info().Str("signup_id", rec.ID).Msg("signup request stored")
	return &SubmitResult{ID: rec.ID}, nil
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
