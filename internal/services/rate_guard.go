// Package services – RateGuard
//
// RateGuard decides whether a new submission from an IP or email is allowed
// and records accepted submissions into fixed windows held by a RateStore.
// The guard keeps no state of its own.
//
// Checks and Record are separate calls and are not atomic: concurrent
// submissions may all pass a check before any of them is recorded.
// On a store read failure the guard fails open.
package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// Default limits.
const (
	DefaultIPLimit    = 5
	DefaultEmailLimit = 1
)

// RateDecision is the result of a limit check.
type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
	Message    string
}

// RateGuard enforces per-IP and per-email submission limits.
type RateGuard struct {
	Store RateStore

	// IPLimit is the maximum number of accepted submissions per IP per hour.
	IPLimit int
	// EmailLimit is the maximum number of accepted submissions per email per day.
	EmailLimit int

	Now func() time.Time
}

// NewRateGuard returns a guard with the default limits.
func NewRateGuard(store RateStore) *RateGuard {
	return &RateGuard{
		Store:      store,
		IPLimit:    DefaultIPLimit,
		EmailLimit: DefaultEmailLimit,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// CheckIPLimit reports whether ip may submit now.
func (g *RateGuard) CheckIPLimit(ctx context.Context, ip string) RateDecision {
	return g.check(ctx, domain.RateScopeIP, ip, g.IPLimit)
}

// CheckEmailLimit reports whether email may submit now.
func (g *RateGuard) CheckEmailLimit(ctx context.Context, email string) RateDecision {
	return g.check(ctx, domain.RateScopeEmail, email, g.EmailLimit)
}

// Record counts one accepted submission. An empty ip only records the email.
func (g *RateGuard) Record(ctx context.Context, ip, email string) error {
	tr := otel.Tracer("services/RateGuard")
	ctx, span := tr.Start(ctx, "Record")
	defer span.End()

	now := g.now()
	if ip != "" {
		if err := g.Store.RecordRequest(ctx, domain.RateScopeIP, ip, now); err != nil {
			span.RecordError(err)
			return fmt.Errorf("record ip window: %w", err)
		}
	}
	if email != "" {
		if err := g.Store.RecordRequest(ctx, domain.RateScopeEmail, email, now); err != nil {
			span.RecordError(err)
			return fmt.Errorf("record email window: %w", err)
		}
	}
	return nil
}

func (g *RateGuard) check(ctx context.Context, scope domain.RateScope, identifier string, limit int) RateDecision {
	tr := otel.Tracer("services/RateGuard")
	ctx, span := tr.Start(ctx, "Check",
		trace.WithAttributes(
			attribute.String("rate.scope", string(scope)),
			attribute.Int("rate.limit", limit),
		),
	)
	defer span.End()

	window, err := scope.Window()
	if err != nil {
		// unknown scope is a programming error; do not block users on it
		return RateDecision{Allowed: true}
	}

	count, err := g.Store.SumRequests(ctx, scope, identifier, g.now().Add(-window))
	if err != nil {
		span.RecordError(err)
		loggerFrom(ctx).Warn().Err(err).Str("scope", string(scope)).Msg("rate store read failed; allowing request")
		rateGuardDecisions.WithLabelValues(string(scope), outcomeFailOpen).Inc()
		return RateDecision{Allowed: true}
	}

	if limit >= 0 && count >= int64(limit) {
		rateGuardDecisions.WithLabelValues(string(scope), outcomeDenied).Inc()
		return RateDecision{
			Allowed:    false,
			RetryAfter: window,
			Message:    denialMessage(scope),
		}
	}
	rateGuardDecisions.WithLabelValues(string(scope), outcomeAllowed).Inc()
	return RateDecision{Allowed: true}
}

func denialMessage(scope domain.RateScope) string {
	if scope == domain.RateScopeIP {
		return "too many signup requests from this address, try again in an hour"
	}
	return "a signup request for this email was already received today, try again tomorrow"
}

func (g *RateGuard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now().UTC()
}
