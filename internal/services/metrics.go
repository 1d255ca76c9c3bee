package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeAllowed  = "allowed"
	outcomeDenied   = "denied"
	outcomeFailOpen = "fail_open"
)

var (
	// submissionsTotal counts Submit calls by outcome (ok or the error
	// category).
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_submissions_total",
			Help: "Signup submissions by outcome.",
		},
		[]string{"outcome"},
	)

	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_reviews_total",
			Help: "Approval and rejection attempts by outcome.",
		},
		[]string{"action", "outcome"},
	)

	rateGuardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_rate_guard_decisions_total",
			Help: "RateGuard checks by scope and decision.",
		},
		[]string{"scope", "outcome"},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_notifications_total",
			Help: "Fire-and-forget notifications by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	retentionDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_retention_deleted_total",
			Help: "Rows removed by the retention job.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(submissionsTotal, reviewsTotal, rateGuardDecisions, notificationsTotal, retentionDeleted)
}

// outcomeOf maps an error to a bounded label value.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return outcomeError
	}
}
