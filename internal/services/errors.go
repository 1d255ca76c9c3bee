// Package services defines the business logic for signup submission, review
// and querying. This file centralizes the service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Errors are grouped in categories. Every specific error wraps exactly one
// category sentinel, so callers may branch on either:
//
//	errors.Is(err, ErrDuplicateRequest) // specific
//	errors.Is(err, ErrConflict)         // category
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// Error categories.
var (
	// ErrValidation marks malformed input detected before any I/O.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a request that contradicts the current state.
	ErrConflict = errors.New("conflict")
	// ErrExpired marks a token past its TTL.
	ErrExpired = errors.New("expired")
	// ErrRateLimited marks a submission rejected by the RateGuard.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstream marks a failure of the identity issuer or another external
	// collaborator.
	ErrUpstream = errors.New("upstream failure")
	// ErrPersistence marks a store read or write failure.
	ErrPersistence = errors.New("persistence failure")
)

// Validation errors.
var (
	ErrInvalidEmail  = fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidEmail)
	ErrInvalidName   = fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidName)
	ErrInvalidToken  = fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidToken)
	ErrInvalidAdmin  = fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidAdmin)
	ErrInvalidStatus = fmt.Errorf("%w: %w", ErrValidation, domain.ErrInvalidStatus)
)

// Not found.
var ErrSignupNotFound = fmt.Errorf("%w: signup request", ErrNotFound)

// Conflicts.
var (
	// ErrDuplicateRequest is returned when a pending request already exists
	// for the email.
	ErrDuplicateRequest = fmt.Errorf("%w: a pending request already exists for this email", ErrConflict)
	// ErrAccountExists is returned when the identity provider already holds an
	// account for the email.
	ErrAccountExists = fmt.Errorf("%w: an account already exists for this email", ErrConflict)
	// ErrAlreadyProcessed is returned for any transition out of a terminal
	// status.
	ErrAlreadyProcessed = fmt.Errorf("%w: request already processed", ErrConflict)
	// ErrAlreadyUsed is returned when the token has been spent.
	ErrAlreadyUsed = fmt.Errorf("%w: token already used", ErrConflict)
)

// ErrTokenExpired is returned by approval when the token is older than the TTL.
var ErrTokenExpired = fmt.Errorf("%w: token expired", ErrExpired)

// Upstream failures.
var (
	ErrIdentityUnavailable = fmt.Errorf("%w: identity lookup failed", ErrUpstream)
	ErrIssuanceFailed      = fmt.Errorf("%w: activation link issuance failed", ErrUpstream)
)

// Persistence failures.
var (
	ErrPersistenceFailed = fmt.Errorf("%w: could not store request", ErrPersistence)
	ErrUpdateFailed      = fmt.Errorf("%w: could not update request", ErrPersistence)
)

// RateLimitedError is returned when a RateGuard check denies a submission.
type RateLimitedError struct {
	Scope      domain.RateScope
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (%s): %s", e.Scope, e.Message)
}

// Is makes errors.Is(err, ErrRateLimited) hold.
func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// wrap attaches cause to a specific service error so both match errors.Is.
func wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
