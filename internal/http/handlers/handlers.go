// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and shape input, call the signup
// services, and translate results and service errors into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-signup-gate/internal/domain"
	"github.com/tbourn/go-signup-gate/internal/services"
)

//
// Service contracts (context-aware)
//

// SubmissionService accepts new signup requests.
type SubmissionService interface {
	Submit(ctx context.Context, in services.SubmitInput) (*services.SubmitResult, error)
}

// ReviewService performs administrator decisions on a request, addressed by
// its approval token.
type ReviewService interface {
	Approve(ctx context.Context, token, admin string) (*services.ApprovalResult, error)
	Reject(ctx context.Context, token, admin string) error
}

// QueryService reads requests for the admin listing.
type QueryService interface {
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Signup, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	Get(ctx context.Context, id string) (*domain.Signup, error)
}

// StatsFunc reports the row count and newest UpdatedAt for a status. It
// feeds the weak ETag of the admin listing.
type StatsFunc func(ctx context.Context, status domain.Status) (count int64, maxUpdatedAt *time.Time, err error)

// IdempotencyRecorder stores the outcome of a completed submission so that a
// retry with the same Idempotency-Key is answered from the record.
type IdempotencyRecorder interface {
	Remember(ctx context.Context, scope, subject, key, resourceID string, status int) error
}

// ScopeSubmit namespaces idempotency records of the submit endpoint.
const ScopeSubmit = "signup.submit"

//
// Handler wiring
//

// Handlers groups the signup and admin endpoints.
type Handlers struct {
	submit SubmissionService
	review ReviewService
	query  QueryService

	stats StatsFunc
	idem  IdempotencyRecorder
}

// New constructs Handlers bound to the given services. stats and idem may be
// nil, which disables ETags and idempotency records respectively.
func New(submit SubmissionService, review ReviewService, query QueryService, stats StatsFunc, idem IdempotencyRecorder) *Handlers {
	return &Handlers{submit: submit, review: review, query: query, stats: stats, idem: idem}
}
