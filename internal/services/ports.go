package services

import (
	"context"
	"time"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// SignupStore is the persistence contract of the signup flows.
// Find methods return (nil, nil) when nothing matches.
type SignupStore interface {
	Save(ctx context.Context, rec domain.Signup) error
	Update(ctx context.Context, rec domain.Signup) error
	FindByID(ctx context.Context, id string) (*domain.Signup, error)
	// FindByEmail returns the newest record for a normalized email.
	FindByEmail(ctx context.Context, email string) (*domain.Signup, error)
	FindByToken(ctx context.Context, token string) (*domain.Signup, error)
	FindByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Signup, error)
	CountByStatus(ctx context.Context, status domain.Status) (int64, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// IdentityIssuer talks to the identity provider that owns user accounts.
type IdentityIssuer interface {
	// IssueActivationLink returns a one-time link the user follows to
	// activate an account for email.
	IssueActivationLink(ctx context.Context, email string) (string, error)
	AccountExists(ctx context.Context, email string) (bool, error)
}

// RateStore persists fixed rate windows keyed by (scope, identifier,
// window start).
type RateStore interface {
	SumRequests(ctx context.Context, scope domain.RateScope, identifier string, since time.Time) (int64, error)
	RecordRequest(ctx context.Context, scope domain.RateScope, identifier string, ts time.Time) error
}

// RateWindowPurger is implemented by rate stores that need explicit
// retention. Stores that expire data themselves (Redis) do not.
type RateWindowPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier sends best-effort emails. Callers never act on its errors other
// than logging them.
type Notifier interface {
	NotifyAdmins(ctx context.Context, alert AdminAlert) error
	SendActivation(ctx context.Context, rec domain.Signup, link string) error
	SendRejection(ctx context.Context, rec domain.Signup) error
}

// AdminAlert is what administrators receive for a new request.
type AdminAlert struct {
	Signup     domain.Signup
	ApproveURL string
	RejectURL  string
}
