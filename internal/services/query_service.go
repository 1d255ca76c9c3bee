package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// Pagination bounds for ListByStatus.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// QueryService reads signups for administrators. It performs no
// authorization; the routing layer gates access.
type QueryService struct {
	Store SignupStore
}

// NewQueryService returns a QueryService over store.
func NewQueryService(store SignupStore) *QueryService {
	return &QueryService{Store: store}
}

// ListByStatus returns one page of signups in status, newest first.
func (s *QueryService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Signup, error) {
	tr := otel.Tracer("services/QueryService")
	ctx, span := tr.Start(ctx, "ListByStatus",
		trace.WithAttributes(
			attribute.String("signup.status", status),
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
		),
	)
	defer span.End()

	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, ErrInvalidStatus
	}
	limit, offset = ClampPage(limit, offset)

	items, err := s.Store.FindByStatus(ctx, st, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, wrap(ErrPersistence, err)
	}
	return items, nil
}

// CountByStatus returns the number of signups in status.
func (s *QueryService) CountByStatus(ctx context.Context, status string) (int64, error) {
	tr := otel.Tracer("services/QueryService")
	ctx, span := tr.Start(ctx, "CountByStatus",
		trace.WithAttributes(attribute.String("signup.status", status)),
	)
	defer span.End()

	st, err := domain.ParseStatus(status)
	if err != nil {
		return 0, ErrInvalidStatus
	}
	n, err := s.Store.CountByStatus(ctx, st)
	if err != nil {
		span.RecordError(err)
		return 0, wrap(ErrPersistence, err)
	}
	return n, nil
}

// Get returns one signup by id.
func (s *QueryService) Get(ctx context.Context, id string) (*domain.Signup, error) {
	tr := otel.Tracer("services/QueryService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("signup.id", id)))
	defer span.End()

	rec, err := s.Store.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, wrap(ErrPersistence, err)
	}
	if rec == nil {
		return nil, ErrSignupNotFound
	}
	return rec, nil
}

// ClampPage applies the default and maximum page size and floors offset at 0.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
