package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultRetentionDays is the age after which signups are purged.
const DefaultRetentionDays = 90

// PurgeReport summarizes one retention run.
type PurgeReport struct {
	Signups     int64
	RateWindows int64
}

// RetentionService removes signups older than Days regardless of status, and
// rate windows past the same horizon when the rate store needs it.
type RetentionService struct {
	Store SignupStore
	// Rates is optional.
	Rates RateWindowPurger
	Days  int
	Now   func() time.Time
}

// Purge runs one retention pass.
func (s *RetentionService) Purge(ctx context.Context) (PurgeReport, error) {
	tr := otel.Tracer("services/RetentionService")
	ctx, span := tr.Start(ctx, "Purge")
	defer span.End()

	days := s.Days
	if days <= 0 {
		days = DefaultRetentionDays
	}
	span.SetAttributes(attribute.Int("retention.days", days))

	var rep PurgeReport
	n, err := s.Store.DeleteOlderThan(ctx, days)
	if err != nil {
		span.RecordError(err)
		return rep, wrap(ErrPersistence, err)
	}
	rep.Signups = n
	retentionDeleted.WithLabelValues("signups").Add(float64(n))

	if s.Rates != nil {
		cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
		n, err := s.Rates.PurgeBefore(ctx, cutoff)
		if err != nil {
			span.RecordError(err)
			return rep, wrap(ErrPersistence, err)
		}
		rep.RateWindows = n
		retentionDeleted.WithLabelValues("rate_windows").Add(float64(n))
	}

	loggerFrom(ctx).Info().
		Int64("signups", rep.Signups).
		Int64("rate_windows", rep.RateWindows).
		Int("days", days).
		Msg("retention purge finished")
	return rep, nil
}

func (s *RetentionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
