// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file stores fixed rate windows: one row per
// (scope, identifier, window_start) holding the number of accepted
// submissions in that bucket.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// SumRequests adds up the counters of every window of (scope, identifier)
// whose start is at or after since.
func SumRequests(ctx context.Context, db *gorm.DB, scope domain.RateScope, identifier string, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.RateWindow{}).
		Select("COALESCE(SUM(request_count), 0)").
		Where("scope = ? AND identifier = ? AND window_start >= ?", scope, identifier, since.UTC()).
		Scan(&total).Error
	return total, err
}

// RecordRequest increments the window containing ts, creating it on first
// use.
func RecordRequest(ctx context.Context, db *gorm.DB, scope domain.RateScope, identifier string, ts time.Time) error {
	start, err := scope.WindowStart(ts)
	if err != nil {
		return err
	}
	w := &domain.RateWindow{
		Scope:        scope,
		Identifier:   identifier,
		WindowStart:  start,
		RequestCount: 1,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}, {Name: "identifier"}, {Name: "window_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"request_count": gorm.Expr("rate_windows.request_count + 1"),
		}),
	}).Create(w).Error
}

// DeleteRateWindowsBefore removes windows that started before cutoff.
func DeleteRateWindowsBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("window_start < ?", cutoff.UTC()).
		Delete(&domain.RateWindow{})
	return res.RowsAffected, res.Error
}

// RateStore adapts the functions above to the services.RateStore port.
type RateStore struct {
	DB *gorm.DB
}

// SumRequests proxies SumRequests.
func (s *RateStore) SumRequests(ctx context.Context, scope domain.RateScope, identifier string, since time.Time) (int64, error) {
	return SumRequests(ctx, s.DB, scope, identifier, since)
}

// RecordRequest proxies RecordRequest.
func (s *RateStore) RecordRequest(ctx context.Context, scope domain.RateScope, identifier string, ts time.Time) error {
	return RecordRequest(ctx, s.DB, scope, identifier, ts)
}

// PurgeBefore proxies DeleteRateWindowsBefore for the retention job.
func (s *RateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return DeleteRateWindowsBefore(ctx, s.DB, cutoff)
}
