package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// SignupStats reports how many signups sit in status and the most recent
// UpdatedAt among them. Together they change on every submission into, and
// every review out of, the status, which makes them a cheap list fingerprint.
// An empty status yields (0, nil, nil).
func SignupStats(ctx context.Context, db *gorm.DB, status domain.Status) (int64, *time.Time, error) {
	inStatus := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Signup{}).Where("status = ?", status)
	}

	// MAX(updated_at) comes back as TEXT from SQLite; order and take one row.
	var latest struct{ UpdatedAt time.Time }
	res := inStatus().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&latest)
	if res.Error != nil {
		return 0, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, nil, nil
	}

	var n int64
	if err := inStatus().Count(&n).Error; err != nil {
		return 0, nil, err
	}
	return n, &latest.UpdatedAt, nil
}
