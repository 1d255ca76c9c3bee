// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Signup
// model and SignupStore, the adapter the services layer consumes.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business rules, only persistence
// and query composition. Uniqueness of pending requests per email is a
// service-level rule and is deliberately not a schema constraint.
//
// Error semantics:
//   - When a signup is not found, functions return gorm.ErrRecordNotFound
//     (exported here as ErrNotFound).
//   - Token collisions on insert are reported as ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-signup-gate/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateSignup inserts s as a new row.
func CreateSignup(ctx context.Context, db *gorm.DB, s *domain.Signup) error {
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateSignup writes the review fields of s to the row with the same id.
// It returns ErrNotFound when no row matched.
func UpdateSignup(ctx context.Context, db *gorm.DB, s *domain.Signup) error {
	res := db.WithContext(ctx).
		Model(&domain.Signup{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"status":        s.Status,
			"approved_at":   s.ApprovedAt,
			"approved_by":   s.ApprovedBy,
			"rejected_at":   s.RejectedAt,
			"rejected_by":   s.RejectedBy,
			"token_used_at": s.TokenUsedAt,
			"updated_at":    s.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSignup fetches a signup by primary key.
func GetSignup(ctx context.Context, db *gorm.DB, id string) (*domain.Signup, error) {
	var s domain.Signup
	if err := db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSignupByEmail returns the most recent signup for a normalized email.
func GetSignupByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Signup, error) {
	var s domain.Signup
	err := db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at desc").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSignupByToken fetches a signup by its canonical (lowercase) token.
func GetSignupByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Signup, error) {
	var s domain.Signup
	if err := db.WithContext(ctx).First(&s, "token = ?", strings.ToLower(token)).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSignupsByStatus returns a page of signups in status, newest first.
func ListSignupsByStatus(ctx context.Context, db *gorm.DB, status domain.Status, offset, limit int) ([]domain.Signup, error) {
	out := []domain.Signup{}
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountSignupsByStatus returns the number of signups in status.
func CountSignupsByStatus(ctx context.Context, db *gorm.DB, status domain.Status) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Signup{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

// DeleteSignupsCreatedBefore hard-deletes every signup created before cutoff,
// whatever its status, and returns the number of rows removed.
func DeleteSignupsCreatedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.Signup{})
	return res.RowsAffected, res.Error
}

// SignupStore adapts the repository functions to the services.SignupStore
// port. Lookups that find nothing return (nil, nil).
type SignupStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewSignupStore returns a SignupStore using the wall clock in UTC.
func NewSignupStore(db *gorm.DB) *SignupStore {
	return &SignupStore{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

// Save inserts a new signup.
func (s *SignupStore) Save(ctx context.Context, rec domain.Signup) error {
	return CreateSignup(ctx, s.DB, &rec)
}

// Update persists the review state of rec.
func (s *SignupStore) Update(ctx context.Context, rec domain.Signup) error {
	return UpdateSignup(ctx, s.DB, &rec)
}

// FindByID proxies GetSignup.
func (s *SignupStore) FindByID(ctx context.Context, id string) (*domain.Signup, error) {
	return optional(GetSignup(ctx, s.DB, id))
}

// FindByEmail proxies GetSignupByEmail.
func (s *SignupStore) FindByEmail(ctx context.Context, email string) (*domain.Signup, error) {
	return optional(GetSignupByEmail(ctx, s.DB, email))
}

// FindByToken proxies GetSignupByToken.
func (s *SignupStore) FindByToken(ctx context.Context, token string) (*domain.Signup, error) {
	return optional(GetSignupByToken(ctx, s.DB, token))
}

// FindByStatus proxies ListSignupsByStatus.
func (s *SignupStore) FindByStatus(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Signup, error) {
	return ListSignupsByStatus(ctx, s.DB, status, offset, limit)
}

// CountByStatus proxies CountSignupsByStatus.
func (s *SignupStore) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	return CountSignupsByStatus(ctx, s.DB, status)
}

// DeleteOlderThan removes signups created more than days days ago.
func (s *SignupStore) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	return DeleteSignupsCreatedBefore(ctx, s.DB, cutoff)
}

// Stats proxies SignupStats for conditional list responses.
func (s *SignupStore) Stats(ctx context.Context, status domain.Status) (int64, *time.Time, error) {
	return SignupStats(ctx, s.DB, status)
}

func (s *SignupStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func optional(rec *domain.Signup, err error) (*domain.Signup, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}
