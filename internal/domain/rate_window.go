package domain

import (
	"errors"
	"time"
)

// RateScope names the dimension a rate window counts.
type RateScope string

const (
	RateScopeIP    RateScope = "ip"
	RateScopeEmail RateScope = "email"
)

// ErrInvalidScope is returned for unknown rate scopes.
var ErrInvalidScope = errors.New("invalid rate scope")

// Window returns the fixed bucket length of the scope: one hour for IP
// addresses, one day for emails.
func (s RateScope) Window() (time.Duration, error) {
	switch s {
	case RateScopeIP:
		return time.Hour, nil
	case RateScopeEmail:
		return 24 * time.Hour, nil
	}
	return 0, ErrInvalidScope
}

// WindowStart truncates ts (in UTC) to the start of its bucket.
func (s RateScope) WindowStart(ts time.Time) (time.Time, error) {
	d, err := s.Window()
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC().Truncate(d), nil
}

// RateWindow counts accepted submissions for one identifier in one fixed
// bucket. The composite primary key (scope, identifier, window_start) makes
// recording an upsert.
type RateWindow struct {
	Scope        RateScope `gorm:"type:varchar(8);primaryKey"`
	Identifier   string    `gorm:"type:varchar(254);primaryKey"`
	WindowStart  time.Time `gorm:"primaryKey;index:idx_rate_window_start"`
	RequestCount int64     `gorm:"not null;default:0"`
}

// TableName returns the database table name for RateWindow.
func (RateWindow) TableName() string { return "rate_windows" }
