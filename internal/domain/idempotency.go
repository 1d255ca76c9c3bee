package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (scope, subject, key). It enables safe retries of POST operations
// by returning the originally produced resource id without re-executing side
// effects.
//
// Scope names the operation (e.g. "signup"), Subject is the caller identity
// the key belongs to (client IP or admin id).
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_subject_key,priority:1"`
	Subject    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_subject_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_subject_key,priority:3"`
	ResourceID string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
