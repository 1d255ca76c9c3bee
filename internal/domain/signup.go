package domain

import (
	"time"
)

// Signup is one membership request tracked from submission to review.
//
// A Signup is treated as an immutable value: Approve and Reject return a new
// value and never modify the receiver. Pointer fields of the returned value
// are freshly allocated so two values never share mutable state.
//
// Fields:
//   - ID: UUID primary key.
//   - Email: normalized address; at most one pending row per email is
//     enforced by the submission flow, not by the schema.
//   - Token: approval token (lowercase UUID), unique.
//   - Status: pending, approved or rejected.
//   - ApprovedAt/ApprovedBy and RejectedAt/RejectedBy: set only by the
//     matching transition, never both.
//   - IPAddress/UserAgent: submission provenance.
//   - TokenUsedAt: set once the token is spent; never cleared.
//   - UpdatedAt: managed by GORM, used for conditional list responses.
type Signup struct {
	ID          string     `json:"id"                      gorm:"type:char(36);primaryKey"`
	Email       string     `json:"email"                   gorm:"type:varchar(254);not null;index:idx_signup_email"`
	Name        string     `json:"name"                    gorm:"type:varchar(255);not null"`
	Surname     *string    `json:"surname,omitempty"       gorm:"type:varchar(255)"`
	Token       string     `json:"-"                       gorm:"type:char(36);not null;uniqueIndex:ux_signup_token"`
	Status      Status     `json:"status"                  gorm:"type:varchar(16);not null;index:idx_signup_status,priority:1;check:status IN ('pending','approved','rejected')"`
	CreatedAt   time.Time  `json:"created_at"              gorm:"not null;index:idx_signup_status,priority:2;index:idx_signup_created"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *string    `json:"approved_by,omitempty"   gorm:"type:char(36)"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	RejectedBy  *string    `json:"rejected_by,omitempty"   gorm:"type:char(36)"`
	IPAddress   *string    `json:"ip_address,omitempty"    gorm:"type:varchar(64)"`
	UserAgent   *string    `json:"user_agent,omitempty"    gorm:"type:varchar(512)"`
	TokenUsedAt *time.Time `json:"token_used_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Signup.
func (Signup) TableName() string { return "signups" }

// NewSignupParams carries the already-normalized inputs of a submission.
type NewSignupParams struct {
	Email     string
	Name      string
	Surname   *string
	IPAddress *string
	UserAgent *string
}

// NewSignup builds a pending Signup created at now.
func NewSignup(id, token string, p NewSignupParams, now time.Time) Signup {
	return Signup{
		ID:        id,
		Email:     p.Email,
		Name:      p.Name,
		Surname:   cloneString(p.Surname),
		Token:     token,
		Status:    StatusPending,
		CreatedAt: now,
		IPAddress: cloneString(p.IPAddress),
		UserAgent: cloneString(p.UserAgent),
		UpdatedAt: now,
	}
}

// IsExpired reports whether the token is older than ttl at now. A token is
// still valid at exactly CreatedAt+ttl.
func (s Signup) IsExpired(ttl time.Duration, now time.Time) bool {
	return now.After(s.CreatedAt.Add(ttl))
}

// TokenUsed reports whether the approval token has been spent.
func (s Signup) TokenUsed() bool { return s.TokenUsedAt != nil }

// Approve returns the approved state of s. The token is left unspent: it stays
// valid for the later activation step.
func (s Signup) Approve(adminID string, at time.Time) (Signup, error) {
	if !CanTransition(s.Status, StatusApproved) {
		return Signup{}, ErrInvalidTransition
	}
	next := s.clone()
	next.Status = StatusApproved
	next.ApprovedAt = &at
	next.ApprovedBy = &adminID
	next.UpdatedAt = at
	return next, nil
}

// Reject returns the rejected state of s with the token spent at the same
// instant.
func (s Signup) Reject(adminID string, at time.Time) (Signup, error) {
	if !CanTransition(s.Status, StatusRejected) {
		return Signup{}, ErrInvalidTransition
	}
	next := s.clone()
	next.Status = StatusRejected
	next.RejectedAt = &at
	next.RejectedBy = &adminID
	if next.TokenUsedAt == nil {
		used := at
		next.TokenUsedAt = &used
	}
	next.UpdatedAt = at
	return next, nil
}

// DisplayName joins name and surname.
func (s Signup) DisplayName() string {
	if s.Surname == nil || *s.Surname == "" {
		return s.Name
	}
	return s.Name + " " + *s.Surname
}

func (s Signup) clone() Signup {
	c := s
	c.Surname = cloneString(s.Surname)
	c.ApprovedAt = cloneTime(s.ApprovedAt)
	c.ApprovedBy = cloneString(s.ApprovedBy)
	c.RejectedAt = cloneTime(s.RejectedAt)
	c.RejectedBy = cloneString(s.RejectedBy)
	c.IPAddress = cloneString(s.IPAddress)
	c.UserAgent = cloneString(s.UserAgent)
	c.TokenUsedAt = cloneTime(s.TokenUsedAt)
	return c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
