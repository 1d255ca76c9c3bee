// Package domain defines the core signup-approval model: the Signup aggregate,
// its closed Status enumeration with the single allowed-transition table, the
// approval token and admin identity value objects, and the persistence models
// for rate windows and idempotency records. These types are mapped with GORM
// and shared across the repository and service layers.
package domain

import (
	"errors"
	"strings"
)

// Status is the review state of a signup request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ErrInvalidStatus is returned by ParseStatus for unknown values.
var ErrInvalidStatus = errors.New("invalid status")

// ErrInvalidTransition is returned when a status change is not listed in the
// transition table (including same-state re-entry).
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions is the only place allowed moves are declared.
var transitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected},
}

// Statuses returns every known status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus trims and lowercases v and returns the matching Status.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
