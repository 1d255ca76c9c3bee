package domain

import (
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for approval tokens that are not UUIDs.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidAdmin is returned for admin identities that are not UUIDs.
	ErrInvalidAdmin = errors.New("invalid admin identity")
)

// NewToken returns a fresh approval token in canonical (lowercase) form.
// When r is nil the default crypto/rand source backing uuid is used.
func NewToken(r io.Reader) (string, error) {
	if r == nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ParseToken accepts a token in any letter case, with or without braces or
// the urn:uuid: prefix, and returns its lowercase canonical form.
func ParseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidToken
	}
	return id.String(), nil
}

// ParseAdminID validates the identity of the administrator acting on a
// request and returns it in canonical form.
func ParseAdminID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidAdmin
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return "", ErrInvalidAdmin
	}
	return id.String(), nil
}
