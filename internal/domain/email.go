package domain

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrInvalidEmail is returned when an address fails the shape check.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrInvalidName is returned when a name is shorter than MinNameLength.
	ErrInvalidName = errors.New("invalid name")
)

// MinNameLength is the minimum number of characters of a trimmed first name.
const MinNameLength = 2

// maxEmailLength follows the RFC 5321 path limit.
const maxEmailLength = 254

var validate = validator.New()

// NormalizeEmail trims and lowercases raw and checks it looks like an address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > maxEmailLength {
		return "", ErrInvalidEmail
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// NormalizeName trims and NFC-normalizes a first name and enforces the
// minimum length, counted in characters rather than bytes.
func NormalizeName(raw string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(raw))
	if utf8.RuneCountInString(name) < MinNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// NormalizeOptional trims an optional field; blank values become nil.
func NormalizeOptional(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := norm.NFC.String(strings.TrimSpace(*raw))
	if v == "" {
		return nil
	}
	return &v
}
