// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings. Clients branch on them;
// the message next to them is for humans. Generic codes mirror the HTTP
// status, specific ones name the signup rule that rejected the request.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "duplicate_request",
//	  "message": "a pending request already exists for this email"
//	}
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-signup-gate/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeExpired          = "expired"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUpstream         = "upstream_error"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Signup-specific:
	ErrCodeInvalidEmail     = "invalid_email"
	ErrCodeInvalidName      = "invalid_name"
	ErrCodeInvalidToken     = "invalid_token"
	ErrCodeInvalidAdmin     = "invalid_admin"
	ErrCodeInvalidStatus    = "invalid_status"
	ErrCodeDuplicateRequest = "duplicate_request"
	ErrCodeAccountExists    = "account_exists"
	ErrCodeAlreadyProcessed = "already_processed"
	ErrCodeAlreadyUsed      = "token_already_used"
	ErrCodeTokenExpired     = "token_expired"
)

// errorMapping pairs a service error with its HTTP rendering. Specific errors
// come before their categories so the first match is the most precise.
type errorMapping struct {
	target error
	status int
	code   string
	msg    string
}

var errorTable = []errorMapping{
	{services.ErrInvalidEmail, http.StatusBadRequest, ErrCodeInvalidEmail, "a valid email address is required"},
	{services.ErrInvalidName, http.StatusBadRequest, ErrCodeInvalidName, "name is required"},
	{services.ErrInvalidToken, http.StatusBadRequest, ErrCodeInvalidToken, "token must be a UUID"},
	{services.ErrInvalidAdmin, http.StatusBadRequest, ErrCodeInvalidAdmin, "X-Admin-ID must be a UUID"},
	{services.ErrInvalidStatus, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be pending, approved or rejected"},
	{services.ErrValidation, http.StatusBadRequest, ErrCodeBadRequest, "invalid request"},

	{services.ErrSignupNotFound, http.StatusNotFound, ErrCodeNotFound, "signup request not found"},
	{services.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "not found"},

	{services.ErrDuplicateRequest, http.StatusConflict, ErrCodeDuplicateRequest, "a pending request already exists for this email"},
	{services.ErrAccountExists, http.StatusConflict, ErrCodeAccountExists, "an account already exists for this email"},
	{services.ErrAlreadyProcessed, http.StatusConflict, ErrCodeAlreadyProcessed, "request already processed"},
	{services.ErrAlreadyUsed, http.StatusConflict, ErrCodeAlreadyUsed, "token already used"},
	{services.ErrConflict, http.StatusConflict, ErrCodeConflict, "conflict"},

	{services.ErrTokenExpired, http.StatusGone, ErrCodeTokenExpired, "token expired"},
	{services.ErrExpired, http.StatusGone, ErrCodeExpired, "expired"},

	{services.ErrUpstream, http.StatusBadGateway, ErrCodeUpstream, "identity provider unavailable"},
	{services.ErrPersistence, http.StatusInternalServerError, ErrCodeInternal, "could not complete the request"},
}

// failWith translates a service error into an ErrorResponse. Rate limits get
// 429 with Retry-After in whole seconds; anything unknown is a 500.
func failWith(c *gin.Context, err error) {
	var rl *services.RateLimitedError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, rl.Message)
		return
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				_ = c.Error(err)
			}
			fail(c, m.status, m.code, m.msg)
			return
		}
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}
