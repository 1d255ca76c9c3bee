// Signup HTTP handler.
//
// This file exposes the public submission endpoint:
//   - POST /signups   (submit a membership request)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// submission from the same client exists for that key, the handler answers
// with the recorded id and sets `Idempotency-Replayed: true` without running
// the submission flow again.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-signup-gate/internal/http/middleware"
	"github.com/tbourn/go-signup-gate/internal/services"
)

//
// DTOs
//

// SubmitSignupRequest is the JSON payload for a membership request.
//
// Email and name are normalized and validated by the service; binding only
// rejects bodies that are not JSON objects.
type SubmitSignupRequest struct {
	Email   string  `json:"email" example:"alice@example.com"`
	Name    string  `json:"name" example:"Alice"`
	Surname *string `json:"surname,omitempty" example:"Liddell"`
}

// SubmitSignupResponse identifies the created request.
type SubmitSignupResponse struct {
	ID string `json:"id" example:"3f2c9a1e-7b64-4d0e-9a55-0d1c2b3a4f5e"`
}

// SubmitSignup godoc
// @ID          submitSignup
// @Summary     Submit a membership request
// @Description Creates a pending request and notifies the administrators. At most one pending request per email; submissions are rate limited per IP (hourly) and per email (daily).
// @Tags        Signups
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Client retry key"  example(7d0c1f2a-signup)
// @Param       body             body    handlers.SubmitSignupRequest  true  "Signup payload"
//
// @Success     201  {object}  handlers.SubmitSignupResponse
// @Header      201  {string}  Idempotency-Replayed  "true when served from a previous submission"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid email or name"
// @Failure     409  {object}  handlers.ErrorResponse  "Pending request or account already exists"
// @Failure     429  {object}  handlers.ErrorResponse  "Submission quota exceeded"
// @Header      429  {integer} Retry-After  "Seconds until the quota window resets"
// @Failure     502  {object}  handlers.ErrorResponse  "Identity provider unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /signups [post]
func (h *Handlers) SubmitSignup(c *gin.Context) {
	if middleware.IsReplay(c) {
		if id := middleware.ReplayedResource(c); id != "" {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusCreated, SubmitSignupResponse{ID: id})
			return
		}
	}

	var req SubmitSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	res, err := h.submit.Submit(ctx, services.SubmitInput{
		Email:     req.Email,
		Name:      req.Name,
		Surname:   req.Surname,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		failWith(c, err)
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.idem != nil {
		if err := h.idem.Remember(ctx, ScopeSubmit, middleware.IdempotencySubject(c), key, res.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusCreated, SubmitSignupResponse{ID: res.ID})
}
