// Admin HTTP handlers.
//
// This file exposes the review and listing endpoints, all behind AdminAuth:
//   - POST /admin/signups/approve   (approve by token)
//   - POST /admin/signups/reject    (reject by token)
//   - GET  /admin/signups           (list by status, paginated, ETag support)
//   - GET  /admin/signups/count     (count by status)
//   - GET  /admin/signups/{id}      (single request)
//
// The reviewing admin is taken from X-Admin-ID; the review flows validate it.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-signup-gate/internal/domain"
	"github.com/tbourn/go-signup-gate/internal/http/middleware"
	"github.com/tbourn/go-signup-gate/internal/services"
	"github.com/tbourn/go-signup-gate/internal/utils"
)

//
// DTOs
//

// ReviewRequest carries the approval token of the request being decided.
type ReviewRequest struct {
	Token string `json:"token" binding:"required" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
}

// ApproveResponse reports a successful approval and the activation link the
// user was sent.
type ApproveResponse struct {
	Message        string `json:"message" example:"signup request approved"`
	ActivationLink string `json:"activation_link" example:"https://auth.example.com/activate?oobCode=abc"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
}

// ListSignupsResponse wraps a page of requests and pagination information.
type ListSignupsResponse struct {
	Status     domain.Status   `json:"status"`
	Signups    []domain.Signup `json:"signups"`
	Pagination Pagination      `json:"pagination"`
}

// CountSignupsResponse reports how many requests are in a status.
type CountSignupsResponse struct {
	Status domain.Status `json:"status"`
	Count  int64         `json:"count"`
}

//
// Helpers
//

// statusParam reads ?status=, defaulting to pending.
func statusParam(c *gin.Context) (domain.Status, error) {
	raw := c.Query("status")
	if strings.TrimSpace(raw) == "" {
		return domain.StatusPending, nil
	}
	st, err := domain.ParseStatus(raw)
	if err != nil {
		return "", services.ErrInvalidStatus
	}
	return st, nil
}

// pageParams reads ?limit= and ?offset= and applies the service bounds.
func pageParams(c *gin.Context) (limit, offset int) {
	p := utils.ParsePage(c.Query("limit"), c.Query("offset"), services.DefaultPageLimit)
	return services.ClampPage(p.Limit, p.Offset)
}

//
// Handlers
//

// ApproveSignup godoc
// @ID          approveSignup
// @Summary     Approve a pending request
// @Description Approves the request behind the token, issues an activation link and emails it to the user.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    AdminKey
//
// @Param       X-Admin-ID  header  string  true  "Reviewing admin (UUID)"  format(uuid)
// @Param       body        body    handlers.ReviewRequest  true  "Approval token"
//
// @Success     200  {object}  handlers.ApproveResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed token or admin id"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or wrong admin key"
// @Failure     404  {object}  handlers.ErrorResponse  "No request for token"
// @Failure     409  {object}  handlers.ErrorResponse  "Already processed or token used"
// @Failure     410  {object}  handlers.ErrorResponse  "Token expired"
// @Failure     502  {object}  handlers.ErrorResponse  "Activation link issuance failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/signups/approve [post]
func (h *Handlers) ApproveSignup(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token required")
		return
	}
	res, err := h.review.Approve(c.Request.Context(), req.Token, middleware.AdminIDFrom(c))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, ApproveResponse{
		Message:        "signup request approved",
		ActivationLink: res.ActivationLink,
	})
}

// RejectSignup godoc
// @ID          rejectSignup
// @Summary     Reject a pending request
// @Description Rejects the request behind the token and sends the user a generic rejection email.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    AdminKey
//
// @Param       X-Admin-ID  header  string  true  "Reviewing admin (UUID)"  format(uuid)
// @Param       body        body    handlers.ReviewRequest  true  "Approval token"
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed token or admin id"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or wrong admin key"
// @Failure     404  {object}  handlers.ErrorResponse  "No request for token"
// @Failure     409  {object}  handlers.ErrorResponse  "Already processed or token used"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/signups/reject [post]
func (h *Handlers) RejectSignup(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token required")
		return
	}
	if err := h.review.Reject(c.Request.Context(), req.Token, middleware.AdminIDFrom(c)); err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "signup request rejected"})
}

// ListSignups godoc
// @ID          listSignups
// @Summary     List requests by status (paginated)
// @Description Returns a page of requests in a status, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Admin
// @Produce     json
// @Security    AdminKey
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"signups:pending:3:1700000000:20:0\")
// @Param       status         query   string  false "pending, approved or rejected"  default(pending)
// @Param       limit          query   int     false "Page size"  minimum(1) maximum(100) default(20)
// @Param       offset         query   int     false "Rows to skip"  minimum(0) default(0)
//
// @Success     200  {object} handlers.ListSignupsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid status"
// @Failure     401  {object} handlers.ErrorResponse "Missing or wrong admin key"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/signups [get]
func (h *Handlers) ListSignups(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := statusParam(c)
	if err != nil {
		failWith(c, err)
		return
	}
	limit, offset := pageParams(c)

	// ETag pre-check (best effort).
	if h.stats != nil {
		if count, maxTS, err := h.stats(ctx, st); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"signups:%s:%d:%d:%d:%d"`, st, count, ts, limit, offset)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.query.ListByStatus(ctx, string(st), limit, offset)
	if err != nil {
		failWith(c, err)
		return
	}
	total, err := h.query.CountByStatus(ctx, string(st))
	if err != nil {
		failWith(c, err)
		return
	}
	if items == nil {
		items = []domain.Signup{}
	}

	ok(c, http.StatusOK, ListSignupsResponse{
		Status:  st,
		Signups: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasNext: int64(offset+len(items)) < total,
		},
	})
}

// CountSignups godoc
// @ID          countSignups
// @Summary     Count requests by status
// @Tags        Admin
// @Produce     json
// @Security    AdminKey
//
// @Param       status  query  string  false "pending, approved or rejected"  default(pending)
//
// @Success     200  {object} handlers.CountSignupsResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid status"
// @Failure     401  {object} handlers.ErrorResponse "Missing or wrong admin key"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/signups/count [get]
func (h *Handlers) CountSignups(c *gin.Context) {
	st, err := statusParam(c)
	if err != nil {
		failWith(c, err)
		return
	}
	n, err := h.query.CountByStatus(c.Request.Context(), string(st))
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, CountSignupsResponse{Status: st, Count: n})
}

// GetSignup godoc
// @ID          getSignup
// @Summary     Get one request
// @Tags        Admin
// @Produce     json
// @Security    AdminKey
//
// @Param       id  path  string  true  "Signup ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Signup
// @Failure     400  {object} handlers.ErrorResponse "Malformed id"
// @Failure     401  {object} handlers.ErrorResponse "Missing or wrong admin key"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/signups/{id} [get]
func (h *Handlers) GetSignup(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "signup id must be a UUID")
		return
	}
	rec, err := h.query.Get(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}
