package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type accessLine struct {
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id"`
	Path      string            `json:"path"`
	Query     string            `json:"query"`
	Status    int               `json:"status"`
	AdminID   string            `json:"admin_id"`
	Headers   map[string]string `json:"headers"`
}

// lastAccessLine decodes the final http_request entry in buf.
func lastAccessLine(t *testing.T, raw string) accessLine {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		var l accessLine
		if err := json.Unmarshal([]byte(lines[i]), &l); err == nil && l.Message == "http_request" {
			return l
		}
	}
	t.Fatalf("no access line in:\n%s", raw)
	return accessLine{}
}

func TestRedactingLogger_ScrubsQueryAndHeaders(t *testing.T) {
	buf := captureLogger(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(seedHeaders(requestIDHeader, "rid-resp"))
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{" x-api-key ", ""}}))
	r.GET("/admin/signups/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet,
		"/admin/signups/123?email=a.b+tag@example.com&phone=+1-555-123-4567&token=123e4567-e89b-12d3-a456-426614174000", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Admin-Key", "admin-secret")
	req.Header.Set("X-Note", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set(requestIDHeader, "rid-req")
	r.ServeHTTP(httptest.NewRecorder(), req)

	l := lastAccessLine(t, buf.String())
	if l.Level != "info" || l.Status != http.StatusOK {
		t.Fatalf("level/status = %s/%d", l.Level, l.Status)
	}
	if l.Path != "/admin/signups/:id" {
		t.Fatalf("path = %q; want route pattern", l.Path)
	}
	if l.RequestID != "rid-resp" {
		t.Fatalf("request_id = %q; response header should win", l.RequestID)
	}
	for _, marker := range []string{"[REDACTED:email]", "[REDACTED:phone]", "[REDACTED:id]"} {
		if !strings.Contains(l.Query, marker) {
			t.Fatalf("query %q missing %s", l.Query, marker)
		}
	}
	for _, h := range []string{"Authorization", "Cookie", "X-Api-Key", "X-Admin-Key"} {
		if l.Headers[h] != "[REDACTED]" {
			t.Fatalf("%s = %q; want masked", h, l.Headers[h])
		}
	}
	if want := "email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"; l.Headers["X-Note"] != want {
		t.Fatalf("X-Note = %q; want %q", l.Headers["X-Note"], want)
	}
	if strings.Contains(buf.String(), "admin-secret") || strings.Contains(buf.String(), "topsecret") {
		t.Fatalf("secret leaked: %s", buf.String())
	}
}

func TestRedactingLogger_Levels(t *testing.T) {
	cases := []struct {
		name    string
		handler gin.HandlerFunc
		level   string
	}{
		{"ok", func(c *gin.Context) { c.Status(http.StatusCreated) }, "info"},
		{"client error", func(c *gin.Context) { c.Status(http.StatusConflict) }, "warn"},
		{"server error", func(c *gin.Context) { c.Status(http.StatusBadGateway) }, "error"},
		{"gin error", func(c *gin.Context) {
			_ = c.Error(errors.New("boom"))
			c.Status(http.StatusBadRequest)
		}, "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLogger(t)
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(RedactingLogger(RedactOptions{}))
			r.POST("/signups", tc.handler)

			req := httptest.NewRequest(http.MethodPost, "/signups", nil)
			req.Header.Set(requestIDHeader, "rid-"+tc.level)
			r.ServeHTTP(httptest.NewRecorder(), req)

			l := lastAccessLine(t, buf.String())
			if l.Level != tc.level {
				t.Fatalf("level = %q; want %q", l.Level, tc.level)
			}
			if l.RequestID != "rid-"+tc.level {
				t.Fatalf("request_id = %q; want request header fallback", l.RequestID)
			}
		})
	}
}

func TestRedactingLogger_AdminID(t *testing.T) {
	buf := captureLogger(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.POST("/approve", func(c *gin.Context) {
		c.Set(ctxKeyAdminID, "adm-1")
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/approve", nil))

	if l := lastAccessLine(t, buf.String()); l.AdminID != "adm-1" {
		t.Fatalf("admin_id = %q", l.AdminID)
	}
}

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"plain":                 "plain",
		"to=bob@example.org":    "to=[REDACTED:email]",
		"call 212 555 1212 now": "call [REDACTED:phone] now",
		"token=0f8fad5b-d9cb-469f-a165-70867728950e": "token=[REDACTED:id]",
	}
	for in, want := range cases {
		if got := Redact(in); got != want {
			t.Fatalf("Redact(%q) = %q; want %q", in, got, want)
		}
	}
}
