package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogger swaps the global logger for a JSON buffer for one test.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := log.Logger
	log.Logger = zerolog.New(buf)
	t.Cleanup(func() { log.Logger = prev })
	return buf
}

// loggedEngine is the production prefix of the chain: correlation, access
// log, recovery.
func loggedEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}), Recovery())
	return r
}

func TestRequestID(t *testing.T) {
	cases := []struct {
		name     string
		incoming string
		header   string
	}{
		{"generated", "", ""},
		{"canonical header", "Z-REQ-123", requestIDHeader},
		{"lowercase header", "abc-123", strings.ToLower(requestIDHeader)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(RequestID())
			var inCtx string
			r.GET("/", func(c *gin.Context) {
				inCtx = RequestIDFrom(c)
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" || got != inCtx {
				t.Fatalf("header %q, context %q", got, inCtx)
			}
			if tc.incoming != "" && got != tc.incoming {
				t.Fatalf("got %q; want %q", got, tc.incoming)
			}
		})
	}
}

func TestRequestIDFrom_Unset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := RequestIDFrom(c); got != "" {
		t.Fatalf("got %q; want empty", got)
	}
}

func TestRecovery_JSONBody(t *testing.T) {
	buf := captureLogger(t)
	r := loggedEngine()
	r.POST("/signups", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodPost, "/signups", nil)
	req.Header.Set(requestIDHeader, "rid-panic")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-panic" {
		t.Fatalf("body = %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), `"stack"`) {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestRecovery_AfterWrite(t *testing.T) {
	buf := captureLogger(t)
	r := loggedEngine()
	r.GET("/stream", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))

	if strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("error body written after response started: %q", w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestLoggerFrom(t *testing.T) {
	t.Run("global fallback", func(t *testing.T) {
		buf := captureLogger(t)
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(RequestID())
		r.GET("/", func(c *gin.Context) {
			LoggerFrom(c).Info().Msg("bare")
			c.Status(http.StatusOK)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		out := buf.String()
		if !strings.Contains(out, `"message":"bare"`) || strings.Contains(out, `"request_id"`) {
			t.Fatalf("unexpected log: %s", out)
		}
	})

	t.Run("request scoped", func(t *testing.T) {
		buf := captureLogger(t)
		r := loggedEngine()
		r.GET("/", func(c *gin.Context) {
			LoggerFrom(c).Info().Msg("scoped")
			zerolog.Ctx(c.Request.Context()).Info().Msg("from service")
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "rid-ctx")
		r.ServeHTTP(httptest.NewRecorder(), req)

		var seen int
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if strings.Contains(line, "scoped") || strings.Contains(line, "from service") {
				seen++
				if !strings.Contains(line, `"request_id":"rid-ctx"`) {
					t.Fatalf("missing request id: %s", line)
				}
			}
		}
		if seen != 2 {
			t.Fatalf("expected 2 scoped lines, got %d:\n%s", seen, buf.String())
		}
	})
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"abcdefgh", 5, "abcde…"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q; want %q", tc.in, tc.max, got, tc.want)
		}
	}
	if asString(42) != "" || asString("x") != "x" {
		t.Fatalf("asString")
	}
}
