package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		configured string
		sent       string
		adminID    string
		wantStatus int
		wantAdmin  string
	}{
		{"valid key with admin id", "s3cret", "s3cret", " 6a2f0d8e-3c41-4b8e-9d0a-2b1f3c4d5e6f ", http.StatusOK, "6a2f0d8e-3c41-4b8e-9d0a-2b1f3c4d5e6f"},
		{"valid key without admin id", "s3cret", "s3cret", "", http.StatusOK, ""},
		{"wrong key", "s3cret", "guess", "a", http.StatusUnauthorized, ""},
		{"missing key", "s3cret", "", "a", http.StatusUnauthorized, ""},
		{"admin surface disabled", "", "", "a", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			var seen string
			r.GET("/admin", AdminAuth(tc.configured), func(c *gin.Context) {
				seen = AdminIDFrom(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.sent != "" {
				req.Header.Set(HeaderAdminKey, tc.sent)
			}
			if tc.adminID != "" {
				req.Header.Set(HeaderAdminID, tc.adminID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tc.wantStatus)
			}
			if seen != tc.wantAdmin {
				t.Fatalf("admin id = %q; want %q", seen, tc.wantAdmin)
			}
		})
	}
}
