package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(limit int64) *gin.Engine {
		router := gin.New()
		router.Use(RequestID(), BodyLimit(limit))
		router.POST("/documents", func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusRequestEntityTooLarge, "read limit")
				return
			}
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	tests := []struct {
		name          string
		body          string
		contentLength int64
		wantStatus    int
		wantCode      string
	}{
		{"within limit", `{"kind":"QUOTE"}`, 16, http.StatusOK, ""},
		{"declared length too large", strings.Repeat("x", 200), 200, http.StatusRequestEntityTooLarge, "ERR_REQUEST_TOO_LARGE"},
		{"undeclared length cut while reading", strings.Repeat("x", 200), -1, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			newRouter(100).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), tt.wantCode)
			}
		})
	}
}
