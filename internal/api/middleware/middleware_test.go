package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Mock RateLimiter ──

type mockLimiter struct {
	counts map[string]int
	err    error
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ═══════════════════════════════════════════════════════════
// RequestID
// ═══════════════════════════════════════════════════════════

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generated when missing", "", false},
		{"kept when valid", "abc-123", true},
		{"replaced when too long", strings.Repeat("a", 65), false},
		{"replaced when not printable", "bad id", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			r.ServeHTTP(w, req)

			rid := w.Header().Get("X-Request-ID")
			require.NotEmpty(t, rid)
			assert.Equal(t, rid, w.Body.String())
			if tt.keep {
				assert.Equal(t, tt.header, rid)
			} else {
				assert.NotEqual(t, tt.header, rid)
				assert.Len(t, rid, 36)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// RateLimit
// ═══════════════════════════════════════════════════════════

func TestRateLimit(t *testing.T) {
	limiter := &mockLimiter{counts: make(map[string]int)}
	r := gin.New()
	r.POST("/import", RateLimit(limiter, 2, time.Minute, zap.NewNop()), okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/import", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.POST("/import", RateLimit(nil, 1, time.Minute, zap.NewNop()), okHandler)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/import", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_LimiterErrorFailsOpen(t *testing.T) {
	limiter := &mockLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.POST("/import", RateLimit(limiter, 1, time.Minute, zap.NewNop()), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/import", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ═══════════════════════════════════════════════════════════
// BodyLimit
// ═══════════════════════════════════════════════════════════

func TestBodyLimit_DeclaredLength(t *testing.T) {
	r := gin.New()
	r.POST("/", BodyLimit(8), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBodyLimit_StreamedBody(t *testing.T) {
	var readErr error
	r := gin.New()
	r.POST("/", BodyLimit(8), func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/", strings.NewReader("0123456789"))
	req.ContentLength = -1
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Error(t, readErr)
	assert.True(t, IsBodyTooLarge(readErr))
	assert.False(t, IsBodyTooLarge(errors.New("other")))
}

// ═══════════════════════════════════════════════════════════
// CORS / SecurityHeaders
// ═══════════════════════════════════════════════════════════

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/", okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.OPTIONS("/", okHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://any.example")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
