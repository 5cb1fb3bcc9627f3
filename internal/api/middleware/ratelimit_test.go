package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stickerforge/sticker-api/internal/api/shared"
)

type stubLimiter struct {
	allow bool
	keys  []string
}

func (s *stubLimiter) Allow(clientID string) bool {
	s.keys = append(s.keys, clientID)
	return s.allow
}

func TestRateLimitMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows requests under the limit", func(t *testing.T) {
		limiter := &stubLimiter{allow: true}
		handler := RateLimitMiddleware(limiter)(okHandler)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, limiter.keys, 1)
		assert.Equal(t, "203.0.113.7", limiter.keys[0], "key must not include the ephemeral port")
	})

	t.Run("rejects requests over the limit", func(t *testing.T) {
		limiter := &stubLimiter{allow: false}
		handler := RateLimitMiddleware(limiter)(okHandler)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Too many requests", resp.Error)
	})

	t.Run("handles bare IP remote addresses", func(t *testing.T) {
		limiter := &stubLimiter{allow: true}
		handler := RateLimitMiddleware(limiter)(okHandler)

		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		req.RemoteAddr = "203.0.113.9"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Len(t, limiter.keys, 1)
		assert.Equal(t, "203.0.113.9", limiter.keys[0])
	})
}
