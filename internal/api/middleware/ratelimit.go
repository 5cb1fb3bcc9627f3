package middleware

import (
	"errors"
	"net"
	"net/http"

	"github.com/stickerforge/sticker-api/internal/api/shared"
)

// ErrRateLimited marks requests rejected by the rate limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

// ClientLimiter decides whether a client identity may make another
// request right now. Satisfied by ratelimit.Limiter.
type ClientLimiter interface {
	Allow(clientID string) bool
}

// RateLimitMiddleware gates requests through the given limiter, keyed by
// the client IP. Apply after RealIP so the key reflects the original
// caller rather than a proxy. Rejected requests get 429 with a generic
// message and never reach the handler.
func RateLimitMiddleware(limiter ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many requests", ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client identity from the request's remote
// address, dropping the ephemeral port so one client maps to one key.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP may have rewritten RemoteAddr to a bare IP.
		return r.RemoteAddr
	}
	return host
}
