package api

import (
	"net"
	"net/http"
	"strings"

	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/logger"
)

// retryAfterSeconds is sent with 429 responses.
const retryAfterSeconds = "60"

// limitAuth rate limits sign-in attempts by client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func (s *Server) limitAuth(next http.Handler) http.Handler {
	if s.authLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r)

		if !s.authLimiter.Allow(key) {
			s.metrics.RecordRateLimited()
			logger.FromContext(r.Context()).Warn("Rate limit exceeded",
				"ip", key,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", retryAfterSeconds)
			s.fail(w, r, domainerrors.RateLimited("Too many attempts. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request.
// realIP has already replaced RemoteAddr when the request came through a trusted proxy.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
