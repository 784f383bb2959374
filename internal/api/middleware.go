package api

import (
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/logger"
)

// apiPrefix is the path prefix of the JSON API.
const apiPrefix = "/api/"

// realIP rewrites RemoteAddr from X-Forwarded-For or X-Real-IP, but only when the
// immediate peer is a trusted proxy. Headers from any other peer are ignored, so
// clients cannot pick their own rate limit bucket.
// X-Forwarded-For is read right to left and the first untrusted hop is the client.
func realIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	isTrusted := func(addr netip.Addr) bool {
		addr = addr.Unmap()
		for _, p := range trusted {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, err := netip.ParseAddr(getClientIP(r))
			if err != nil || !isTrusted(peer) {
				next.ServeHTTP(w, r)
				return
			}

			client := ""
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				hops := strings.Split(xff, ",")
				for i := len(hops) - 1; i >= 0; i-- {
					hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
					if err != nil {
						break
					}
					client = hop.Unmap().String()
					if !isTrusted(hop) {
						break
					}
				}
			} else if xrip, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
				client = xrip.Unmap().String()
			}

			if client != "" {
				r.RemoteAddr = net.JoinHostPort(client, "0")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger attaches a request-scoped logger carrying the chi request ID
// and logs one line per request once it completes.
func requestLogger(base *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := base.WithField("request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLogger)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLogger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// sessionGate resolves the session cookie on every request and stores the user in context.
// Requests without a usable session continue anonymously; stale cookies are cleared.
func (s *Server) sessionGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := s.readSessionCookie(w, r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, sess, err := s.auth.Resolve(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrUnauthorized) {
				s.clearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			s.fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), user, sess)))
	})
}

// apiCORS applies the CORS policy to the JSON API only. The public URL is the sole allowed origin.
func apiCORS(publicURL string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{publicURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return func(next http.Handler) http.Handler {
		withCORS := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAPIRequest(r) {
				withCORS.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, apiPrefix)
}
