package api

import (
	"net/http"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/logger"
)

const (
	// stateCookieName holds the OAuth state between /auth/google and its callback.
	stateCookieName = "listenup_oauth_state"
	stateCookiePath = "/auth/google"
	stateCookieTTL  = 10 * time.Minute
)

// setSessionCookie seals the session ID into the session cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, sess *domain.Session) error {
	value, err := s.sealer.Seal(sess.ID, sess.ExpiresAt)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearSessionCookie tells the browser to drop the session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// readSessionCookie returns the session ID sealed in the request's cookie.
// Cookies that fail to open are cleared.
func (s *Server) readSessionCookie(w http.ResponseWriter, r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.cfg.Auth.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	claims, err := s.sealer.Open(cookie.Value)
	if err != nil {
		logger.FromContext(r.Context()).Debug("Rejected session cookie", "error", err)
		s.clearSessionCookie(w)
		return "", false
	}
	return claims.Subject, true
}

// setStateCookie stores the OAuth state for the callback to compare.
// SameSite=Lax lets it ride along on the provider's top-level redirect back.
func (s *Server) setStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeStateCookie returns the stored OAuth state and clears it; states are single use.
func (s *Server) takeStateCookie(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return cookie.Value
}
