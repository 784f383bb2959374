package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/id"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/service"
)

// clientInfo describes the client a new session is created for.
func clientInfo(r *http.Request) service.ClientInfo {
	ua := r.UserAgent()
	if len(ua) > maxUserAgentLength {
		ua = ua[:maxUserAgentLength]
	}
	return service.ClientInfo{
		IPAddress: getClientIP(r),
		UserAgent: ua,
	}
}

func credentials(r *http.Request) service.Credentials {
	return service.Credentials{
		Username: r.PostFormValue(fieldUsername),
		Password: r.PostFormValue(fieldPassword),
	}
}

// redirectSignedIn sends users who already have a session to their dashboard.
func redirectSignedIn(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/user", http.StatusFound)
		return true
	}
	return false
}

// handleLoginPage serves the sign-in form.
// GET /login
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if redirectSignedIn(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, pageLogin, s.newPage(r, "Sign in"))
}

// handleLogin verifies credentials and, only then, starts a session.
// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds := credentials(r)

	result, err := s.auth.Login(r.Context(), creds, clientInfo(r))
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidCredentials) {
			s.renderAuthForm(w, r, pageLogin, "Sign in", http.StatusUnauthorized, creds.Username, err)
			return
		}
		s.fail(w, r, err)
		return
	}

	s.startSession(w, r, result)
}

// handleRegisterPage serves the registration form.
// GET /register
func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if redirectSignedIn(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, pageRegister, s.newPage(r, "Create an account"))
}

// handleRegister creates a local account and signs it in.
// POST /register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds := credentials(r)

	result, err := s.auth.Register(r.Context(), creds, clientInfo(r))
	switch {
	case err == nil:
		s.startSession(w, r, result)
	case errors.Is(err, domainerrors.ErrDuplicateUsername):
		s.renderAuthForm(w, r, pageRegister, "Create an account", http.StatusConflict, creds.Username, err)
	case errors.Is(err, domainerrors.ErrValidation):
		s.renderAuthForm(w, r, pageRegister, "Create an account", http.StatusUnprocessableEntity, creds.Username, err)
	default:
		s.fail(w, r, err)
	}
}

// renderAuthForm re-renders a sign-in or registration form with the error's message.
func (s *Server) renderAuthForm(w http.ResponseWriter, r *http.Request, page, title string, status int, username string, err error) {
	data := s.newPage(r, title)
	data.FormUsername = username

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		data.Error = domainErr.Message
	}
	s.render(w, r, status, page, data)
}

// startSession replaces any current session with the new one and goes to the dashboard.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, result *service.AuthResult) {
	if prev, ok := currentSession(r.Context()); ok && prev.ID != result.Session.ID {
		if err := s.auth.Logout(r.Context(), prev.ID); err != nil {
			logger.FromContext(r.Context()).Warn("Failed to end previous session", "error", err)
		}
	}

	if err := s.setSessionCookie(w, result.Session); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/user", http.StatusSeeOther)
}

// handleLogout deletes the server-side session, so even a replayed cookie stops working.
// GET /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := currentSession(r.Context()); ok {
		if err := s.auth.Logout(r.Context(), sess.ID); err != nil {
			logger.FromContext(r.Context()).Error("Failed to delete session", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleGoogleStart sends the browser to Google's consent page.
// GET /auth/google
func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.renderStatus(w, r, http.StatusNotFound, "Google sign-in is not configured.")
		return
	}

	state, err := id.State()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.setStateCookie(w, state)
	http.Redirect(w, r, s.google.AuthCodeURL(state), http.StatusFound)
}

// handleGoogleCallback completes Google sign-in. Every failure goes back to the login page.
// GET /auth/google/user
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		s.renderStatus(w, r, http.StatusNotFound, "Google sign-in is not configured.")
		return
	}

	log := logger.FromContext(r.Context())
	failed := func(reason string, err error) {
		log.Warn("Google sign-in failed", "reason", reason, "error", err)
		http.Redirect(w, r, "/login", http.StatusFound)
	}

	query := r.URL.Query()
	expected := s.takeStateCookie(w, r)
	if providerErr := query.Get("error"); providerErr != "" {
		failed("provider error", errors.New(providerErr))
		return
	}
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(query.Get("state"))) != 1 {
		failed("state mismatch", nil)
		return
	}
	code := query.Get("code")
	if code == "" {
		failed("missing code", nil)
		return
	}

	identity, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		failed("exchange", err)
		return
	}

	result, err := s.auth.FederatedLogin(r.Context(), identity, clientInfo(r))
	if err != nil {
		failed("sign in", err)
		return
	}

	if prev, ok := currentSession(r.Context()); ok {
		_ = s.auth.Logout(r.Context(), prev.ID) //nolint:errcheck // Best effort: the new session replaces it
	}
	if err := s.setSessionCookie(w, result.Session); err != nil {
		failed("seal cookie", err)
		return
	}
	http.Redirect(w, r, "/user", http.StatusFound)
}
