package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/listenup-lists/internal/auth"
	"github.com/listenupapp/listenup-lists/internal/domain"
	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/id"
	"github.com/listenupapp/listenup-lists/internal/metrics"
	"github.com/listenupapp/listenup-lists/internal/normalize"
	"github.com/listenupapp/listenup-lists/internal/oauth"
	"github.com/listenupapp/listenup-lists/internal/session"
	"github.com/listenupapp/listenup-lists/internal/store"
	"github.com/listenupapp/listenup-lists/internal/validation"
)

const (
	// touchInterval bounds how often Resolve writes LastSeenAt for a session.
	touchInterval = time.Minute

	// maxUsernameBase keeps derived federated usernames under the 64 character limit.
	maxUsernameBase = 40

	invalidCredentialsMsg = "invalid username or password"
)

// Credentials is a local username and password, as submitted by the register and login forms.
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" form:"password" validate:"required,min=1,max=1024"`
}

// ClientInfo describes the client a session is created for.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthResult is a signed-in user and the session created for them.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
}

// AuthService handles registration, login and session resolution.
type AuthService struct {
	users           store.Users
	sessions        session.Store
	validator       *validation.Validator
	metrics         *metrics.Metrics
	logger          *slog.Logger
	sessionDuration time.Duration
	now             func() time.Time
}

// NewAuthService creates a new authentication service.
// m may be nil.
func NewAuthService(
	users store.Users,
	sessions session.Store,
	sessionDuration time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		users:           users,
		sessions:        sessions,
		validator:       validation.New(),
		metrics:         m,
		logger:          logger,
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

// SessionDuration is the lifetime of new sessions.
func (s *AuthService) SessionDuration() time.Duration {
	return s.sessionDuration
}

// Register creates a local account and signs it in.
// A username already taken (ignoring case) yields a DUPLICATE_USERNAME error.
func (s *AuthService) Register(ctx context.Context, creds Credentials, client ClientInfo) (*AuthResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := s.validator.Validate(creds); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Username:     creds.Username,
		PasswordHash: passwordHash,
		LastLoginAt:  s.now(),
	}
	user.InitTimestamps()

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.DuplicateUsername("that username is already taken").WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.RecordRegistration()
	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)

	sess, err := s.createSession(ctx, user, domain.AuthMethodLocal, client)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Session: sess}, nil
}

// Login verifies local credentials and, only when they match, creates a session.
// Unknown usernames and wrong passwords produce the same INVALID_CREDENTIALS error.
func (s *AuthService) Login(ctx context.Context, creds Credentials, client ClientInfo) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same time as a real verification.
			auth.VerifyDummy(creds.Password)
			s.metrics.RecordLogin(string(domain.AuthMethodLocal), metrics.ResultFailure)
			return nil, domainerrors.InvalidCredentials(invalidCredentialsMsg)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() {
		auth.VerifyDummy(creds.Password)
		s.metrics.RecordLogin(string(domain.AuthMethodLocal), metrics.ResultFailure)
		return nil, domainerrors.InvalidCredentials(invalidCredentialsMsg)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		s.metrics.RecordLogin(string(domain.AuthMethodLocal), metrics.ResultFailure)
		return nil, domainerrors.InvalidCredentials(invalidCredentialsMsg)
	}

	s.recordLogin(ctx, user)
	s.metrics.RecordLogin(string(domain.AuthMethodLocal), metrics.ResultSuccess)

	sess, err := s.createSession(ctx, user, domain.AuthMethodLocal, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "method", domain.AuthMethodLocal)

	return &AuthResult{User: user, Session: sess}, nil
}

// FederatedLogin signs in the user linked to a provider identity, creating the account on first use.
// Lookup and creation are a single store operation keyed by the provider ID.
func (s *AuthService) FederatedLogin(ctx context.Context, identity *oauth.Identity, client ClientInfo) (*AuthResult, error) {
	if identity == nil || identity.ProviderID == "" {
		return nil, domainerrors.Validation("identity has no provider ID")
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	candidate := &domain.User{
		ID:          userID,
		GoogleID:    identity.ProviderID,
		DisplayName: strings.TrimSpace(identity.DisplayName),
		LastLoginAt: s.now(),
	}
	candidate.InitTimestamps()

	usernames := FederatedUsernames(identity.DisplayName, identity.ProviderID)
	user, created, err := s.users.FindOrCreateFederatedUser(ctx, candidate, usernames)
	if err != nil {
		s.metrics.RecordLogin(string(domain.AuthMethodGoogle), metrics.ResultFailure)
		return nil, fmt.Errorf("find or create federated user: %w", err)
	}

	if created {
		s.metrics.RecordRegistration()
		s.logger.Info("Federated user created", "user_id", user.ID, "username", user.Username)
	} else {
		s.recordLogin(ctx, user)
	}
	s.metrics.RecordLogin(string(domain.AuthMethodGoogle), metrics.ResultSuccess)

	sess, err := s.createSession(ctx, user, domain.AuthMethodGoogle, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "method", domain.AuthMethodGoogle)

	return &AuthResult{User: user, Session: sess}, nil
}

// Logout ends a session. Unknown sessions are ignored.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("Session deleted", "session_id", sessionID)
	return nil
}

// Resolve returns the user behind a live session.
// Missing and expired sessions yield UNAUTHORIZED; expired ones are deleted on the way.
// LastSeenAt is refreshed at most once per touchInterval.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (*domain.User, *domain.Session, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	switch {
	case errors.Is(err, session.ErrExpired):
		if delErr := s.sessions.DeleteSession(ctx, sessionID); delErr != nil {
			s.logger.Warn("Failed to delete expired session", "session_id", sessionID, "error", delErr)
		}
		return nil, nil, domainerrors.Unauthorized("session expired").WithCause(err)
	case errors.Is(err, session.ErrNotFound):
		return nil, nil, domainerrors.Unauthorized("not signed in").WithCause(err)
	case err != nil:
		return nil, nil, fmt.Errorf("get session: %w", err)
	}

	user, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.sessions.DeleteSession(ctx, sessionID) //nolint:errcheck // Best effort: the session is unusable either way
			return nil, nil, domainerrors.Unauthorized("not signed in").WithCause(err)
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	if now.Sub(sess.LastSeenAt) >= touchInterval {
		if err := s.sessions.TouchSession(ctx, sess.ID, now); err != nil {
			s.logger.Warn("Failed to touch session", "session_id", sess.ID, "error", err)
		} else {
			sess.LastSeenAt = now
		}
	}

	return user, sess, nil
}

// DeleteExpiredSessions removes all expired sessions.
// This should be run periodically as a cleanup job.
func (s *AuthService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	s.metrics.RecordSessionsExpired(count)
	if count > 0 {
		s.logger.Info("Deleted expired sessions", "count", count)
	}

	return count, nil
}

// FederatedUsernames returns the usernames to try, in order, for a new federated user.
// The first is the snake case display name; the rest add a suffix taken from the provider ID.
// A display name with no usable characters falls back to user_<suffix>.
func FederatedUsernames(displayName, providerID string) []string {
	base := normalize.Snake(displayName)
	if r := []rune(base); len(r) > maxUsernameBase {
		base = strings.TrimRight(string(r[:maxUsernameBase]), "_")
	}

	ref := normalize.Snake(providerID)
	short := ref
	if r := []rune(short); len(r) > 6 {
		short = string(r[len(r)-6:])
	}

	if base == "" {
		base = "user"
		return dedupe([]string{base + "_" + short, base + "_" + ref})
	}
	return dedupe([]string{base, base + "_" + short, base + "_" + ref})
}

func dedupe(names []string) []string {
	out := names[:0]
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (s *AuthService) createSession(ctx context.Context, user *domain.User, method domain.AuthMethod, client ClientInfo) (*domain.Session, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := s.now()
	sess := &domain.Session{
		ID:         sessionID,
		UserID:     user.ID,
		Method:     method,
		ExpiresAt:  now.Add(s.sessionDuration),
		CreatedAt:  now,
		LastSeenAt: now,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
	}

	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// recordLogin updates LastLoginAt; failures are logged, not returned.
func (s *AuthService) recordLogin(ctx context.Context, user *domain.User) {
	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to update last login time", "user_id", user.ID, "error", err)
		return
	}
	user.LastLoginAt = now
}
