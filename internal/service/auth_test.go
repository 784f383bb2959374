package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-lists/internal/domain"
	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/metrics"
	"github.com/listenupapp/listenup-lists/internal/oauth"
	"github.com/listenupapp/listenup-lists/internal/session"
	"github.com/listenupapp/listenup-lists/internal/store/badgerdb"
)

const testSessionDuration = 24 * time.Hour

// testClock is a settable time source shared by the service and the session store.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authFixture struct {
	svc      *AuthService
	store    *badgerdb.Store
	sessions *session.Memory
	clock    *testClock
}

// setupAuthTest creates an AuthService over a temp badger store and in-memory sessions.
func setupAuthTest(t *testing.T) *authFixture {
	t.Helper()

	s, err := badgerdb.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	sessions := session.NewMemory().WithClock(clock.Now)

	svc := NewAuthService(s, sessions, testSessionDuration, metrics.New(), nil)
	svc.now = clock.Now

	return &authFixture{svc: svc, store: s, sessions: sessions, clock: clock}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, Credentials{Username: "  alice ", Password: "wonderland"}, ClientInfo{
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", result.User.Username)
	assert.True(t, result.User.HasPassword())
	assert.NotEqual(t, "wonderland", result.User.PasswordHash)

	assert.Equal(t, result.User.ID, result.Session.UserID)
	assert.Equal(t, domain.AuthMethodLocal, result.Session.Method)
	assert.Equal(t, f.clock.Now().Add(testSessionDuration), result.Session.ExpiresAt)
	assert.Equal(t, "10.0.0.1", result.Session.IPAddress)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, Credentials{Username: "alice", Password: "original"}, ClientInfo{})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, Credentials{Username: "ALICE", Password: "hijacked"}, ClientInfo{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateUsername)

	// The original credential is untouched.
	_, err = f.svc.Login(ctx, Credentials{Username: "alice", Password: "original"}, ClientInfo{})
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, Credentials{Username: "alice", Password: "hijacked"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	users, err := f.store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAuthService_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		field string
	}{
		{"missing username", Credentials{Username: "", Password: "secret"}, "username"},
		{"whitespace username", Credentials{Username: "   ", Password: "secret"}, "username"},
		{"short username", Credentials{Username: "al", Password: "secret"}, "username"},
		{"missing password", Credentials{Username: "alice", Password: ""}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAuthTest(t)
			ctx := context.Background()

			_, err := f.svc.Register(ctx, tt.creds, ClientInfo{})
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.field)
			assert.Equal(t, 0, f.sessions.Len())
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	result, err := f.svc.Login(ctx, Credentials{Username: "Alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)

	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotEqual(t, registered.Session.ID, result.Session.ID)
	assert.Equal(t, 2, f.sessions.Len())

	stored, err := f.store.GetUser(ctx, result.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLoginAt.Equal(f.clock.Now()))
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)
	before := f.sessions.Len()

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"unknown user", Credentials{Username: "bob", Password: "wonderland"}},
		{"wrong password", Credentials{Username: "alice", Password: "looking-glass"}},
		{"empty password", Credentials{Username: "alice", Password: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, tt.creds, ClientInfo{})
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
			assert.Equal(t, "invalid username or password", err.Error())
		})
	}

	// No session is created for a failed login.
	assert.Equal(t, before, f.sessions.Len())
}

func TestAuthService_Login_FederatedUserHasNoPassword(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	_, err := f.svc.FederatedLogin(ctx, &oauth.Identity{ProviderID: "1234567890", DisplayName: "Ada Lovelace"}, ClientInfo{})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, Credentials{Username: "ada_lovelace", Password: "anything"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_FederatedLogin_CreatesThenFinds(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()
	identity := &oauth.Identity{ProviderID: "1234567890", DisplayName: "Ada Lovelace"}

	first, err := f.svc.FederatedLogin(ctx, identity, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "ada_lovelace", first.User.Username)
	assert.Equal(t, "1234567890", first.User.GoogleID)
	assert.Equal(t, "Ada Lovelace", first.User.DisplayName)
	assert.Equal(t, domain.AuthMethodGoogle, first.Session.Method)

	second, err := f.svc.FederatedLogin(ctx, identity, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	users, err := f.store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 2, f.sessions.Len())
}

func TestAuthService_FederatedLogin_UsernameCollision(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, Credentials{Username: "ada_lovelace", Password: "local"}, ClientInfo{})
	require.NoError(t, err)

	result, err := f.svc.FederatedLogin(ctx, &oauth.Identity{ProviderID: "1234567890", DisplayName: "Ada Lovelace"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "ada_lovelace_567890", result.User.Username)
}

func TestAuthService_FederatedLogin_EmptyDisplayName(t *testing.T) {
	f := setupAuthTest(t)

	result, err := f.svc.FederatedLogin(context.Background(), &oauth.Identity{ProviderID: "1234567890", DisplayName: "🙂"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "user_567890", result.User.Username)
}

func TestAuthService_FederatedLogin_MissingProviderID(t *testing.T) {
	f := setupAuthTest(t)

	_, err := f.svc.FederatedLogin(context.Background(), &oauth.Identity{DisplayName: "Nobody"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = f.svc.FederatedLogin(context.Background(), nil, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestAuthService_Logout(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)

	user, _, err := f.svc.Resolve(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)

	require.NoError(t, f.svc.Logout(ctx, result.Session.ID))

	_, _, err = f.svc.Resolve(ctx, result.Session.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// Idempotent.
	assert.NoError(t, f.svc.Logout(ctx, result.Session.ID))
	assert.NoError(t, f.svc.Logout(ctx, ""))
}

func TestAuthService_Resolve_UnknownSession(t *testing.T) {
	f := setupAuthTest(t)

	_, _, err := f.svc.Resolve(context.Background(), "session-missing")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_Resolve_ExpiredSessionIsDeleted(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)

	f.clock.Advance(testSessionDuration + time.Second)

	_, _, err = f.svc.Resolve(ctx, result.Session.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestAuthService_Resolve_TouchIsThrottled(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)
	created := result.Session.LastSeenAt

	f.clock.Advance(30 * time.Second)
	_, sess, err := f.svc.Resolve(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.True(t, sess.LastSeenAt.Equal(created), "touch within a minute should be skipped")

	f.clock.Advance(31 * time.Second)
	_, sess, err = f.svc.Resolve(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.True(t, sess.LastSeenAt.Equal(f.clock.Now()))

	stored, err := f.sessions.GetSession(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastSeenAt.Equal(f.clock.Now()))
}

func TestAuthService_DeleteExpiredSessions(t *testing.T) {
	f := setupAuthTest(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)

	count, err := f.svc.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	f.clock.Advance(testSessionDuration + time.Minute)
	_, err = f.svc.Login(ctx, Credentials{Username: "alice", Password: "wonderland"}, ClientInfo{})
	require.NoError(t, err)

	count, err = f.svc.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestFederatedUsernames(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		providerID  string
		want        []string
	}{
		{
			name:        "display name",
			displayName: "Ada Lovelace",
			providerID:  "108234567890",
			want:        []string{"ada_lovelace", "ada_lovelace_567890", "ada_lovelace_108234567890"},
		},
		{
			name:        "accented name",
			displayName: "José García",
			providerID:  "42",
			want:        []string{"jose_garcia", "jose_garcia_42"},
		},
		{
			name:        "cyrillic name",
			displayName: "Иван Петров",
			providerID:  "42",
			want:        []string{"иван_петров", "иван_петров_42"},
		},
		{
			name:        "long cyrillic name is truncated by characters",
			displayName: "Александр Константинович Преображенский Младший",
			providerID:  "7",
			want: []string{
				"александр_константинович_преображенский",
				"александр_константинович_преображенский_7",
			},
		},
		{
			name:        "empty name",
			displayName: "",
			providerID:  "108234567890",
			want:        []string{"user_567890", "user_108234567890"},
		},
		{
			name:        "long name is truncated",
			displayName: "Wolfgang Amadeus Mozart Johannes Chrysostomus Theophilus",
			providerID:  "7",
			want: []string{
				"wolfgang_amadeus_mozart_johannes_chrysos",
				"wolfgang_amadeus_mozart_johannes_chrysos_7",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FederatedUsernames(tt.displayName, tt.providerID))
		})
	}
}
