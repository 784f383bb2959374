package api

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-lists/internal/auth"
	"github.com/listenupapp/listenup-lists/internal/config"
	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/metrics"
	"github.com/listenupapp/listenup-lists/internal/oauth"
	"github.com/listenupapp/listenup-lists/internal/ratelimit"
	"github.com/listenupapp/listenup-lists/internal/service"
	"github.com/listenupapp/listenup-lists/internal/store/badgerdb"
)

const testCookieName = "listenup_session"

// testEnvelope mirrors response.Envelope for decoding.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

// testEnv is a running server backed by a temp badger store.
type testEnv struct {
	t       *testing.T
	srv     *Server
	ts      *httptest.Server
	store   *badgerdb.Store
	auth    *service.AuthService
	sealer  *auth.CookieSealer
	metrics *metrics.Metrics
}

type envOption func(*Options)

func withGoogle(p oauth.Provider) envOption {
	return func(o *Options) { o.Google = p }
}

func withAuthLimiter(l *ratelimit.KeyedRateLimiter) envOption {
	return func(o *Options) { o.AuthLimiter = l }
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Server: config.ServerConfig{Port: "3000", PublicURL: "http://localhost:3000"},
		Auth: config.AuthConfig{
			SessionDuration: time.Hour,
			CookieName:      testCookieName,
		},
		RateLimit: config.RateLimitConfig{AuthPerMinute: 1000, AuthBurst: 1000},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	dir := t.TempDir()
	st, err := badgerdb.New(filepath.Join(dir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	sealer, err := auth.NewCookieSealer(key)
	require.NoError(t, err)

	cfg := testConfig()
	m := metrics.New()
	authService := service.NewAuthService(st, st, cfg.Auth.SessionDuration, m, nil)
	listService := service.NewListService(st, m, nil)

	o := Options{
		Config:  cfg,
		Auth:    authService,
		Lists:   listService,
		Sealer:  sealer,
		Health:  st,
		Metrics: m,
		Logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	srv, err := NewServer(o)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{
		t:       t,
		srv:     srv,
		ts:      ts,
		store:   st,
		auth:    authService,
		sealer:  sealer,
		metrics: m,
	}
}

// browser returns a client with its own cookie jar that does not follow redirects.
func (e *testEnv) browser() *http.Client {
	e.t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(c *http.Client, req *http.Request) (*http.Response, string) {
	e.t.Helper()
	resp, err := c.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, string(body)
}

func (e *testEnv) get(c *http.Client, path string) (*http.Response, string) {
	e.t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	require.NoError(e.t, err)
	return e.do(c, req)
}

func (e *testEnv) post(c *http.Client, path string, form url.Values) (*http.Response, string) {
	e.t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, strings.NewReader(form.Encode()))
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(c, req)
}

// register signs up a user through the form and returns their stored record.
func (e *testEnv) register(c *http.Client, username, password string) *domain.User {
	e.t.Helper()
	resp, body := e.post(c, "/register", url.Values{"username": {username}, "password": {password}})
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode, body)
	require.Equal(e.t, "/user", resp.Header.Get("Location"))

	user, err := e.store.GetUserByUsername(context.Background(), username)
	require.NoError(e.t, err)
	return user
}

// sessionCookie returns the session cookie the browser holds, if any.
func (e *testEnv) sessionCookie(c *http.Client) *http.Cookie {
	u, err := url.Parse(e.ts.URL)
	require.NoError(e.t, err)
	for _, cookie := range c.Jar.Cookies(u) {
		if cookie.Name == testCookieName {
			return cookie
		}
	}
	return nil
}

// signIn registers a user through the service and returns a Cookie header for them.
func (e *testEnv) signIn(username string) (cookieHeader string, user *domain.User) {
	e.t.Helper()
	result, err := e.auth.Register(context.Background(), service.Credentials{Username: username, Password: "correct horse"}, service.ClientInfo{})
	require.NoError(e.t, err)

	value, err := e.sealer.Seal(result.Session.ID, result.Session.ExpiresAt)
	require.NoError(e.t, err)
	return "Cookie: " + testCookieName + "=" + value, result.User
}

// fakeProvider stands in for Google.
type fakeProvider struct {
	mu       sync.Mutex
	identity *oauth.Identity
	err      error
	codes    []string
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.test/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*oauth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func (f *fakeProvider) exchanged() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.codes...)
}

var oauthIdentity = oauth.Identity{ProviderID: "109876543210987654321", DisplayName: "Ada Lovelace"}
