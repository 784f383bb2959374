package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newFakeGoogle serves a token endpoint and a userinfo endpoint.
func newFakeGoogle(t *testing.T, profile string, status int) *Google {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(profile))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewGoogle(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/auth/google/user",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
		UserInfoURL: srv.URL + "/userinfo",
	})
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	g := NewGoogle(GoogleConfig{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:3000/auth/google/user",
	})

	u, err := url.Parse(g.AuthCodeURL("state-xyz"))
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "profile", q.Get("scope"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:3000/auth/google/user", q.Get("redirect_uri"))
}

func TestGoogle_Exchange(t *testing.T) {
	g := newFakeGoogle(t, `{"sub":"1098765","name":"Ada Lovelace"}`, http.StatusOK)

	ident, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "1098765", ident.ProviderID)
	assert.Equal(t, "Ada Lovelace", ident.DisplayName)
}

func TestGoogle_Exchange_NameFromParts(t *testing.T) {
	g := newFakeGoogle(t, `{"sub":"1","given_name":"Grace","family_name":"Hopper"}`, http.StatusOK)

	ident, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", ident.DisplayName)
}

func TestGoogle_Exchange_Failures(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		profile string
		status  int
	}{
		{"bad code", "bad-code", `{"sub":"1"}`, http.StatusOK},
		{"userinfo error", "good-code", `{}`, http.StatusInternalServerError},
		{"missing subject", "good-code", `{"name":"Nobody"}`, http.StatusOK},
		{"malformed profile", "good-code", `not json`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGoogle(t, tt.profile, tt.status)
			_, err := g.Exchange(context.Background(), tt.code)
			assert.Error(t, err)
		})
	}
}
