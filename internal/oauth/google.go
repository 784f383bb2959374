// Package oauth implements sign-in through an external identity provider.
package oauth

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// maxUserInfoBytes caps the profile response body.
const maxUserInfoBytes = 1 << 20

// ErrMissingSubject is returned when the provider's profile has no stable user ID.
var ErrMissingSubject = errors.New("identity provider returned no subject")

// Identity is the provider's view of the signed-in user.
type Identity struct {
	ProviderID  string
	DisplayName string
}

// Provider runs the authorization code flow.
type Provider interface {
	// AuthCodeURL returns the consent page URL; state is echoed back to the callback.
	AuthCodeURL(state string) string
	// Exchange trades the callback's code for the user's identity.
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// GoogleConfig configures the Google provider. Endpoint and UserInfoURL default to Google's.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
}

// Google is a Provider backed by Google's OAuth 2.0 service.
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
}

var _ Provider = (*Google)(nil)

// NewGoogle creates a Google provider requesting the profile scope.
func NewGoogle(c GoogleConfig) *Google {
	endpoint := c.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Google
	}
	userInfoURL := c.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = GoogleUserInfoURL
	}

	return &Google{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"profile"},
		},
		userInfoURL: userInfoURL,
	}
}

// AuthCodeURL implements Provider.
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

// googleProfile is the subset of the userinfo response we use.
type googleProfile struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Exchange implements Provider.
func (g *Google) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := g.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}

	var profile googleProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Sub == "" {
		return nil, ErrMissingSubject
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.TrimSpace(profile.GivenName + " " + profile.FamilyName)
	}

	return &Identity{
		ProviderID:  profile.Sub,
		DisplayName: name,
	}, nil
}
