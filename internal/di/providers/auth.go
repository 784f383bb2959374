package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-lists/internal/auth"
	"github.com/listenupapp/listenup-lists/internal/config"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/oauth"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the session cookie key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"session_duration", cfg.Auth.SessionDuration,
		"cookie_secure", cfg.Auth.CookieSecure,
	)

	return AuthKey(key), nil
}

// ProvideCookieSealer provides the PASETO sealer for session cookies.
func ProvideCookieSealer(i do.Injector) (*auth.CookieSealer, error) {
	authKey := do.MustInvoke[AuthKey](i)
	return auth.NewCookieSealer(authKey)
}

// GoogleHandle holds the Google sign-in provider. Provider is nil when Google is not configured.
type GoogleHandle struct {
	Provider oauth.Provider
}

// ProvideGoogle provides Google sign-in when a client registration is configured.
func ProvideGoogle(i do.Injector) (*GoogleHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Google.Enabled() {
		log.Info("Google sign-in disabled (GOOGLE_CLIENT_ID not set)")
		return &GoogleHandle{}, nil
	}

	log.Info("Google sign-in enabled", "callback_url", cfg.Google.CallbackURL)
	return &GoogleHandle{
		Provider: oauth.NewGoogle(oauth.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.CallbackURL,
		}),
	}, nil
}
