package providers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-lists/internal/auth"
	"github.com/listenupapp/listenup-lists/internal/config"
	"github.com/listenupapp/listenup-lists/internal/logger"
)

func newTestInjector(t *testing.T, cfg *config.Config) do.Injector {
	t.Helper()
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger.Discard())
	do.Provide(injector, ProvideAuthKey)
	do.Provide(injector, ProvideCookieSealer)
	do.Provide(injector, ProvideGoogle)
	return injector
}

func TestProvideAuthKey_PersistsInDataPath(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "data")
	cfg := &config.Config{Storage: config.StorageConfig{DataPath: dataPath}}

	key := do.MustInvoke[AuthKey](newTestInjector(t, cfg))
	assert.Len(t, key, 32)

	_, err := os.Stat(filepath.Join(dataPath, "auth.key"))
	require.NoError(t, err)

	// A fresh container reads the same key, so cookies survive restarts.
	injector := newTestInjector(t, cfg)
	assert.Equal(t, key, do.MustInvoke[AuthKey](injector))

	sealer := do.MustInvoke[*auth.CookieSealer](injector)
	value, err := sealer.Seal("session-abc", time.Now().Add(time.Hour))
	require.NoError(t, err)

	reopened, err := auth.NewCookieSealer(key)
	require.NoError(t, err)
	opened, err := reopened.Open(value)
	require.NoError(t, err)
	assert.Equal(t, "session-abc", opened.Subject)
}

func TestProvideGoogle(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{DataPath: t.TempDir()}}
	assert.Nil(t, do.MustInvoke[*GoogleHandle](newTestInjector(t, cfg)).Provider)

	cfg.Google = config.GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		CallbackURL:  "http://localhost:3000/auth/google/user",
	}
	assert.NotNil(t, do.MustInvoke[*GoogleHandle](newTestInjector(t, cfg)).Provider)
}
