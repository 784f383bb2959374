package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-lists/internal/api"
	"github.com/listenupapp/listenup-lists/internal/auth"
	"github.com/listenupapp/listenup-lists/internal/config"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/ratelimit"
	"github.com/listenupapp/listenup-lists/internal/service"
)

// AuthLimiterHandle wraps the sign-in rate limiter with shutdown capability.
type AuthLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *AuthLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAuthLimiter provides the per-IP limiter for credential endpoints.
func ProvideAuthLimiter(i do.Injector) (*AuthLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.PerInterval(cfg.RateLimit.AuthPerMinute, time.Minute, cfg.RateLimit.AuthBurst)
	return &AuthLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	shutdownTimeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sealer := do.MustInvoke[*auth.CookieSealer](i)
	google := do.MustInvoke[*GoogleHandle](i)
	limiter := do.MustInvoke[*AuthLimiterHandle](i)
	m := do.MustInvoke[*MetricsHandle](i).Metrics

	authService := do.MustInvoke[*service.AuthService](i)
	listService := do.MustInvoke[*service.ListService](i)

	handler, err := api.NewServer(api.Options{
		Config:      cfg,
		Auth:        authService,
		Lists:       listService,
		Sealer:      sealer,
		Health:      storeHandle.Store,
		Metrics:     m,
		Logger:      log,
		Google:      google.Provider,
		AuthLimiter: limiter.KeyedRateLimiter,
	})
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)

	return &HTTPServerHandle{Server: srv, shutdownTimeout: cfg.Server.ShutdownTimeout}, nil
}
