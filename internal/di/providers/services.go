package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-lists/internal/config"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/metrics"
	"github.com/listenupapp/listenup-lists/internal/service"
)

// MetricsHandle holds the Prometheus collectors. Metrics is nil when metrics are disabled.
type MetricsHandle struct {
	*metrics.Metrics
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Metrics.Enabled {
		return &MetricsHandle{}, nil
	}
	return &MetricsHandle{Metrics: metrics.New()}, nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*MetricsHandle](i).Metrics
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, storeHandle.Store, cfg.Auth.SessionDuration, m, log.Logger), nil
}

// ProvideListService provides the list service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*MetricsHandle](i).Metrics
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListService(storeHandle.Store, m, log.Logger), nil
}
