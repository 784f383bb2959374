// Package metrics exposes Prometheus counters and histograms for the HTTP surface and the list domain.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "listenup_lists"

// Login results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds Prometheus metrics for the application.
// Each instance owns a private registry so tests and multiple servers never collide.
// A nil *Metrics is valid and records nothing.
//
// Metrics:
//   - listenup_lists_http_requests_total{method,route,status}
//   - listenup_lists_http_request_duration_seconds{method,route}
//   - listenup_lists_logins_total{method,result}
//   - listenup_lists_registrations_total
//   - listenup_lists_lists_created_total
//   - listenup_lists_items_added_total
//   - listenup_lists_sessions_expired_total
//   - listenup_lists_rate_limited_total
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoginsTotal          *prometheus.CounterVec
	RegistrationsTotal   prometheus.Counter
	ListsCreatedTotal    prometheus.Counter
	ItemsAddedTotal      prometheus.Counter
	SessionsExpiredTotal prometheus.Counter
	RateLimitedTotal     prometheus.Counter
}

// New creates and registers all metrics on a fresh registry, along with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
			[]string{"method", "route"},
		),

		LoginsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts by method and result",
			},
			[]string{"method", "result"},
		),

		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of local accounts registered",
		}),

		ListsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lists_created_total",
			Help:      "Total number of lists created",
		}),

		ItemsAddedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_added_total",
			Help:      "Total number of items added to lists",
		}),

		SessionsExpiredTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Total number of expired sessions removed by cleanup",
		}),

		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLogin records a login attempt.
func (m *Metrics) RecordLogin(method, result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(method, result).Inc()
}

// RecordRegistration records a new local account.
func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

// RecordListCreated records a newly created list.
func (m *Metrics) RecordListCreated() {
	if m == nil {
		return
	}
	m.ListsCreatedTotal.Inc()
}

// RecordItemAdded records an item appended to a list.
func (m *Metrics) RecordItemAdded() {
	if m == nil {
		return
	}
	m.ItemsAddedTotal.Inc()
}

// RecordSessionsExpired records sessions removed by the cleanup job.
func (m *Metrics) RecordSessionsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsExpiredTotal.Add(float64(n))
}

// RecordRateLimited records a rejected request.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// Middleware records request count and latency keyed by the matched chi route pattern.
// Unmatched requests are grouped under "unmatched" to bound label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
