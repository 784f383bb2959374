// Package api provides the HTTP server: the HTML pages, the JSON API and the session gate in front of both.
package api

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/listenup-lists/internal/auth"
	"github.com/listenupapp/listenup-lists/internal/config"
	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/metrics"
	"github.com/listenupapp/listenup-lists/internal/oauth"
	"github.com/listenupapp/listenup-lists/internal/ratelimit"
	"github.com/listenupapp/listenup-lists/internal/service"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Options holds the server's dependencies.
type Options struct {
	Config  *config.Config
	Auth    *service.AuthService
	Lists   *service.ListService
	Sealer  *auth.CookieSealer
	Health  Pinger
	Metrics *metrics.Metrics
	Logger  *logger.Logger

	// Google is nil when Google sign-in is not configured.
	Google oauth.Provider
	// AuthLimiter throttles sign-in attempts per client IP. Nil disables it.
	AuthLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg         *config.Config
	auth        *service.AuthService
	lists       *service.ListService
	sealer      *auth.CookieSealer
	health      Pinger
	metrics     *metrics.Metrics
	google      oauth.Provider
	authLimiter *ratelimit.KeyedRateLimiter
	pages       map[string]*template.Template
	router      *chi.Mux
	api         huma.API
	logger      *logger.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Auth == nil || opts.Lists == nil || opts.Sealer == nil {
		return nil, errors.New("api: config, auth, lists and sealer are required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         opts.Config,
		auth:        opts.Auth,
		lists:       opts.Lists,
		sealer:      opts.Sealer,
		health:      opts.Health,
		metrics:     opts.Metrics,
		google:      opts.Google,
		authLimiter: opts.AuthLimiter,
		pages:       pages,
		router:      chi.NewRouter(),
		logger:      opts.Logger,
	}

	s.setupMiddleware()
	s.setupAPI()
	s.setupRoutes()

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI generation and tests.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
// Chi requires every Use before the first route, including the ones huma adds.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(realIP(s.cfg.Server.TrustedProxies))
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(apiCORS(s.cfg.Server.PublicURL))
	s.router.Use(s.sessionGate)
}

// setupAPI mounts huma on the router under /api/v1.
func (s *Server) setupAPI() {
	humaConfig := huma.DefaultConfig("ListenUp Lists API", APIVersion)
	humaConfig.OpenAPIPath = "/api/v1/openapi"
	humaConfig.DocsPath = "/api/v1/docs"
	humaConfig.SchemasPath = "/api/v1/schemas"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"session": {
			Type: "apiKey",
			In:   "cookie",
			Name: s.cfg.Auth.CookieName,
		},
	}
	// Bodies are wrapped in the envelope, so the $schema links huma adds by default would only be noise.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = []huma.Transformer{EnvelopeTransformer}

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerListRoutes()
}

// setupRoutes configures the HTML routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.NotFound(s.handleNotFound)

	r.Get("/healthz", s.handleLiveness)
	if s.cfg.Metrics.Enabled && s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.With(cacheControl(CacheOneDay)).Handle("/static/*", staticFiles())

	r.Get("/", s.handleHome)

	// Sign-in.
	r.With(s.limitAuth).Get("/auth/google", s.handleGoogleStart)
	r.Get("/auth/google/user", s.handleGoogleCallback)
	r.Get("/register", s.handleRegisterPage)
	r.With(s.limitAuth).Post("/register", s.handleRegister)
	r.Get("/login", s.handleLoginPage)
	r.With(s.limitAuth).Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)

	// Lists (require auth).
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/user", s.handleDashboard)
		r.Get("/add", s.handleAddPage)
		r.Post("/add", s.handleAddList)
		r.Post("/delete", s.handleDeleteItemForm)
		r.Post("/delete-list", s.handleDeleteListForm)
		r.Get("/lists/{customListName}", s.handleViewList)
		r.Post("/lists/{customListName}", s.handleAddItemForm)
	})
}

func cacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
