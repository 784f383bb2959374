// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Google    GoogleConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsProduction reports whether the app runs in the production environment.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port            string        // Server port (default: 3000)
	PublicURL       string        // Externally visible base URL (default: http://localhost:3000)
	ReadTimeout     time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout    time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout     time.Duration // HTTP idle timeout (default: 60s)
	ShutdownTimeout time.Duration // Graceful shutdown budget (default: 30s)

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP headers are believed.
	// Empty means forwarding headers are ignored and the TCP peer is the client.
	TrustedProxies []netip.Prefix
}

// Addr returns the listen address for the configured port.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// StorageConfig selects and locates the store backend.
type StorageConfig struct {
	Driver   string // badger or sqlite (default: badger)
	DataPath string // Directory holding the database and auth key (default: ~/ListenUpLists)
}

// AuthConfig holds session configuration.
// The cookie sealing key lives in <DataPath>/auth.key, not in config.
type AuthConfig struct {
	SessionDuration time.Duration // e.g., 720h (30 days)
	CookieName      string
	CookieSecure    bool
}

// GoogleConfig holds the Google OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// RateLimitConfig bounds the credential endpoints per client IP.
type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return LoadFrom(os.Args[1:])
}

// LoadFrom loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadFrom(args []string) (*Config, error) {
	fs := flag.NewFlagSet("listenup-lists", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	port := fs.String("port", "", "Server port (default: 3000)")
	publicURL := fs.String("public-url", "", "Externally visible base URL")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	trustedProxies := fs.String("trusted-proxies", "", "Comma-separated proxy IPs or CIDRs allowed to set X-Forwarded-For")

	// Storage flags
	driver := fs.String("store-driver", "", "Store backend: badger or sqlite (default: badger)")
	dataPath := fs.String("data-path", "", "Directory for the database and keys")

	// Auth flags
	sessionDuration := fs.String("session-duration", "", "Session lifetime (e.g., 720h)")
	cookieSecure := fs.String("cookie-secure", "", "Mark the session cookie Secure")

	metricsEnabled := fs.String("metrics-enabled", "", "Expose /metrics (default: true)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists. godotenv never overrides variables already set.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*port, "PORT", "3000"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(getConfigValue(*driver, "STORE_DRIVER", DriverBadger)),
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Auth: AuthConfig{
			CookieName: getConfigValue("", "SESSION_COOKIE", "listenup_session"),
		},
		Google: GoogleConfig{
			ClientID:     getConfigValue("", "GOOGLE_CLIENT_ID", ""),
			ClientSecret: getConfigValue("", "GOOGLE_CLIENT_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getIntConfigValue("", "AUTH_RATE_PER_MINUTE", 20),
			AuthBurst:     getIntConfigValue("", "AUTH_RATE_BURST", 10),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolConfigValue(*metricsEnabled, "METRICS_ENABLED", true),
		},
	}

	cfg.Server.PublicURL = strings.TrimSuffix(
		getConfigValue(*publicURL, "PUBLIC_URL", "http://localhost:"+cfg.Server.Port), "/")
	cfg.Google.CallbackURL = getConfigValue("", "GOOGLE_CALLBACK_URL", cfg.Server.PublicURL+"/auth/google/user")
	cfg.Auth.CookieSecure = getBoolConfigValue(*cookieSecure, "COOKIE_SECURE", cfg.App.IsProduction())

	durations := []struct {
		flag, env, def string
		dst            *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "SERVER_SHUTDOWN_TIMEOUT", "30s", &cfg.Server.ShutdownTimeout},
		{*sessionDuration, "SESSION_DURATION", "720h", &cfg.Auth.SessionDuration},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.env, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.env, raw, err)
		}
		*d.dst = parsed
	}

	proxies, err := parseTrustedProxies(getConfigValue(*trustedProxies, "TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.Server.TrustedProxies = proxies

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}

	switch c.Storage.Driver {
	case DriverBadger, DriverSQLite:
	default:
		return fmt.Errorf("invalid store driver: %q (must be badger or sqlite)", c.Storage.Driver)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Auth.SessionDuration <= 0 {
		return errors.New("session duration must be positive")
	}
	if c.Auth.CookieName == "" {
		return errors.New("session cookie name cannot be empty")
	}

	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	if c.Google.Enabled() {
		u, err := url.Parse(c.Google.CallbackURL)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("invalid Google callback URL: %q", c.Google.CallbackURL)
		}
	}

	if c.RateLimit.AuthPerMinute < 1 || c.RateLimit.AuthBurst < 1 {
		return errors.New("auth rate limit and burst must be at least 1")
	}

	return nil
}

// parseTrustedProxies parses a comma-separated list of IPs and CIDR prefixes.
// A bare IP trusts that single address.
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.Contains(field, "/") {
			p, err := netip.ParsePrefix(field)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(field)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute, defaulting to ~/ListenUpLists.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "ListenUpLists"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}
