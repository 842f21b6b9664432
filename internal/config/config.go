// Package config provides configuration management for the queue activity dashboard.
// It supports environment variable-based configuration with validation and default values
// for all service components including server, Genesys Cloud, dashboard sessions, Redis,
// security, and logging settings.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/models"
)

const (
	// MinPortNumber is the minimum valid port number.
	MinPortNumber = 1
	// MaxPortNumber is the maximum valid port number.
	MaxPortNumber = 65535
)

// Config represents the complete configuration for the dashboard service,
// aggregating all component-specific configurations.
type Config struct {
	// Environment holds environment-specific settings.
	Environment EnvironmentConfig `envconfig:"ENVIRONMENT"`
	// Server contains HTTP server configuration including ports, timeouts, and TLS settings.
	Server ServerConfig `envconfig:"SERVER"`
	// Genesys contains the Genesys Cloud region and OAuth client settings.
	Genesys GenesysConfig `envconfig:"GC"`
	// QueueIDs are the queues the dashboard watches, in display order.
	QueueIDs []string `envconfig:"QUEUE_IDS"`
	// Dashboard contains per-session dashboard settings.
	Dashboard DashboardConfig `envconfig:"DASHBOARD"`
	// Redis contains Redis connection and pool configuration.
	Redis RedisConfig `envconfig:"REDIS"`
	// Security contains security-related settings like rate limiting and cookies.
	Security SecurityConfig `envconfig:"SECURITY"`
	// Logging contains logging configuration.
	Logging LoggingConfig `envconfig:"LOGGING"`
}

type Environment string

const (
	Local   Environment = "LOCAL"
	NonProd Environment = "NONPROD"
	Prod    Environment = "PROD"
)

// EnvironmentConfig holds environment-specific settings.
type EnvironmentConfig struct {
	// Environment indicates the current running environment (LOCAL, NONPROD, PROD).
	Environment Environment `envconfig:"ENV" default:"LOCAL"`
}

// ServerConfig holds HTTP server configuration including network settings,
// timeouts, and TLS certificate paths.
type ServerConfig struct {
	// Port is the HTTP server listening port.
	Port int `envconfig:"PORT"             default:"8080"`
	// Host is the network interface to bind to.
	Host string `envconfig:"HOST"             default:"0.0.0.0"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"     default:"15s"`
	// WriteTimeout is the maximum duration before timing out writes.
	// Zero disables it so event streams stay open.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT"    default:"0s"`
	// IdleTimeout is the maximum amount of time to wait for keep-alive connections.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT"     default:"60s"`
	// ShutdownTimeout is the maximum time to wait for graceful server shutdown.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// TLSCert is the path to the TLS certificate file for HTTPS.
	TLSCert string `envconfig:"TLS_CERT"`
	// TLSKey is the path to the TLS private key file for HTTPS.
	TLSKey string `envconfig:"TLS_KEY"`
}

// GenesysConfig holds the Genesys Cloud settings used for login and realtime.
type GenesysConfig struct {
	// Region is the Genesys Cloud region domain, e.g. "mypurecloud.com".
	Region string `envconfig:"REGION"`
	// ClientID is the OAuth client id of the PKCE-enabled client.
	ClientID string `envconfig:"CLIENT_ID"`
	// RedirectURI is the absolute URL registered as the OAuth callback.
	RedirectURI string `envconfig:"REDIRECT_URI"`
	// LoginBaseURL overrides the login host derived from the region.
	LoginBaseURL string `envconfig:"LOGIN_BASE_URL"`
	// APIBaseURL overrides the API host derived from the region.
	APIBaseURL string `envconfig:"API_BASE_URL"`
	// HTTPTimeout bounds every outbound HTTP call.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// DashboardConfig holds settings for browser sessions and the queue catalog.
type DashboardConfig struct {
	// QueueCatalog is an optional YAML file with queue display names.
	QueueCatalog string `envconfig:"QUEUE_CATALOG"`
	// SessionTTL is how long session artifacts and cookies live, and how long
	// an unseen dashboard session keeps its shell.
	SessionTTL time.Duration `envconfig:"SESSION_TTL"        default:"8h"`
	// HeartbeatInterval is the period of keep-alive comments on event streams.
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"15s"`

	// Queues is the catalog loaded from QueueCatalog.
	Queues []QueueEntry `ignored:"true"`
}

// RedisConfig contains Redis connection configuration including
// connection pool settings and timeouts.
type RedisConfig struct {
	// URL is the Redis connection URL.
	URL string `envconfig:"URL"           default:"redis://localhost:6379"`
	// Password is the Redis authentication password.
	Password string `envconfig:"PASSWORD"`
	// DB is the Redis database number to use.
	DB int `envconfig:"DB"            default:"0"`
	// MaxRetries is the maximum number of retry attempts for failed operations.
	MaxRetries int `envconfig:"MAX_RETRIES"   default:"3"`
	// PoolSize is the maximum number of socket connections.
	PoolSize int `envconfig:"POOL_SIZE"     default:"10"`
	// MinIdleConn is the minimum number of idle connections.
	MinIdleConn int `envconfig:"MIN_IDLE_CONN" default:"5"`
	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT"  default:"5s"`
	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"  default:"3s"`
	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	// PoolTimeout is the amount of time client waits for connection.
	PoolTimeout time.Duration `envconfig:"POOL_TIMEOUT"  default:"4s"`
	// IdleTimeout is the amount of time after which client closes idle connections.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT"  default:"300s"`
}

// SecurityConfig contains security-related settings including
// rate limiting and cookie security.
type SecurityConfig struct {
	// RateLimitRPS is the maximum requests per second per client.
	RateLimitRPS int `envconfig:"RATE_LIMIT_RPS"    default:"100"`
	// RateLimitBurst is the maximum burst size for rate limiting.
	RateLimitBurst int `envconfig:"RATE_LIMIT_BURST"  default:"200"`
	// SecureCookies determines if cookies should be marked as secure.
	SecureCookies bool `envconfig:"SECURE_COOKIES"    default:"false"`
	// TrustedProxies are the proxy IP addresses or CIDR networks whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

// LoggingConfig contains logging configuration including
// log level, format, and output destination.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `envconfig:"LEVEL"  default:"info"`
	// Format is the log output format (json, text).
	Format string `envconfig:"FORMAT" default:"json"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `envconfig:"OUTPUT" default:"stdout"`
}

// Load reads configuration from environment variables and the optional
// queue catalog, and returns a validated Config instance. It returns an
// error if configuration is invalid or required values are missing.
func Load() (*Config, error) {
	cfg, err := process()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadRealtime reads the same sources as Load but only requires what is
// needed to open a realtime channel with a token obtained elsewhere.
func LoadRealtime() (*Config, error) {
	cfg, err := process()
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateRealtime(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.QueueIDs = NormalizeQueueIDs(cfg.QueueIDs)

	if cfg.Dashboard.QueueCatalog != "" {
		entries, err := LoadQueueCatalog(cfg.Dashboard.QueueCatalog)
		if err != nil {
			return nil, err
		}
		cfg.Dashboard.Queues = entries
		cfg.QueueIDs = mergeCatalogIDs(cfg.QueueIDs, entries)
	}

	return &cfg, nil
}

// Validate checks every configuration value and reports all failures at once
// as models.ValidationErrors.
func (c *Config) Validate() error {
	var errs models.ValidationErrors

	if c.Server.Port < MinPortNumber || c.Server.Port > MaxPortNumber {
		errs = append(errs, models.ValidationError{
			Field:   "SERVER_PORT",
			Message: fmt.Sprintf("must be between %d and %d", MinPortNumber, MaxPortNumber),
		})
	}

	if c.Genesys.Region == "" {
		errs = append(errs, models.ValidationError{Field: "GC_REGION", Message: "is required"})
	} else if !isRegionDomain(c.Genesys.Region) {
		errs = append(errs, regionDomainError)
	}
	if c.Genesys.ClientID == "" {
		errs = append(errs, models.ValidationError{Field: "GC_CLIENT_ID", Message: "is required"})
	}

	if c.Genesys.RedirectURI == "" {
		errs = append(errs, models.ValidationError{Field: "GC_REDIRECT_URI", Message: "is required"})
	} else if u, err := url.Parse(c.Genesys.RedirectURI); err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, models.ValidationError{Field: "GC_REDIRECT_URI", Message: "must be an absolute URL"})
	}

	if c.Genesys.HTTPTimeout <= 0 {
		errs = append(errs, models.ValidationError{Field: "GC_HTTP_TIMEOUT", Message: "must be positive"})
	}

	if c.Dashboard.SessionTTL <= 0 {
		errs = append(errs, models.ValidationError{Field: "DASHBOARD_SESSION_TTL", Message: "must be positive"})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateRealtime checks the settings used by the realtime channel alone.
func (c *Config) ValidateRealtime() error {
	var errs models.ValidationErrors

	switch {
	case c.Genesys.Region == "" && c.Genesys.APIBaseURL == "":
		errs = append(errs, models.ValidationError{Field: "GC_REGION", Message: "is required"})
	case c.Genesys.Region != "" && !isRegionDomain(c.Genesys.Region):
		errs = append(errs, regionDomainError)
	}
	if c.Genesys.HTTPTimeout <= 0 {
		errs = append(errs, models.ValidationError{Field: "GC_HTTP_TIMEOUT", Message: "must be positive"})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

var regionDomainError = models.ValidationError{
	Field:   "GC_REGION",
	Message: "must be the region domain, e.g. mypurecloud.com or euw2.pure.cloud",
}

// isRegionDomain reports whether region is a dotted host suffix. A bare
// region code such as "euw2" is rejected.
func isRegionDomain(region string) bool {
	return strings.Contains(region, ".") &&
		!strings.HasPrefix(region, ".") &&
		!strings.HasSuffix(region, ".") &&
		!strings.ContainsAny(region, "/: ")
}

// ServerAddr returns the formatted server address string in host:port format.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsTLSEnabled returns true if both TLS certificate and key paths are configured.
func (c *Config) IsTLSEnabled() bool {
	return c.Server.TLSCert != "" && c.Server.TLSKey != ""
}

// NormalizeQueueIDs trims every id and drops empty entries, keeping order.
func NormalizeQueueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseQueueIDs splits a comma separated queue list.
func ParseQueueIDs(raw string) []string {
	return NormalizeQueueIDs(strings.Split(raw, ","))
}

func mergeCatalogIDs(ids []string, entries []QueueEntry) []string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, entry := range entries {
		if entry.ID == "" || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		ids = append(ids, entry.ID)
	}
	return ids
}
