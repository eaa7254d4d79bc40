// Package config provides the file-based configuration schema for
// Admission Gate.
//
// Everything here is static for the process lifetime except the egress
// allow-list, which the admin API can mutate at runtime (and optionally
// persist via egress.domains_file). Changing limits, windows, or the
// storage backend is a restart.
package config

import (
	"github.com/spf13/viper"
)

// Config is the top-level configuration for Admission Gate.
type Config struct {
	// Server configures the HTTP server listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Storage selects and configures the shared counter backend.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Admission configures the fixed-window rate limiting dimensions.
	Admission AdmissionConfig `yaml:"admission" mapstructure:"admission"`

	// Egress configures the outbound URL guard.
	Egress EgressConfig `yaml:"egress" mapstructure:"egress"`

	// Identity configures client identity resolution from proxy headers.
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity"`

	// Limits configures request size caps.
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`

	// Admin configures the operator API.
	Admin AdminConfig `yaml:"admin" mapstructure:"admin"`

	// Telemetry configures trace export.
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`

	// DevMode enables development features (debug logging, demo app
	// handler, permissive dev defaults).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
// Only plain HTTP is supported (use a reverse proxy for TLS).
type ServerConfig struct {
	// HTTPAddr is the address to listen on (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Defaults to "127.0.0.1:8080" (localhost only) if empty.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// ShutdownTimeout is how long in-flight requests get to finish on
	// shutdown (e.g., "10s"). Defaults to "10s".
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"omitempty,duration"`
}

// StorageConfig selects the counter store backend.
// Redis makes window counters shared across replicas; memory keeps
// them per-process and is only accurate behind sticky routing or in
// single-instance deployments.
type StorageConfig struct {
	// Backend is "redis" or "memory". Defaults to "memory".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=redis memory"`

	// Redis configures the Redis connection. Required when Backend is "redis".
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the Redis counter store.
type RedisConfig struct {
	// Addr is the Redis server address (e.g., "localhost:6379").
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`

	// Password is the Redis AUTH password. Empty means no auth.
	Password string `yaml:"password" mapstructure:"password"`

	// DB is the Redis logical database number.
	DB int `yaml:"db" mapstructure:"db" validate:"omitempty,min=0"`
}

// AdmissionConfig configures the fixed-window admission controller.
type AdmissionConfig struct {
	// DefaultLimit is the per-route budget for routes without an explicit
	// policy. Defaults to 100 requests per window.
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit" validate:"omitempty,min=1"`

	// Window is the fixed window length shared by every dimension
	// (e.g., "60s", "1m"). Defaults to "60s".
	Window string `yaml:"window" mapstructure:"window" validate:"omitempty,duration"`

	// IPLimit is the per-client-address budget per window. Defaults to 100.
	IPLimit int `yaml:"ip_limit" mapstructure:"ip_limit" validate:"omitempty,min=1"`

	// UserLimit is the per-authenticated-subject budget per window.
	// Defaults to 1000.
	UserLimit int `yaml:"user_limit" mapstructure:"user_limit" validate:"omitempty,min=1"`

	// Grace is how long counters outlive their window so late readers
	// still see them (e.g., "10s"). Defaults to "10s".
	Grace string `yaml:"grace" mapstructure:"grace" validate:"omitempty,duration"`

	// StoreTimeout bounds each counter store round trip (e.g., "1s").
	// A store slower than this fails open. Defaults to "1s".
	StoreTimeout string `yaml:"store_timeout" mapstructure:"store_timeout" validate:"omitempty,duration"`

	// ViolationBuffer is the number of recent denials kept in memory for
	// the admin API. Defaults to 1000.
	ViolationBuffer int `yaml:"violation_buffer" mapstructure:"violation_buffer" validate:"omitempty,min=1"`

	// Policies are per-route budget overrides. Routes not listed here use
	// DefaultLimit. All policies share Window.
	Policies []RoutePolicyConfig `yaml:"policies" mapstructure:"policies" validate:"omitempty,dive"`
}

// RoutePolicyConfig overrides the request budget for one route.
type RoutePolicyConfig struct {
	// Route is an exact path ("/auth/login") or a prefix pattern ending
	// in "/*" ("/api/*").
	Route string `yaml:"route" mapstructure:"route" validate:"required,route_pattern"`

	// Limit is the maximum requests per window for this route.
	Limit int `yaml:"limit" mapstructure:"limit" validate:"required,min=1"`
}

// EgressConfig configures the outbound URL guard.
type EgressConfig struct {
	// AllowedDomains is the egress allow-list. Hostnames are matched
	// exactly after lowercasing; there is no wildcard support. An empty
	// list means every outbound URL is rejected (default-deny).
	AllowedDomains []string `yaml:"allowed_domains" mapstructure:"allowed_domains" validate:"omitempty,dive,hostname_rfc1123"`

	// URLParamKeys are the request field names scanned for outbound URLs,
	// matched case-insensitively in query strings and JSON bodies.
	// Defaults to url, link, redirect, callback.
	URLParamKeys []string `yaml:"url_param_keys" mapstructure:"url_param_keys"`

	// LookupTimeout bounds DNS resolution per candidate (e.g., "1s").
	// Resolution that fails or times out rejects the URL. Defaults to "1s".
	LookupTimeout string `yaml:"lookup_timeout" mapstructure:"lookup_timeout" validate:"omitempty,duration"`

	// DomainsFile is an optional YAML file the admin API persists
	// allow-list mutations to. When set, entries from the file are merged
	// over AllowedDomains at startup. Empty disables persistence.
	DomainsFile string `yaml:"domains_file" mapstructure:"domains_file"`
}

// IdentityConfig configures client identity resolution.
type IdentityConfig struct {
	// TrustedHeaders are edge-proxy headers consulted in order before
	// X-Forwarded-For. Defaults to CF-Connecting-IP, True-Client-IP,
	// X-Real-IP when empty. Set only headers your edge actually strips
	// from client requests.
	TrustedHeaders []string `yaml:"trusted_headers" mapstructure:"trusted_headers"`
}

// LimitsConfig configures request size caps.
type LimitsConfig struct {
	// MaxBodyBytes is the largest request body accepted, in bytes.
	// Defaults to 10485760 (10 MiB).
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"omitempty,min=1"`
}

// AdminConfig configures the operator API under /admin/api/v1/.
type AdminConfig struct {
	// Enabled controls whether the admin API is mounted.
	// Default: true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// APIKeyHash is the SHA-256 hash of the admin API key, prefixed with
	// "sha256:". Required for non-localhost admin access. Generate with:
	// admission-gate hash-key "your-key"
	APIKeyHash string `yaml:"api_key_hash" mapstructure:"api_key_hash" validate:"omitempty,startswith=sha256:"`

	// Rate is the maximum admin requests per minute per client address.
	// Defaults to 60.
	Rate int `yaml:"rate" mapstructure:"rate" validate:"omitempty,min=1"`

	// Burst is the number of admin requests a client may send at once
	// before the per-minute rate applies. Defaults to 10.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"omitempty,min=1"`
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	// TracesEnabled turns on span export for counter store batches and
	// guard DNS lookups. Default: false.
	TracesEnabled bool `yaml:"traces_enabled" mapstructure:"traces_enabled"`
}

// SetDevDefaults applies permissive defaults for development mode.
// These are applied BEFORE validation so required fields are satisfied.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}

	// Allow a couple of well-known test domains so the demo handler has
	// something to pass the guard with.
	if len(c.Egress.AllowedDomains) == 0 {
		c.Egress.AllowedDomains = []string{"example.com", "www.example.com", "httpbin.org"}
	}

	// Provide a default dev admin key if none configured.
	// SHA256 of "dev-api-key"
	if c.Admin.APIKeyHash == "" {
		c.Admin.APIKeyHash = "sha256:6e1e4e1b8f8b36d08901cdb51b97841dfe20f5efd2fd2fd00768971408c46274"
	}
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Server defaults — bind to localhost only for security.
	// Users who need network access must explicitly set http_addr: ":8080" or "0.0.0.0:8080".
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	// Storage defaults — in-memory so the gate runs with zero external
	// dependencies. Multi-replica deployments must opt into redis.
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}

	// Admission defaults
	if c.Admission.DefaultLimit == 0 {
		c.Admission.DefaultLimit = 100
	}
	if c.Admission.Window == "" {
		c.Admission.Window = "60s"
	}
	if c.Admission.IPLimit == 0 {
		c.Admission.IPLimit = 100
	}
	if c.Admission.UserLimit == 0 {
		c.Admission.UserLimit = 1000
	}
	if c.Admission.Grace == "" {
		c.Admission.Grace = "10s"
	}
	if c.Admission.StoreTimeout == "" {
		c.Admission.StoreTimeout = "1s"
	}
	if c.Admission.ViolationBuffer == 0 {
		c.Admission.ViolationBuffer = 1000
	}

	// Egress defaults. AllowedDomains stays empty: the guard is
	// default-deny and the allow-list is a deliberate operator decision.
	if len(c.Egress.URLParamKeys) == 0 {
		c.Egress.URLParamKeys = []string{"url", "link", "redirect", "callback"}
	}
	if c.Egress.LookupTimeout == "" {
		c.Egress.LookupTimeout = "1s"
	}

	// Limits defaults — 10 MiB request body cap.
	if c.Limits.MaxBodyBytes == 0 {
		c.Limits.MaxBodyBytes = 10 * 1024 * 1024
	}

	// Admin defaults — enabled by default; without an api_key_hash only
	// localhost clients get in, which is safe.
	// viper.IsSet distinguishes "not set" (zero value) from "explicitly false".
	if !viper.IsSet("admin.enabled") {
		c.Admin.Enabled = true
	}
	if c.Admin.Rate == 0 {
		c.Admin.Rate = 60
	}
	if c.Admin.Burst == 0 {
		c.Admin.Burst = 10
	}
}
