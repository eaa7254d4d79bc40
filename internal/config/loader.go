// Package config provides configuration loading for Admission Gate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for admission-gate.yaml/.yml in standard locations.
// The search requires an explicit YAML extension to avoid matching the binary itself,
// which Viper's built-in SetConfigName would match (same base name, no extension).
func InitViper(configFile string) {
	// A .env in the working directory feeds the env binding below.
	// Missing file is fine.
	_ = godotenv.Load()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location.
		// Set name/type without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("admission-gate")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: ADMISSION_GATE_SERVER_HTTP_ADDR
	viper.SetEnvPrefix("ADMISSION_GATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Bind nested keys for env var support
	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for an admission-gate config file
// with an explicit YAML extension (.yaml or .yml). This prevents Viper from
// matching the binary "admission-gate" (no extension) in the current directory.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".admission-gate"),
	}
	if runtime.GOOS == "windows" {
		// %ProgramData%\admission-gate (typically C:\ProgramData\admission-gate)
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "admission-gate"))
		}
	} else {
		paths = append(paths, "/etc/admission-gate")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for admission-gate.yaml or .yml.
// Returns the full path of the first match, or empty string if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "admission-gate"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds all config keys for environment variable support.
// This enables overriding nested config values via environment variables.
// Example: ADMISSION_GATE_STORAGE_REDIS_ADDR overrides storage.redis.addr
func bindNestedEnvKeys() {
	// Server config
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.shutdown_timeout")

	// Storage config
	_ = viper.BindEnv("storage.backend")
	_ = viper.BindEnv("storage.redis.addr")
	_ = viper.BindEnv("storage.redis.password")
	_ = viper.BindEnv("storage.redis.db")

	// Admission config
	_ = viper.BindEnv("admission.default_limit")
	_ = viper.BindEnv("admission.window")
	_ = viper.BindEnv("admission.ip_limit")
	_ = viper.BindEnv("admission.user_limit")
	_ = viper.BindEnv("admission.grace")
	_ = viper.BindEnv("admission.store_timeout")
	_ = viper.BindEnv("admission.violation_buffer")
	// Note: admission.policies is an array, complex to override via env
	// Users should use the config file for policies

	// Egress config
	// Note: egress.allowed_domains and url_param_keys are arrays, handled
	// by Viper's env parsing (space-separated)
	_ = viper.BindEnv("egress.allowed_domains")
	_ = viper.BindEnv("egress.url_param_keys")
	_ = viper.BindEnv("egress.lookup_timeout")
	_ = viper.BindEnv("egress.domains_file")

	// Identity config
	_ = viper.BindEnv("identity.trusted_headers")

	// Limits config
	_ = viper.BindEnv("limits.max_body_bytes")

	// Admin config
	_ = viper.BindEnv("admin.enabled")
	_ = viper.BindEnv("admin.api_key_hash")
	_ = viper.BindEnv("admin.rate")
	_ = viper.BindEnv("admin.burst")

	// Telemetry config
	_ = viper.BindEnv("telemetry.traces_enabled")

	// Dev mode
	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, and returns the Config.
// Note: Caller should apply any CLI flag overrides (e.g. --dev), then call
// cfg.SetDevDefaults() and cfg.Validate() to complete initialization.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars only
		// This allows running with pure environment variable configuration
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply default values for optional fields
	cfg.SetDefaults()

	// In dev mode, apply permissive defaults before validation
	cfg.SetDevDefaults()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults,
// but does NOT apply dev defaults or validate.
// Use this when CLI flags may override DevMode before validation.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
