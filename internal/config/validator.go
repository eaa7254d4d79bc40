package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers Admission Gate validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// duration: validates a positive time.ParseDuration string ("60s", "1m")
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	// route_pattern: validates an exact path or a "/*" prefix pattern
	if err := v.RegisterValidation("route_pattern", validateRoutePattern); err != nil {
		return fmt.Errorf("failed to register route_pattern validator: %w", err)
	}
	return nil
}

// validateDuration validates duration fields.
// Valid values parse with time.ParseDuration and are greater than zero.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// validateRoutePattern validates admission policy routes.
// Valid values: an absolute path ("/auth/login") or a prefix pattern
// ending in "/*" ("/api/*"). The wildcard is only allowed at the end.
func validateRoutePattern(fl validator.FieldLevel) bool {
	route := fl.Field().String()
	if !strings.HasPrefix(route, "/") {
		return false
	}
	if i := strings.Index(route, "*"); i >= 0 {
		return strings.HasSuffix(route, "/*") && i == len(route)-1
	}
	return true
}

// Validate validates the Config using struct tags and custom cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	// Create validator with required struct enabled
	v := validator.New(validator.WithRequiredStructEnabled())

	// Register custom validators
	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	// Run struct validation (tags)
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	// Cross-field validation: redis backend needs an address
	if err := c.validateStorageBackend(); err != nil {
		return err
	}

	// Cross-field validation: policy route uniqueness
	if err := c.validatePolicyRoutes(); err != nil {
		return err
	}

	// Cross-field validation: admin key on non-loopback binds
	if err := c.validateAdminExposure(); err != nil {
		return err
	}

	return nil
}

// validateStorageBackend ensures the redis backend has an address to dial.
func (c *Config) validateStorageBackend() error {
	if c.Storage.Backend == "redis" && c.Storage.Redis.Addr == "" {
		return errors.New("storage.redis.addr is required when storage.backend is \"redis\"")
	}
	return nil
}

// validatePolicyRoutes ensures no route appears in two policies.
// Which of two conflicting limits wins would be load-order luck.
func (c *Config) validatePolicyRoutes() error {
	seen := make(map[string]struct{}, len(c.Admission.Policies))
	for i, p := range c.Admission.Policies {
		if _, dup := seen[p.Route]; dup {
			return fmt.Errorf("admission.policies[%d]: duplicate route %q", i, p.Route)
		}
		seen[p.Route] = struct{}{}
	}
	return nil
}

// validateAdminExposure refuses a config that would expose the admin API
// on a non-loopback address with no API key configured. Localhost binds
// are fine without a key: the localhost bypass covers them.
func (c *Config) validateAdminExposure() error {
	if !c.Admin.Enabled || c.Admin.APIKeyHash != "" {
		return nil
	}
	if isLoopbackBind(c.Server.HTTPAddr) {
		return nil
	}
	return errors.New("admin.api_key_hash is required when the admin API is enabled on a non-loopback address (or set admin.enabled: false)")
}

// isLoopbackBind reports whether the listen address only accepts
// loopback connections. ":8080" and "0.0.0.0:8080" bind all interfaces.
func isLoopbackBind(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			msg := formatSingleValidationError(e)
			messages = append(messages, msg)
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "hostname_rfc1123":
		return fmt.Sprintf("%s must be a valid hostname", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration like \"60s\" or \"1m\"", field)
	case "route_pattern":
		return fmt.Sprintf("%s must be an absolute path, optionally ending in \"/*\"", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
