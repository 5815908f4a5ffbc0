package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"

	"candor-hq/skyhook/pkg/proxystore"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.host").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the entire configuration and returns a ValidationError if
// any rule fails. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Proxy.Host != "" && len(cfg.Proxy.Host) > proxystore.MaxHostLen {
		errs = append(errs, FieldError{
			Field:   "proxy.host",
			Message: fmt.Sprintf("exceeds %d bytes", proxystore.MaxHostLen),
		})
	}
	switch cfg.Proxy.Kind {
	case "", "none", "http", "socks5":
	default:
		errs = append(errs, FieldError{
			Field:   "proxy.kind",
			Message: fmt.Sprintf("unknown kind %q (expected none, http, or socks5)", cfg.Proxy.Kind),
		})
	}

	if cfg.Store.RetentionSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Store.RetentionSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "store.retention_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	for field, addr := range map[string]string{
		"forward.listen_address": cfg.Forward.ListenAddress,
		"forward.admin_address":  cfg.Forward.AdminAddress,
	} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("invalid host:port address %q", addr),
			})
		}
	}

	switch strings.ToLower(cfg.Telemetry.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Telemetry.Logging.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format),
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
