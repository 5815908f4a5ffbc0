package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path,
// applies defaults, and validates the result. A missing file is not an
// error; it yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// SKYHOOK_SECTION_FIELD (e.g., SKYHOOK_PROXY_HOST) and always take
// precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies SKYHOOK_* environment variables to cfg.
func applyEnvOverrides(cfg *Config) {
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setPort := func(name string, dst *uint16) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.ParseUint(v, 10, 16); err == nil {
				*dst = uint16(n)
			}
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("SKYHOOK_PROXY_HOST", &cfg.Proxy.Host)
	setPort("SKYHOOK_PROXY_PORT", &cfg.Proxy.Port)
	setString("SKYHOOK_PROXY_KIND", &cfg.Proxy.Kind)

	setDuration("SKYHOOK_TRANSPORT_STEP_TIMEOUT", &cfg.Transport.StepTimeout)
	setDuration("SKYHOOK_TRANSPORT_HANDSHAKE_TIMEOUT", &cfg.Transport.HandshakeTimeout)
	setString("SKYHOOK_TRANSPORT_CA_FILE", &cfg.Transport.CAFile)

	setString("SKYHOOK_STORE_PATH", &cfg.Store.Path)

	setString("SKYHOOK_FORWARD_LISTEN_ADDRESS", &cfg.Forward.ListenAddress)
	setString("SKYHOOK_FORWARD_TARGET_HOST", &cfg.Forward.TargetHost)
	setPort("SKYHOOK_FORWARD_TARGET_PORT", &cfg.Forward.TargetPort)
	setString("SKYHOOK_FORWARD_ADMIN_ADDRESS", &cfg.Forward.AdminAddress)

	setString("SKYHOOK_LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("SKYHOOK_LOG_FORMAT", &cfg.Telemetry.Logging.Format)
}
