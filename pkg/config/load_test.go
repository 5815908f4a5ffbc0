package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestLoadConfig_MissingFile tests that an absent file yields the defaults.
func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Transport.StepTimeout != DefaultStepTimeout {
		t.Errorf("StepTimeout = %v, want %v", cfg.Transport.StepTimeout, DefaultStepTimeout)
	}
	if cfg.Forward.ListenAddress != DefaultForwardListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Forward.ListenAddress, DefaultForwardListenAddress)
	}
	if cfg.Store.RetentionSchedule != DefaultRetentionSchedule {
		t.Errorf("RetentionSchedule = %q, want %q", cfg.Store.RetentionSchedule, DefaultRetentionSchedule)
	}
}

// TestLoadConfig_FullFile tests parsing a complete YAML configuration.
func TestLoadConfig_FullFile(t *testing.T) {
	path := writeConfigFile(t, `
proxy:
  host: proxy.corp.example.com
  port: 3128
  kind: socks5
transport:
  step_timeout: 5s
  handshake_timeout: 8s
store:
  path: /tmp/skyhook-test.db
  retention_days: 30
forward:
  listen_address: 127.0.0.1:9000
  target_host: api.example.com
  target_port: 8443
telemetry:
  logging:
    level: debug
    format: json
  metrics_namespace: testns
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Proxy.Host != "proxy.corp.example.com" {
		t.Errorf("Proxy.Host = %q", cfg.Proxy.Host)
	}
	if cfg.Proxy.Port != 3128 {
		t.Errorf("Proxy.Port = %d, want 3128", cfg.Proxy.Port)
	}
	if cfg.Proxy.Kind != "socks5" {
		t.Errorf("Proxy.Kind = %q, want socks5", cfg.Proxy.Kind)
	}
	if cfg.Transport.StepTimeout != 5*time.Second {
		t.Errorf("StepTimeout = %v, want 5s", cfg.Transport.StepTimeout)
	}
	if cfg.Store.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.Store.RetentionDays)
	}
	if cfg.Forward.TargetPort != 8443 {
		t.Errorf("TargetPort = %d, want 8443", cfg.Forward.TargetPort)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.MetricsNamespace != "testns" {
		t.Errorf("MetricsNamespace = %q, want testns", cfg.Telemetry.MetricsNamespace)
	}

	// Unset fields still get defaults.
	if cfg.Transport.WriteRetryLimit != DefaultWriteRetryLimit {
		t.Errorf("WriteRetryLimit = %d, want %d", cfg.Transport.WriteRetryLimit, DefaultWriteRetryLimit)
	}
	if cfg.Forward.AdminAddress != DefaultForwardAdminAddress {
		t.Errorf("AdminAddress = %q, want %q", cfg.Forward.AdminAddress, DefaultForwardAdminAddress)
	}
}

// TestLoadConfig_MalformedYAML tests the parse failure path.
func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "proxy: [not a mapping")

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() with malformed YAML succeeded, want error")
	}
}

// TestLoadConfigWithEnvOverrides tests environment variable precedence.
func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
proxy:
  host: file.corp
  port: 3128
`)

	t.Setenv("SKYHOOK_PROXY_HOST", "env.corp")
	t.Setenv("SKYHOOK_PROXY_PORT", "1080")
	t.Setenv("SKYHOOK_PROXY_KIND", "socks5")
	t.Setenv("SKYHOOK_TRANSPORT_STEP_TIMEOUT", "3s")
	t.Setenv("SKYHOOK_LOG_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}

	if cfg.Proxy.Host != "env.corp" {
		t.Errorf("Proxy.Host = %q, want env.corp", cfg.Proxy.Host)
	}
	if cfg.Proxy.Port != 1080 {
		t.Errorf("Proxy.Port = %d, want 1080", cfg.Proxy.Port)
	}
	if cfg.Proxy.Kind != "socks5" {
		t.Errorf("Proxy.Kind = %q, want socks5", cfg.Proxy.Kind)
	}
	if cfg.Transport.StepTimeout != 3*time.Second {
		t.Errorf("StepTimeout = %v, want 3s", cfg.Transport.StepTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

// TestLoadConfigWithEnvOverrides_InvalidValue tests that a bad override is
// caught by validation.
func TestLoadConfigWithEnvOverrides_InvalidValue(t *testing.T) {
	path := writeConfigFile(t, "")
	t.Setenv("SKYHOOK_PROXY_KIND", "carrier-pigeon")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("LoadConfigWithEnvOverrides() with invalid kind succeeded, want error")
	}
}
