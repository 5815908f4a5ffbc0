package config

import (
	"time"

	"candor-hq/skyhook/pkg/telemetry/logging"
)

// Config is the root configuration structure for Skyhook.
type Config struct {
	// Proxy contains the compiled-in proxy target defaults. Persisted
	// values set through the admin surface override these at runtime.
	Proxy ProxyConfig `yaml:"proxy"`

	// Transport contains timeouts and TLS settings for outbound
	// connections.
	Transport TransportConfig `yaml:"transport"`

	// Store contains settings for the key-value persistence backend.
	Store StoreConfig `yaml:"store"`

	// Forward contains settings for the local forwarder.
	Forward ForwardConfig `yaml:"forward"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains compiled-in proxy target defaults.
type ProxyConfig struct {
	// Host is the proxy hostname. Empty disables the proxy unless a
	// persisted target exists.
	Host string `yaml:"host"`

	// Port is the proxy TCP port.
	Port uint16 `yaml:"port"`

	// Kind selects the tunnel protocol: "http" (CONNECT) or "socks5".
	// Unrecognized values fall back to "http".
	Kind string `yaml:"kind"`
}

// TransportConfig contains settings for outbound connection establishment.
type TransportConfig struct {
	// StepTimeout bounds each blocking establishment step independently
	// (resolve, connect, each tunnel read/write).
	// Default: 10s
	StepTimeout time.Duration `yaml:"step_timeout"`

	// HandshakeTimeout bounds the TLS handshake.
	// Default: 15s
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	// CAFile is an optional PEM bundle of additional trust anchors.
	CAFile string `yaml:"ca_file"`

	// ReplaceSystemRoots makes CAFile the only trust source instead of
	// extending the system roots.
	ReplaceSystemRoots bool `yaml:"replace_system_roots"`

	// WriteRetryLimit bounds zero-progress write rounds on the secured
	// channel.
	// Default: 64
	WriteRetryLimit int `yaml:"write_retry_limit"`
}

// StoreConfig contains settings for the key-value persistence backend.
type StoreConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/skyhook.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// RetentionDays is how long changelog audit rows are kept.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// RetentionSchedule is a cron expression for changelog pruning.
	// Empty disables scheduled pruning.
	// Default: "0 3 * * *"
	RetentionSchedule string `yaml:"retention_schedule"`
}

// ForwardConfig contains settings for the local forwarder.
type ForwardConfig struct {
	// ListenAddress is where the forwarder accepts local connections.
	// Default: "127.0.0.1:9420"
	ListenAddress string `yaml:"listen_address"`

	// TargetHost is the remote host reached through the tunnel.
	TargetHost string `yaml:"target_host"`

	// TargetPort is the remote TLS port.
	// Default: 443
	TargetPort uint16 `yaml:"target_port"`

	// OpenTimeout bounds each step of a forwarded connection's
	// establishment.
	// Default: 10s
	OpenTimeout time.Duration `yaml:"open_timeout"`

	// AdminAddress is where metrics and health endpoints listen.
	// Default: "127.0.0.1:9421"
	AdminAddress string `yaml:"admin_address"`

	// ShutdownTimeout is the maximum duration for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Logging configures the process-wide structured logger.
	Logging logging.Config `yaml:"logging"`

	// MetricsNamespace prefixes all Prometheus series.
	// Default: "skyhook"
	MetricsNamespace string `yaml:"metrics_namespace"`
}
