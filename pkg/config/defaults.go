package config

import "time"

// Default values for configuration fields.
const (
	// Transport defaults
	DefaultStepTimeout      = 10 * time.Second
	DefaultHandshakeTimeout = 15 * time.Second
	DefaultWriteRetryLimit  = 64

	// Store defaults
	DefaultStorePath         = "data/skyhook.db"
	DefaultStoreBusyTimeout  = 5 * time.Second
	DefaultRetentionDays     = 90
	DefaultRetentionSchedule = "0 3 * * *"

	// Forward defaults
	DefaultForwardListenAddress = "127.0.0.1:9420"
	DefaultForwardTargetPort    = 443
	DefaultForwardOpenTimeout   = 10 * time.Second
	DefaultForwardAdminAddress  = "127.0.0.1:9421"
	DefaultShutdownTimeout      = 10 * time.Second

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultMetricsNamespace = "skyhook"
)

// ApplyDefaults fills unset configuration fields with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Proxy.Kind == "" {
		cfg.Proxy.Kind = "http"
	}

	if cfg.Transport.StepTimeout <= 0 {
		cfg.Transport.StepTimeout = DefaultStepTimeout
	}
	if cfg.Transport.HandshakeTimeout <= 0 {
		cfg.Transport.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.Transport.WriteRetryLimit <= 0 {
		cfg.Transport.WriteRetryLimit = DefaultWriteRetryLimit
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Store.BusyTimeout <= 0 {
		cfg.Store.BusyTimeout = DefaultStoreBusyTimeout
	}
	if cfg.Store.RetentionDays <= 0 {
		cfg.Store.RetentionDays = DefaultRetentionDays
	}
	if cfg.Store.RetentionSchedule == "" {
		cfg.Store.RetentionSchedule = DefaultRetentionSchedule
	}

	if cfg.Forward.ListenAddress == "" {
		cfg.Forward.ListenAddress = DefaultForwardListenAddress
	}
	if cfg.Forward.TargetPort == 0 {
		cfg.Forward.TargetPort = DefaultForwardTargetPort
	}
	if cfg.Forward.OpenTimeout <= 0 {
		cfg.Forward.OpenTimeout = DefaultForwardOpenTimeout
	}
	if cfg.Forward.AdminAddress == "" {
		cfg.Forward.AdminAddress = DefaultForwardAdminAddress
	}
	if cfg.Forward.ShutdownTimeout <= 0 {
		cfg.Forward.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.MetricsNamespace == "" {
		cfg.Telemetry.MetricsNamespace = DefaultMetricsNamespace
	}
}
