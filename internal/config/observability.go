package config

import (
	"fmt"
)

// ServiceName identifies this service in logs and APM dashboards.
const ServiceName = "speech-relay"

// ObservabilityConfig groups all configuration related to telemetry and runtime visibility.
//
// This includes:
//   - logging settings (format, level)
//   - APM/tracing provider settings (New Relic here)
//
// It is embedded under Config.Observability and optional at the root level.
// If omitted, defaults are injected.
type ObservabilityConfig struct {
	// ServiceName identifies this service in logs/traces/APM dashboards.
	// It is forced to ServiceName when the config is loaded.
	ServiceName string `koanf:"service_name"`

	// Environment labels telemetry by environment (production, development, ...).
	Environment string `koanf:"environment"`

	// Logging config controls structured logger behavior.
	Logging LoggingConfig `koanf:"logging"`

	// NewRelic config controls APM and tracing features.
	NewRelic NewRelicConfig `koanf:"new_relic"`
}

// LoggingConfig holds application logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	// Empty means "pick by environment", see GetLogLevel.
	Level string `koanf:"level"`

	// Format selects the output format: "json" or "console".
	Format string `koanf:"format"`
}

// NewRelicConfig holds configuration for New Relic APM and tracing.
//
// An empty LicenseKey disables New Relic entirely.
type NewRelicConfig struct {
	LicenseKey string `koanf:"license_key"`

	// AppLogForwardingEnabled forwards application logs to New Relic.
	AppLogForwardingEnabled bool `koanf:"app_log_forwarding_enabled"`

	// DistributedTracingEnabled lets requests be traced across service boundaries.
	DistributedTracingEnabled bool `koanf:"distributed_tracing_enabled"`

	// DebugLogging enables debug output of the agent itself.
	DebugLogging bool `koanf:"debug_logging"`
}

// DefaultObservabilityConfig provides the defaults used when
// Config.Observability is not provided.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName: ServiceName,
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "",
			Format: "json",
		},
		NewRelic: NewRelicConfig{
			LicenseKey:                "",
			AppLogForwardingEnabled:   true,
			DistributedTracingEnabled: true,
			DebugLogging:              false, // mixed log formats otherwise
		},
	}
}

// Validate applies rules that go beyond struct tags.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if level := c.GetLogLevel(); !validLevels[level] {
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (must be one of: json, console)", c.Logging.Format)
	}

	return nil
}

// GetLogLevel returns the effective log level to use at runtime.
//
// An explicitly configured level always wins. Otherwise production
// defaults to "info" and everything else to "debug".
func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level != "" {
		return c.Logging.Level
	}

	if c.IsProduction() {
		return "info"
	}

	return "debug"
}

// IsProduction reports whether the application is running in production mode.
func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}

// NewRelicEnabled reports whether a New Relic application should be started.
func (c *ObservabilityConfig) NewRelicEnabled() bool {
	return c.NewRelic.LicenseKey != ""
}
