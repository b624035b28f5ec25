// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file
// when one exists), loads them into structured Go types, and validates
// that required values are present so they can be reused across the
// application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide defaults for optional values (server timeouts, upstream model, observability).
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: triggers godotenv's autoload feature.
	// If a `.env` file exists, it gets loaded into the process env
	// before any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

/*
	Env vars are read using the prefix SPEECH_RELAY_.

	Keys are normalized: the prefix is removed, the rest is lowercased and
	a double underscore marks one level of nesting, so that single
	underscores can stay inside key names:

	  SPEECH_RELAY_SERVER__READ_TIMEOUT -> server.read_timeout -> Config.Server.ReadTimeout
	  SPEECH_RELAY_AUTH__API_KEY        -> auth.api_key        -> Config.Auth.APIKey
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "SPEECH_RELAY_"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Synthesis     SynthesisConfig      `koanf:"synthesis" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout int    `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"required,min=1"`

	// MetricsPort enables the Prometheus listener when set.
	MetricsPort string `koanf:"metrics_port"`
}

// AuthConfig stores the shared secret callers must present.
type AuthConfig struct {
	APIKey string `koanf:"api_key" validate:"required"`
}

// SynthesisConfig points at the Workers AI text-to-speech model.
type SynthesisConfig struct {
	BaseURL   string `koanf:"base_url" validate:"required,url"`
	AccountID string `koanf:"account_id" validate:"required"`
	APIToken  string `koanf:"api_token" validate:"required"`
	Model     string `koanf:"model" validate:"required"`
}

// DefaultConfig returns the values used for every key the environment leaves unset.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{
			Env: "development",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
		},
		Synthesis: SynthesisConfig{
			BaseURL: "https://api.cloudflare.com/client/v4",
			Model:   "@cf/myshell-ai/melotts",
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey maps SPEECH_RELAY_SERVER__READ_TIMEOUT to server.read_timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from environment variables on top of
// DefaultConfig, validates it and returns the result.
//
// Behavior summary:
//   - Loads env vars with prefix SPEECH_RELAY_
//   - Unmarshals into a Config pre-populated with defaults
//   - Validates required config blocks/fields
//   - Forces observability service name + environment
//   - Validates observability config as well
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "could not load env variables")
	}

	// Keys absent from the environment keep their default value.
	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal main config")
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Telemetry always reports under this service name and the primary env.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid observability config")
	}

	return mainConfig, nil
}
