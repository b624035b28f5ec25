// Package logger configure the application's logging,
// monitoring, and observability.
//
// It uses *ZeroLog* for logging and integrates with
// *New Relic* to instrument the codebase, forwarding logs,
// metrics, and traces for debugging
package logger

import (
	"io"
	"os"
	"time"

	"github.com/deppfellow/speech-relay/internal/config"
	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// shutdownTimeout bounds how long the agent may spend flushing on exit.
const shutdownTimeout = 10 * time.Second

// LoggerService owns the optional New Relic application.
//
// A LoggerService always exists; when New Relic is not configured
// GetApplication returns nil and every integration degrades to a no-op.
type LoggerService struct {
	nrApp *newrelic.Application
}

// NewLoggerService starts the New Relic application when a license key is configured.
//
// A failing agent never blocks startup: the error is reported on stderr
// and the service continues without APM.
func NewLoggerService(cfg *config.ObservabilityConfig) *LoggerService {
	service := &LoggerService{}

	if !cfg.NewRelicEnabled() {
		return service
	}

	options := []newrelic.ConfigOption{
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(cfg.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(cfg.NewRelic.DistributedTracingEnabled),
		newrelic.ConfigCodeLevelMetricsEnabled(true),
	}

	if cfg.NewRelic.DebugLogging {
		options = append(options, newrelic.ConfigDebugLogger(os.Stdout))
	}

	app, err := newrelic.NewApplication(options...)
	if err != nil {
		bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootstrap.Error().Err(err).Msg("failed to initialize New Relic, continuing without APM")
		return service
	}

	service.nrApp = app
	return service
}

// GetApplication returns the New Relic application, or nil when disabled.
func (ls *LoggerService) GetApplication() *newrelic.Application {
	if ls == nil {
		return nil
	}
	return ls.nrApp
}

// Shutdown flushes pending telemetry.
func (ls *LoggerService) Shutdown() {
	if ls != nil && ls.nrApp != nil {
		ls.nrApp.Shutdown(shutdownTimeout)
	}
}

// NewLogger creates a logger without New Relic integration.
func NewLogger(cfg *config.ObservabilityConfig) zerolog.Logger {
	return NewLoggerWithService(cfg, nil)
}

// NewLoggerWithService builds the application logger.
//
// Output:
//   - json format or production: JSON lines on stdout
//   - console format outside production: human-friendly console writer
//
// With a live New Relic application and log forwarding enabled,
// JSON output goes through the New Relic zerolog writer.
func NewLoggerWithService(cfg *config.ObservabilityConfig, loggerService *LoggerService) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var writer io.Writer = os.Stdout

	if app := loggerService.GetApplication(); app != nil && cfg.NewRelic.AppLogForwardingEnabled {
		writer = zerologWriter.New(os.Stdout, app)
	} else if !cfg.IsProduction() && cfg.Logging.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()
}

// WithTraceContext adds trace.id and span.id of the transaction to the logger.
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}

	metadata := txn.GetTraceMetadata()
	if metadata.TraceID == "" {
		return logger
	}

	return logger.With().
		Str("trace.id", metadata.TraceID).
		Str("span.id", metadata.SpanID).
		Logger()
}
