// Package server defines the core Server struct that composes the app's main dependencies.
//
// It contains the initialization logic to spin up the HTTP server
// and handles graceful shutdowns
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - the speech synthesizer (Workers AI client)
//   - the public http.Server and the optional metrics http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/speech-relay/internal/config"
	"github.com/deppfellow/speech-relay/internal/lib/workersai"
	"github.com/deppfellow/speech-relay/internal/metrics"
	"github.com/deppfellow/speech-relay/internal/model"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/speech-relay/internal/logger"
)

// Server is the application container that holds shared resources.
//
// It is not the HTTP server itself. It holds:
//   - the config
//   - the logger(s)
//   - the synthesizer every request delegates to
//   - the *http.Server instances used to listen and serve requests
type Server struct {
	// Config holds all environment/config values for the app.
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	LoggerService *loggerPkg.LoggerService

	// Synthesizer is the upstream text-to-speech collaborator.
	Synthesizer model.Synthesizer

	httpServer    *http.Server
	metricsServer *http.Server
}

// New constructs a Server and initializes core dependencies.
//
// It does NOT start listening. That is done in SetupHTTPServer + Start.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	// Outbound calls are traced as external segments when New Relic is on.
	httpClient := &http.Client{}
	if loggerService.GetApplication() != nil {
		httpClient.Transport = newrelic.NewRoundTripper(http.DefaultTransport)
	}

	synthesizer := workersai.NewClient(httpClient, &cfg.Synthesis, logger)

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Synthesizer:   synthesizer,
	}, nil
}

// SetupHTTPServer configures the internal net/http servers.
//
// The router is passed in as handler. The metrics listener is only
// created when a metrics port is configured.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: handler,

		// Config stores int values, interpreted here as seconds.
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}

	if s.Config.Server.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())

		s.metricsServer = &http.Server{
			Addr:              ":" + s.Config.Server.MetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
}

// Start runs the HTTP server. It blocks until the server stops.
//
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	if s.metricsServer != nil {
		go func() {
			s.Logger.Info().
				Str("port", s.Config.Server.MetricsPort).
				Msg("starting metrics server")

			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.Logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the servers and flushes telemetry.
//
// In-flight requests are allowed to finish until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown metrics server: %w", err)
		}
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	s.LoggerService.Shutdown()

	return nil
}
