package middleware

import (
	"net/http"

	"github.com/deppfellow/speech-relay/internal/errs"
	"github.com/deppfellow/speech-relay/internal/metrics"
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// CORS response values, sent on every response.
const (
	CORSAllowOrigin  = "*"
	CORSAllowMethods = "POST, OPTIONS"
	CORSAllowHeaders = "Content-Type, X-Api-Key, Authorization"
)

// GlobalMiddlewares groups "global" middleware and the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS sets the CORS header set on every response and answers preflight
// requests itself.
//
// It must be installed with Echo#Pre so it runs before routing: an OPTIONS
// request to any path gets 200 with an empty body and nothing else runs.
// Echo's own CORS middleware is not used because it only emits headers when
// the request carries an Origin, and answers preflight with 204.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			header.Set(echo.HeaderAccessControlAllowOrigin, CORSAllowOrigin)
			header.Set(echo.HeaderAccessControlAllowMethods, CORSAllowMethods)
			header.Set(echo.HeaderAccessControlAllowHeaders, CORSAllowHeaders)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}

// RequestLogger returns Echo's request logger middleware with a zerolog sink.
//
// It produces one "API" log line per request, with severity based on status,
// and counts the request in the metrics.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// The global error handler writes the final status after this
			// middleware returns, so derive it from the error.
			// Reference: https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode = StatusFromError(v.Error)
			}

			metrics.ObserveRequest(statusCode)

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := GetRequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover returns Echo's panic recovery middleware.
// A recovered panic reaches the global error handler as a 500.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// StatusFromError returns the status the global error handler will answer err with.
func StatusFromError(err error) int {
	return toHTTPError(err).Status
}

// toHTTPError classifies any error into the response taxonomy:
//   - *errs.HTTPError: returned as is
//   - Echo's 405: Method not allowed
//   - other Echo errors: their status and message
//   - anything else: the generic synthesis failure with the error as details
func toHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusMethodNotAllowed {
			return errs.NewMethodNotAllowedError()
		}

		message, _ := echoErr.Message.(string)
		return errs.NewHTTPError(echoErr.Code, message)
	}

	return errs.NewSynthesisError(err)
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
// Every error ends up here and is written as the JSON error body.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	httpErr := toHTTPError(err)

	logger := *GetLogger(c)

	event := logger.Warn()
	if httpErr.Status >= http.StatusInternalServerError {
		event = logger.Error().Stack()
	}

	event.
		Err(err).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	if c.Response().Committed {
		return
	}

	if writeErr := c.JSON(httpErr.Status, httpErr); writeErr != nil {
		logger.Error().Err(writeErr).Msg("failed to write error response")
	}
}
