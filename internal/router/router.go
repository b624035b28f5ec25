// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and maps the relay endpoint
// to its handler
package router

import (
	"github.com/deppfellow/speech-relay/internal/handler"
	"github.com/deppfellow/speech-relay/internal/middleware"
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance serving the public listener.
//
// Middleware order (outermost first):
//  1. CORS, before routing, so OPTIONS on any path is answered directly
//  2. New Relic transaction + request id + trace attributes
//  3. request-scoped logger, request log line, panic recovery, secure headers
//  4. route-level API key check
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Pre(middlewares.Global.CORS())

	router.Use(
		middlewares.Tracing.NewRelicMiddleware(),
		middleware.RequestID(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
	)

	registerSpeechRoutes(router, h, middlewares)

	return router
}
