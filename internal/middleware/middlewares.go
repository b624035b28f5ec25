package middleware

import (
	"github.com/deppfellow/speech-relay/internal/server"
)

// Middlewares groups all middleware components used by the HTTP server,
// so router setup receives a single object with every dependency wired.
type Middlewares struct {
	// Global holds common middleware used across the whole API:
	// CORS, request logging, recovery, secure headers, and the global error handler.
	Global *GlobalMiddlewares

	// Auth checks the shared API key on protected routes.
	Auth *AuthMiddleware

	// ContextEnhancer enriches each request with a request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// Tracing provides New Relic middleware and helpers to attach custom attributes
	// and notice errors on transactions.
	Tracing *TracingMiddleware
}

// NewMiddlewares constructs all middleware components using the application container.
//
// When New Relic is not configured the tracing middleware degrades into a no-op.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, s.LoggerService.GetApplication()),
	}
}
