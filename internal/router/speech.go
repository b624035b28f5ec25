package router

import (
	"github.com/deppfellow/speech-relay/internal/handler"
	"github.com/deppfellow/speech-relay/internal/middleware"
	"github.com/labstack/echo/v4"
)

// registerSpeechRoutes mounts the relay on every path.
//
// Only POST is registered; Echo answers any other method on a known path
// with 405, which the global error handler renders as "Method not allowed".
func registerSpeechRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	generate := h.Speech.Generate()

	r.POST("/", generate, m.Auth.RequireAPIKey)
	r.POST("/*", generate, m.Auth.RequireAPIKey)
}
