package middleware

import (
	"crypto/subtle"
	"time"

	"github.com/deppfellow/speech-relay/internal/errs"
	"github.com/deppfellow/speech-relay/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	// APIKeyHeader is the primary credential header.
	APIKeyHeader = "X-Api-Key"

	// AuthorizationHeader is consulted only when APIKeyHeader is absent or empty.
	// Its value is compared as-is, there is no "Bearer" scheme parsing.
	AuthorizationHeader = echo.HeaderAuthorization
)

// AuthMiddleware holds the app Server so middleware can access shared deps
// like Logger and Config.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// CredentialFromRequest returns X-Api-Key, or Authorization when X-Api-Key is empty.
func CredentialFromRequest(c echo.Context) string {
	if key := c.Request().Header.Get(APIKeyHeader); key != "" {
		return key
	}
	return c.Request().Header.Get(AuthorizationHeader)
}

// RequireAPIKey is an Echo middleware that enforces the shared secret.
//
// A missing credential and a wrong one both yield the same 401.
// The comparison is exact equality, done in constant time.
func (auth *AuthMiddleware) RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		provided := CredentialFromRequest(c)
		expected := auth.server.Config.Auth.APIKey

		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			GetLogger(c).Warn().
				Str("function", "RequireAPIKey").
				Bool("credential_present", provided != "").
				Dur("duration", time.Since(start)).
				Msg("rejected request with invalid or missing API key")

			return errs.NewUnauthorizedError(errs.MessageUnauthorized)
		}

		c.Set(AuthenticatedKey, true)

		return next(c)
	}
}
