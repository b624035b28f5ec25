package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// RequestIDHeader carries the correlation id in both directions.
	RequestIDHeader = echo.HeaderXRequestID

	// RequestIDKey stores the id in the Echo context.
	RequestIDKey = "request_id"

	maxRequestIDLength = 128
)

// RequestID reuses a caller supplied X-Request-ID when it is a short printable
// token and mints a UUID otherwise. The id is echoed on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if !validRequestID(id) {
				id = uuid.NewString()
			}

			c.Set(RequestIDKey, id)
			c.Response().Header().Set(RequestIDHeader, id)

			return next(c)
		}
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}

	return true
}

// GetRequestID returns the id of the request, or "" outside the middleware.
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(RequestIDKey).(string)
	return id
}
