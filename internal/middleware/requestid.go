package middleware

import (
	"insight-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns each request an id (honoring one supplied by
// the caller), echoes it on the response, and stashes a request-scoped logger
// tagged with it for downstream handlers.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(requestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Response().Header().Set(requestIDHeader, rid)

			c.Set("logger", logger.GetLogger().With(zap.String("request_id", rid)))

			return next(c)
		}
	}
}
