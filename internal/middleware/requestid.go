package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// RequestID ensures each request has a stable identifier and attaches a
// logger carrying it to the request's user context.
func RequestID(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals(requestIDHeader, reqID)

		scoped := logger.With().Str("request_id", reqID).Logger()
		c.SetUserContext(scoped.WithContext(c.UserContext()))
		return c.Next()
	}
}
