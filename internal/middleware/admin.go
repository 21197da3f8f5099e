package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const adminKeyHeader = "X-Admin-Key"

// AdminKey admits requests whose X-Admin-Key matches the bcrypt hash. With
// an empty hash every admin request is refused.
func AdminKey(hash string, logger zerolog.Logger) fiber.Handler {
	hashed := []byte(strings.TrimSpace(hash))
	return func(c *fiber.Ctx) error {
		if len(hashed) == 0 {
			return fiber.NewError(http.StatusServiceUnavailable, "admin api disabled")
		}
		key := c.Get(adminKeyHeader)
		if key == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing admin key")
		}
		if err := bcrypt.CompareHashAndPassword(hashed, []byte(key)); err != nil {
			logger.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("admin key rejected")
			return fiber.NewError(http.StatusUnauthorized, "invalid admin key")
		}
		return c.Next()
	}
}
