package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const localAccountID = "account_id"

// AccountAuth verifies HS256 bearer tokens minted by the upstream login
// service. The token subject is the account id the caller acts as. With an
// empty secret every account request is refused.
func AccountAuth(secret string, logger zerolog.Logger) fiber.Handler {
	key := []byte(strings.TrimSpace(secret))
	return func(c *fiber.Ctx) error {
		if len(key) == 0 {
			return fiber.NewError(http.StatusServiceUnavailable, "account api disabled")
		}
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		raw := strings.TrimSpace(authz[len("Bearer "):])

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			logger.Warn().Err(err).Str("ip", c.IP()).Str("path", c.Path()).Msg("account token rejected")
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || id <= 0 {
			return fiber.NewError(http.StatusUnauthorized, "invalid token subject")
		}

		c.Locals(localAccountID, id)
		return c.Next()
	}
}

// AccountFromContext returns the account authenticated by AccountAuth.
func AccountFromContext(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(localAccountID).(int64)
	return id, ok && id > 0
}

// OwnAccount rejects requests whose route parameter names an account other
// than the authenticated one. It must run after AccountAuth.
func OwnAccount(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := AccountFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing principal")
		}
		if c.Params(param) != strconv.FormatInt(principal, 10) {
			return fiber.NewError(http.StatusForbidden, "account does not belong to caller")
		}
		return c.Next()
	}
}
