package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/identity"
)

// RegisterIdentityRoutes wires the support lookup. Mounted under /admin.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/accounts/lookup", h.Lookup)
}
