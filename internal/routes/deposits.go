package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/deposit"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
)

// RegisterDepositRoutes wires the payment gateway webhook.
func RegisterDepositRoutes(r fiber.Router, h *deposit.Handler, limiter fiber.Handler) {
	r.Post("/webhooks/deposits", limiter, h.Notify)
}

// RegisterQuotationRoutes wires the public multiplier lookup.
func RegisterQuotationRoutes(r fiber.Router, h *quotation.Handler) {
	r.Get("/quotations/resolve", h.Resolve)
}
