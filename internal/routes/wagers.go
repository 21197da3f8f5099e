package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/betting"
	"github.com/ronaldoarch/postenobicho-sub001/internal/credit"
	"github.com/ronaldoarch/postenobicho-sub001/internal/payout"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
)

// RegisterWagerRoutes wires wager placement behind account authentication.
func RegisterWagerRoutes(r fiber.Router, h *betting.Handler, auth fiber.Handler) {
	r.Post("/wagers", auth, h.Place)
}

// AdminHandlers groups the operator endpoints.
type AdminHandlers struct {
	Credits    *credit.Handler
	Wagers     *betting.Handler
	Payouts    *payout.Handler
	Quotations *quotation.Handler
}

// RegisterAdminRoutes wires operator endpoints onto an authenticated group.
func RegisterAdminRoutes(r fiber.Router, h AdminHandlers) {
	r.Post("/accounts/:accountId/credits", h.Credits.Grant)
	r.Post("/wagers/:wagerId/settle", h.Wagers.Settle)
	r.Post("/payouts/corrections", h.Payouts.Correct)
	r.Post("/quotations/refresh", h.Quotations.Refresh)
}
