package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/middleware"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wallet"
)

// RegisterWalletRoutes wires the account read side and withdrawals. auth must
// authenticate the caller; each route then checks the caller owns :accountId.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, auth fiber.Handler) {
	owner := middleware.OwnAccount("accountId")
	r.Get("/accounts/:accountId/balance", auth, owner, h.Balance)
	r.Get("/accounts/:accountId/transactions", auth, owner, h.Transactions)
	r.Post("/accounts/:accountId/withdrawals", auth, owner, h.Withdraw)
}
