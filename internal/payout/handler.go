package payout

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// Handler triggers correction runs.
type Handler struct {
	corrector *Corrector
}

func NewHandler(corrector *Corrector) *Handler {
	return &Handler{corrector: corrector}
}

// Correct runs one correction pass synchronously and returns its report.
func (h *Handler) Correct(c *fiber.Ctx) error {
	report, err := h.corrector.Run(c.UserContext())
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(report)
}
