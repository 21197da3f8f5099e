package deposit

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// Handler exposes the gateway webhook.
type Handler struct {
	service *Service
}

// NewHandler constructs a deposit webhook handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Notify settles one gateway notification. Conflicts and outages answer
// 409/503 so the gateway redelivers; duplicates and ignored statuses are 200.
func (h *Handler) Notify(c *fiber.Ctx) error {
	var req RawNotification
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Settle(c.UserContext(), req)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(result))
}
