package credit

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/validation"
)

// Handler exposes the admin credit endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a credit handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Grant credits :accountId.
func (h *Handler) Grant(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("accountId")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	var req GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validation.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Grant(c.UserContext(), Input{
		AccountID:   int64(accountID),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(result))
}
