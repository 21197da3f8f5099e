package identity

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type profileResponse struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

// Lookup resolves ?id= or ?email= to an account for support staff.
func (h *Handler) Lookup(c *fiber.Ctx) error {
	var l Lookup
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "id must be numeric")
		}
		l.AccountID = id
	}
	l.Email = c.Query("email")

	p, err := h.service.Resolve(c.UserContext(), l)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(profileResponse{AccountID: p.AccountID, Email: p.Email, Active: p.Active})
}
