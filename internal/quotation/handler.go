package quotation

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes multiplier lookups and catalog refresh over HTTP.
type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Resolve answers GET /quotations/resolve?type=milhar&number=4732&modality=Milhar.
func (h *Handler) Resolve(c *fiber.Ctx) error {
	kind, err := ParseKind(c.Query("type"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	modality := c.Query("modality")
	number := c.Query("number")

	mult, err := h.resolver.ResolveMultiplier(kind, number, modality)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownModality):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	normalized, _ := Normalize(kind, number)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"type":       string(kind),
		"number":     normalized,
		"modality":   modality,
		"multiplier": mult.String(),
	})
}

// Refresh reloads the catalog from the database.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	if err := h.resolver.Refresh(c.UserContext()); err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"loaded_at": h.resolver.Snapshot().LoadedAt(),
	})
}
