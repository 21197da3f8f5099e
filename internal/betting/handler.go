package betting

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/middleware"
	"github.com/ronaldoarch/postenobicho-sub001/internal/validation"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

// Handler exposes wager placement and settlement.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type placeRequest struct {
	AccountID int64  `json:"account_id" validate:"gt=0"`
	Modality  string `json:"modality" validate:"required,max=64"`
	Number    string `json:"number" validate:"required,numeric,max=8"`
	Stake     int64  `json:"stake" validate:"gt=0"`
}

type settleRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=won lost"`
}

type wagerResponse struct {
	ID                 string `json:"id"`
	AccountID          int64  `json:"account_id"`
	Modality           string `json:"modality"`
	Number             string `json:"number"`
	Stake              int64  `json:"stake"`
	StakeFromBonus     int64  `json:"stake_from_bonus"`
	RecordedMultiplier string `json:"recorded_multiplier"`
	ExpectedPayout     int64  `json:"expected_payout"`
	Outcome            string `json:"outcome"`
	PaidOut            bool   `json:"paid_out"`
}

func toWagerResponse(w wager.Wager) wagerResponse {
	return wagerResponse{
		ID:                 w.ID,
		AccountID:          w.AccountID,
		Modality:           w.ModalityCode,
		Number:             w.ChosenNumber,
		Stake:              w.Stake,
		StakeFromBonus:     w.StakeFromBonus,
		RecordedMultiplier: w.RecordedMultiplier.String(),
		ExpectedPayout:     w.ExpectedPayout,
		Outcome:            string(w.Outcome),
		PaidOut:            w.PaidOut,
	}
}

// Place handles POST /wagers.
func (h *Handler) Place(c *fiber.Ctx) error {
	var req placeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validation.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	principal, ok := middleware.AccountFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "missing principal")
	}
	if req.AccountID != principal {
		return fiber.NewError(http.StatusForbidden, "account does not belong to caller")
	}

	placed, err := h.service.Place(c.UserContext(), PlaceInput{
		AccountID:    req.AccountID,
		ModalityCode: req.Modality,
		Number:       req.Number,
		Stake:        req.Stake,
	})
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wager":            toWagerResponse(placed.Wager),
		"transaction_id":   placed.TransactionID,
		"rollover_cleared": placed.Rollover.Cleared,
		"bonus_released":   placed.BonusReleased,
	})
}

// Settle handles POST /admin/wagers/:wagerId/settle.
func (h *Handler) Settle(c *fiber.Ctx) error {
	var req settleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validation.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	outcome, _ := wager.ParseOutcome(req.Outcome)

	settled, err := h.service.Settle(c.UserContext(), c.Params("wagerId"), outcome)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wager":           toWagerResponse(settled.Wager),
		"transaction_id":  settled.TransactionID,
		"already_settled": settled.AlreadySettled,
	})
}
