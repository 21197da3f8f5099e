package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/validation"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type withdrawRequest struct {
	Amount            int64  `json:"amount" validate:"gt=0"`
	ExternalReference string `json:"external_reference" validate:"max=128"`
}

type withdrawResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	BalanceAfter  int64  `json:"balance_after"`
	Duplicate     bool   `json:"duplicate"`
}

type transactionResponse struct {
	ID                string     `json:"id"`
	Kind              string     `json:"kind"`
	Status            string     `json:"status"`
	Amount            int64      `json:"amount"`
	BonusApplied      int64      `json:"bonus_applied"`
	ExternalReference string     `json:"external_reference,omitempty"`
	Description       string     `json:"description,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

func accountID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("accountId")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	return int64(id), nil
}

// Balance returns the account balances.
func (h *Handler) Balance(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), id)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":        balance.AccountID,
		"balance":           balance.Balance,
		"bonus_balance":     balance.BonusBalance,
		"rollover_required": balance.RolloverRequired,
		"withdrawable":      balance.Withdrawable,
		"active":            balance.Active,
		"timestamp":         balance.AsOf,
	})
}

// Transactions returns the journal of an account, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	records, err := h.service.Transactions(c.UserContext(), id, c.QueryInt("limit", defaultHistoryLimit))
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	out := make([]transactionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toTransaction(r))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Withdraw debits the account. Insufficient funds answer 422 with the id of
// the failed record.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validation.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Withdraw(c.UserContext(), WithdrawInput{
		AccountID:         id,
		Amount:            req.Amount,
		ExternalReference: req.ExternalReference,
	})
	if errors.Is(err, apperr.ErrInsufficientFunds) {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":          err.Error(),
			"transaction_id": res.TransactionID,
			"status":         res.Status,
		})
	}
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	return c.Status(status).JSON(withdrawResponse{
		TransactionID: res.TransactionID,
		Status:        res.Status,
		BalanceAfter:  res.BalanceAfter,
		Duplicate:     res.Duplicate,
	})
}

func toTransaction(r journal.Record) transactionResponse {
	return transactionResponse{
		ID:                r.ID,
		Kind:              string(r.Kind),
		Status:            string(r.Status),
		Amount:            r.Amount,
		BonusApplied:      r.BonusApplied,
		ExternalReference: r.ExternalReference,
		Description:       r.Description,
		CreatedAt:         r.CreatedAt,
		ResolvedAt:        r.ResolvedAt,
	}
}
