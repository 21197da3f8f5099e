package deposit

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/money"
	"github.com/ronaldoarch/postenobicho-sub001/internal/validation"
)

// RawNotification is the gateway payload as delivered. Amount is in major
// units (e.g. 50.25) and may arrive as a JSON number or string.
type RawNotification struct {
	Amount     json.Number `json:"amount" validate:"required"`
	Status     string      `json:"status" validate:"required"`
	ExternalID string      `json:"externalId" validate:"omitempty,max=128"`
	UserID     int64       `json:"userId" validate:"required_without=Email,omitempty,gt=0"`
	Email      string      `json:"email" validate:"required_without=UserID,omitempty,email"`
}

// Notification is the result of parsing a RawNotification: either *Paid or
// *Ignored. Nothing downstream sees the raw payload.
type Notification interface {
	notification()
}

// Paid is a validated payment confirmation.
type Paid struct {
	Amount            int64
	ExternalReference string
	AccountID         int64
	Email             string
}

// Ignored is an acknowledged notification that must not move money.
type Ignored struct {
	Status            string
	ExternalReference string
}

func (*Paid) notification()    {}
func (*Ignored) notification() {}

var paidStatuses = map[string]struct{}{
	"paid": {},
	"pago": {},
}

// IsPaidStatus reports whether a gateway status means the money arrived.
func IsPaidStatus(status string) bool {
	_, ok := paidStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// Parse validates raw. Statuses other than paid/pago are Ignored regardless
// of the rest of the payload; paid notifications must carry a positive
// amount and an account id or email.
func Parse(raw RawNotification) (Notification, error) {
	raw.Status = strings.TrimSpace(raw.Status)
	raw.ExternalID = strings.TrimSpace(raw.ExternalID)
	raw.Email = strings.TrimSpace(raw.Email)

	if raw.Status == "" {
		return nil, apperr.Invalid("status is required")
	}
	if !IsPaidStatus(raw.Status) {
		return &Ignored{Status: raw.Status, ExternalReference: raw.ExternalID}, nil
	}

	if err := validation.Struct(raw); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(raw.Amount.String())
	if err != nil {
		return nil, apperr.Invalid("amount %q is not a number", raw.Amount)
	}
	if !amount.IsPositive() {
		return nil, apperr.Invalid("amount must be positive")
	}
	minor, err := money.FromMajor(amount)
	if err != nil {
		return nil, apperr.Invalid("%v", err)
	}

	return &Paid{
		Amount:            minor,
		ExternalReference: raw.ExternalID,
		AccountID:         raw.UserID,
		Email:             raw.Email,
	}, nil
}
