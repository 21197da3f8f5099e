package credit

// GrantRequest is the admin payload. Amount is in minor units.
type GrantRequest struct {
	Amount      int64  `json:"amount" validate:"gt=0"`
	Description string `json:"description" validate:"max=255"`
}

// GrantResponse reports the balance around the credit.
type GrantResponse struct {
	TransactionID string `json:"transaction_id"`
	AccountID     int64  `json:"account_id"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
}

func toResponse(r Result) GrantResponse {
	return GrantResponse{
		TransactionID: r.TransactionID,
		AccountID:     r.AccountID,
		Amount:        r.Amount,
		BalanceBefore: r.BalanceBefore,
		BalanceAfter:  r.BalanceAfter,
	}
}
