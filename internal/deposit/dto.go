package deposit

// Response is returned to the gateway. Money fields are minor units.
type Response struct {
	TransactionID string `json:"transaction_id,omitempty"`
	AccountID     int64  `json:"account_id,omitempty"`
	Amount        int64  `json:"amount"`
	BonusApplied  int64  `json:"bonus_applied"`
	Duplicate     bool   `json:"duplicate"`
	Ignored       bool   `json:"ignored"`
}

func toResponse(r Result) Response {
	return Response{
		TransactionID: r.TransactionID,
		AccountID:     r.AccountID,
		Amount:        r.Amount,
		BonusApplied:  r.BonusApplied,
		Duplicate:     r.Duplicate,
		Ignored:       r.Ignored,
	}
}
