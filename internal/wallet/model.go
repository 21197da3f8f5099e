package wallet

import "time"

// Balance is the read-side view of an account. Money fields are minor units.
type Balance struct {
	AccountID        int64
	Balance          int64
	BonusBalance     int64
	RolloverRequired int64
	Withdrawable     int64
	Active           bool
	AsOf             time.Time
}

// WithdrawInput captures a withdrawal request. ExternalReference is the
// payout gateway id; when present the withdrawal is idempotent on it.
type WithdrawInput struct {
	AccountID         int64
	Amount            int64
	ExternalReference string
}

// WithdrawResult reports a withdrawal attempt.
type WithdrawResult struct {
	TransactionID string
	Status        string
	BalanceAfter  int64
	Duplicate     bool
}
