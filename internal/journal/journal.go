// Package journal is the append-only record of balance-affecting events. It
// is the source of truth for deduplication and audit.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("transaction record not found")

type Kind string

const (
	KindDeposit      Kind = "deposit"
	KindWithdrawal   Kind = "withdrawal"
	KindManualCredit Kind = "manual_credit"
	KindWagerStake   Kind = "wager_stake"
	KindWagerPayout  Kind = "wager_payout"
	KindBonusRelease Kind = "bonus_release"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the record can no longer change.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// Record is one journal entry. Amount is positive; Kind carries the direction.
type Record struct {
	ID                string
	AccountID         int64
	Kind              Kind
	Status            Status
	Amount            int64
	BonusApplied      int64
	RolloverImposed   int64
	ExternalReference string
	Description       string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
}

// Journal is implemented on the pool (committed reads) and inside a unit of
// work (writes paired with ledger mutations).
type Journal interface {
	// Append writes rec as pending and returns its id.
	Append(ctx context.Context, rec Record) (string, error)
	// MarkPaid and MarkFailed resolve a pending record. On an already resolved
	// record they return its terminal status without error.
	MarkPaid(ctx context.Context, id string) (Status, error)
	MarkFailed(ctx context.Context, id string) (Status, error)
	Get(ctx context.Context, id string) (Record, error)
	FindPaidByExternalReference(ctx context.Context, kind Kind, ref string) (Record, bool, error)
	CountPaid(ctx context.Context, accountID int64, kind Kind) (int, error)
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]Record, error)
}
