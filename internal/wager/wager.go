// Package wager stores placed wagers and the payout recorded for each.
package wager

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/ronaldoarch/postenobicho-sub001/internal/money"
)

var ErrNotFound = errors.New("wager not found")

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
)

func ParseOutcome(s string) (Outcome, bool) {
	switch o := Outcome(s); o {
	case OutcomePending, OutcomeWon, OutcomeLost:
		return o, true
	}
	return "", false
}

// Wager is a placed bet. Once PaidOut is true the recorded multiplier and
// expected payout are frozen.
type Wager struct {
	ID                 string
	AccountID          int64
	ModalityCode       string
	ChosenNumber       string
	Stake              int64
	StakeFromBonus     int64
	RecordedMultiplier decimal.Decimal
	ExpectedPayout     int64
	Outcome            Outcome
	PaidOut            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	SettledAt          *time.Time
}

// Reprice returns the payout owed at multiplier.
func (w Wager) Reprice(multiplier decimal.Decimal) int64 {
	return money.Payout(w.Stake, multiplier)
}

// Store is implemented on the pool and inside a unit of work.
type Store interface {
	Insert(ctx context.Context, w Wager) error
	Get(ctx context.Context, id string) (Wager, error)
	// GetForUpdate locks the wager row until the unit ends.
	GetForUpdate(ctx context.Context, id string) (Wager, error)
	MarkSettled(ctx context.Context, id string, outcome Outcome, paidOut bool) (Wager, error)
	// ListUnpaid pages through wagers with PaidOut false in id order.
	ListUnpaid(ctx context.Context, afterID string, limit int) ([]Wager, error)
	// UpdateExpectedPayout rewrites the multiplier and payout only while the
	// wager is still unpaid. It reports whether a row changed.
	UpdateExpectedPayout(ctx context.Context, id string, multiplier decimal.Decimal, payout int64) (bool, error)
}

var (
	entropy   = ulid.Monotonic(rand.Reader, 0)
	entropyMu sync.Mutex
)

// NewID returns a lexicographically sortable wager id.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
