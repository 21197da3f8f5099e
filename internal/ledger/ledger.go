// Package ledger owns the per-account balances. Every mutation goes through a
// Book bound to an account the caller has already locked.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// Account is the mutable money state of one player. All money fields are
// minor units and never negative at rest.
type Account struct {
	ID               int64
	Email            string
	Balance          int64
	BonusBalance     int64
	RolloverRequired int64
	Active           bool
	Version          int64
	UpdatedAt        time.Time
}

// Withdrawable is the part of the account that may leave the platform.
func (a Account) Withdrawable() int64 {
	return a.Balance
}

func (a Account) validate() error {
	if a.Balance < 0 || a.BonusBalance < 0 || a.RolloverRequired < 0 {
		return fmt.Errorf("account %d: negative money field (balance=%d bonus=%d rollover=%d)",
			a.ID, a.Balance, a.BonusBalance, a.RolloverRequired)
	}
	return nil
}

// Writer persists the next state of an account. Implementations must reject
// the write with apperr.ErrConflict when next.Version no longer matches the
// stored version, and return the account with its new version.
type Writer interface {
	SaveAccount(ctx context.Context, next Account) (Account, error)
}

// RolloverChange reports a rollover reduction. Cleared is true only on the
// transition from a positive requirement to zero.
type RolloverChange struct {
	Before  int64
	After   int64
	Cleared bool
}

// StakeSplit is how a stake was drawn from the two balances.
type StakeSplit struct {
	FromBalance int64
	FromBonus   int64
}

// Book applies mutations to one locked account inside a unit of work.
type Book struct {
	acct Account
	w    Writer
}

func NewBook(acct Account, w Writer) *Book {
	return &Book{acct: acct, w: w}
}

// Account returns the state as of the last successful mutation.
func (b *Book) Account() Account {
	return b.acct
}

// CreditDeposit adds a paid deposit plus any bonus and rollover it carries.
func (b *Book) CreditDeposit(ctx context.Context, amount, bonus, rollover int64) (Account, error) {
	if amount <= 0 {
		return Account{}, apperr.Invalid("deposit amount must be positive")
	}
	if bonus < 0 || rollover < 0 {
		return Account{}, apperr.Invalid("bonus and rollover must not be negative")
	}
	next := b.acct
	next.Balance += amount
	if bonus > 0 {
		next.BonusBalance += bonus
		next.RolloverRequired += rollover
	}
	return b.apply(ctx, next)
}

// CreditManual adds an admin credit. It never touches bonus state.
func (b *Book) CreditManual(ctx context.Context, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, apperr.Invalid("credit amount must be positive")
	}
	next := b.acct
	next.Balance += amount
	return b.apply(ctx, next)
}

// CreditPayout adds the payout of a winning wager.
func (b *Book) CreditPayout(ctx context.Context, amount int64) (Account, error) {
	if amount < 0 {
		return Account{}, apperr.Invalid("payout must not be negative")
	}
	if amount == 0 {
		return b.acct, nil
	}
	next := b.acct
	next.Balance += amount
	return b.apply(ctx, next)
}

// DebitWithdrawal removes withdrawable funds. Bonus balance is never withdrawable.
func (b *Book) DebitWithdrawal(ctx context.Context, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, apperr.Invalid("withdrawal amount must be positive")
	}
	if amount > b.acct.Balance {
		return Account{}, apperr.ErrInsufficientFunds
	}
	next := b.acct
	next.Balance -= amount
	return b.apply(ctx, next)
}

// DebitStake takes a wager stake from the balance first and the bonus
// balance for the remainder.
func (b *Book) DebitStake(ctx context.Context, stake int64) (StakeSplit, error) {
	if stake <= 0 {
		return StakeSplit{}, apperr.Invalid("stake must be positive")
	}
	if stake > b.acct.Balance+b.acct.BonusBalance {
		return StakeSplit{}, apperr.ErrInsufficientFunds
	}
	split := StakeSplit{FromBalance: min(stake, b.acct.Balance)}
	split.FromBonus = stake - split.FromBalance

	next := b.acct
	next.Balance -= split.FromBalance
	next.BonusBalance -= split.FromBonus
	if _, err := b.apply(ctx, next); err != nil {
		return StakeSplit{}, err
	}
	return split, nil
}

// ReduceRollover counts wagered volume against the rollover requirement,
// clamping at zero.
func (b *Book) ReduceRollover(ctx context.Context, stake int64) (RolloverChange, error) {
	if stake < 0 {
		return RolloverChange{}, apperr.Invalid("stake must not be negative")
	}
	change := RolloverChange{Before: b.acct.RolloverRequired}
	change.After = max(0, change.Before-stake)
	change.Cleared = change.Before > 0 && change.After == 0
	if change.After == change.Before {
		return change, nil
	}

	next := b.acct
	next.RolloverRequired = change.After
	if _, err := b.apply(ctx, next); err != nil {
		return RolloverChange{}, err
	}
	return change, nil
}

// ReleaseBonus moves the whole bonus balance into the withdrawable balance.
// It is only allowed once the rollover requirement is zero and returns the
// amount moved.
func (b *Book) ReleaseBonus(ctx context.Context) (int64, error) {
	if b.acct.RolloverRequired > 0 {
		return 0, apperr.Invalid("rollover requirement of %d not yet met", b.acct.RolloverRequired)
	}
	released := b.acct.BonusBalance
	if released == 0 {
		return 0, nil
	}
	next := b.acct
	next.Balance += released
	next.BonusBalance = 0
	if _, err := b.apply(ctx, next); err != nil {
		return 0, err
	}
	return released, nil
}

func (b *Book) apply(ctx context.Context, next Account) (Account, error) {
	if err := next.validate(); err != nil {
		return Account{}, err
	}
	saved, err := b.w.SaveAccount(ctx, next)
	if err != nil {
		return Account{}, err
	}
	b.acct = saved
	return saved, nil
}
