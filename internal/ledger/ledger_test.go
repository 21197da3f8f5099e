package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

func newBook(acct Account) (*Book, *StagedWriter) {
	w := &StagedWriter{}
	return NewBook(acct, w), w
}

func TestCreditDepositWithBonus(t *testing.T) {
	ctx := context.Background()
	b, w := newBook(Account{ID: 1, Active: true})

	acct, err := b.CreditDeposit(ctx, 200, 100, 300)
	require.NoError(t, err)

	assert.Equal(t, int64(200), acct.Balance)
	assert.Equal(t, int64(100), acct.BonusBalance)
	assert.Equal(t, int64(300), acct.RolloverRequired)
	assert.Equal(t, int64(1), acct.Version)
	require.NotNil(t, w.Pending)
	assert.Equal(t, acct, *w.Pending)
}

func TestCreditDepositWithoutBonusIgnoresRollover(t *testing.T) {
	b, _ := newBook(Account{ID: 1, RolloverRequired: 10})

	acct, err := b.CreditDeposit(context.Background(), 50, 0, 999)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acct.Balance)
	assert.Equal(t, int64(10), acct.RolloverRequired)
}

func TestCreditRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	b, w := newBook(Account{ID: 1})

	_, err := b.CreditManual(ctx, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = b.CreditDeposit(ctx, -5, 0, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Nil(t, w.Pending)
}

func TestDebitWithdrawalInsufficientFunds(t *testing.T) {
	b, w := newBook(Account{ID: 1, Balance: 30, BonusBalance: 500})

	_, err := b.DebitWithdrawal(context.Background(), 50)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
	assert.Equal(t, int64(30), b.Account().Balance)
	assert.Nil(t, w.Pending)
}

func TestDebitWithdrawal(t *testing.T) {
	b, _ := newBook(Account{ID: 1, Balance: 30})

	acct, err := b.DebitWithdrawal(context.Background(), 30)
	require.NoError(t, err)
	assert.Zero(t, acct.Balance)
}

func TestReduceRolloverClampsAtZero(t *testing.T) {
	b, _ := newBook(Account{ID: 1, RolloverRequired: 30})

	change, err := b.ReduceRollover(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, RolloverChange{Before: 30, After: 0, Cleared: true}, change)
	assert.Zero(t, b.Account().RolloverRequired)

	change, err = b.ReduceRollover(context.Background(), 40)
	require.NoError(t, err)
	assert.False(t, change.Cleared, "already zero is not a new crossing")
}

func TestReduceRolloverPartial(t *testing.T) {
	b, _ := newBook(Account{ID: 1, RolloverRequired: 100})

	change, err := b.ReduceRollover(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), change.After)
	assert.False(t, change.Cleared)
}

func TestDebitStakeUsesBalanceThenBonus(t *testing.T) {
	b, _ := newBook(Account{ID: 1, Balance: 30, BonusBalance: 50})

	split, err := b.DebitStake(context.Background(), 45)
	require.NoError(t, err)
	assert.Equal(t, StakeSplit{FromBalance: 30, FromBonus: 15}, split)
	assert.Zero(t, b.Account().Balance)
	assert.Equal(t, int64(35), b.Account().BonusBalance)

	_, err = b.DebitStake(context.Background(), 36)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
}

func TestReleaseBonus(t *testing.T) {
	ctx := context.Background()
	b, _ := newBook(Account{ID: 1, Balance: 10, BonusBalance: 100, RolloverRequired: 5})

	_, err := b.ReleaseBonus(ctx)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = b.ReduceRollover(ctx, 5)
	require.NoError(t, err)
	released, err := b.ReleaseBonus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), released)
	assert.Equal(t, int64(110), b.Account().Balance)
	assert.Zero(t, b.Account().BonusBalance)
}

func TestInMemoryCompareAndSwap(t *testing.T) {
	m := NewInMemory()
	m.Put(Account{ID: 7, Balance: 10, Version: 2})

	err := m.CompareAndSwap(Account{ID: 7, Balance: 20, Version: 3}, 1)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, m.CompareAndSwap(Account{ID: 7, Balance: 20, Version: 3}, 2))
	acct, err := m.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(20), acct.Balance)

	_, err = m.Get(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)
}
