package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

func credit(ctx context.Context, u Unit, amount int64, ref string) error {
	id, err := u.Journal().Append(ctx, journal.Record{
		AccountID:         u.Ledger().Account().ID,
		Kind:              journal.KindDeposit,
		Amount:            amount,
		ExternalReference: ref,
	})
	if err != nil {
		return err
	}
	if _, err := u.Ledger().CreditDeposit(ctx, amount, 0, 0); err != nil {
		return err
	}
	_, err = u.Journal().MarkPaid(ctx, id)
	return err
}

func TestMemoryCommitsLedgerAndJournalTogether(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Options{})
	s.SeedAccount(ledger.Account{ID: 1, Active: true})

	err := s.WithAccount(ctx, 1, func(ctx context.Context, u Unit) error {
		return credit(ctx, u, 100, "gw-1")
	})
	require.NoError(t, err)

	acct, err := s.Account(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.Balance)
	assert.Equal(t, int64(1), acct.Version)

	_, found, err := s.Journal().FindPaidByExternalReference(ctx, journal.KindDeposit, "gw-1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Options{})
	s.SeedAccount(ledger.Account{ID: 1})
	boom := errors.New("boom")

	err := s.WithAccount(ctx, 1, func(ctx context.Context, u Unit) error {
		if err := credit(ctx, u, 100, "gw-1"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	acct, err := s.Account(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, acct.Balance)

	list, err := s.Journal().ListByAccount(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list, "no partial state is visible")
}

func TestMemoryUnknownAccount(t *testing.T) {
	s := NewMemory(Options{})
	err := s.WithAccount(context.Background(), 42, func(context.Context, Unit) error {
		assert.Fail(t, "fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)
}

func TestMemorySerializesSameAccount(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Options{})
	s.SeedAccount(ledger.Account{ID: 1})

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithAccount(ctx, 1, func(ctx context.Context, u Unit) error {
				return credit(ctx, u, 10, "")
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acct, err := s.Account(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*10), acct.Balance)
}

func TestMemoryRetriesConflictThenSurfacesIt(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Options{MaxRetries: 2})
	s.SeedAccount(ledger.Account{ID: 1})
	s.SeedAccount(ledger.Account{ID: 2})

	require.NoError(t, s.WithAccount(ctx, 1, func(ctx context.Context, u Unit) error {
		return credit(ctx, u, 100, "gw-shared")
	}))

	attempts := 0
	err := s.WithAccount(ctx, 2, func(ctx context.Context, u Unit) error {
		attempts++
		// Skip the in-unit dedup check so the commit hits the unique rule.
		return credit(ctx, u, 100, "gw-shared")
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 3, attempts)

	acct, err := s.Account(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, acct.Balance)
}

func TestMemorySettlementRetriesAfterConcurrentReprice(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(Options{MaxRetries: 2})
	s.SeedAccount(ledger.Account{ID: 1, Active: true})
	s.SeedWager(wager.Wager{
		ID: "w1", AccountID: 1, Stake: 10,
		RecordedMultiplier: decimal.NewFromInt(18), ExpectedPayout: 180,
		Outcome: wager.OutcomePending,
	})

	attempts := 0
	err := s.WithAccount(ctx, 1, func(ctx context.Context, u Unit) error {
		attempts++
		current, err := u.Wagers().GetForUpdate(ctx, "w1")
		if err != nil {
			return err
		}
		if attempts == 1 {
			// a correction run lands after the read
			_, err := s.Wagers().UpdateExpectedPayout(ctx, "w1", decimal.NewFromInt(20), 200)
			require.NoError(t, err)
		}
		if _, err := u.Ledger().CreditPayout(ctx, current.ExpectedPayout); err != nil {
			return err
		}
		_, err = u.Wagers().MarkSettled(ctx, "w1", wager.OutcomeWon, true)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	acct, err := s.Account(ctx, 1)
	require.NoError(t, err)
	w, err := s.Wagers().Get(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, w.PaidOut)
	assert.Equal(t, int64(200), w.ExpectedPayout)
	assert.Equal(t, w.ExpectedPayout, acct.Balance)
}
