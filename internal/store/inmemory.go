package store

import (
	"context"
	"sync"

	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

// Memory is the in-process store used by workflow tests. It keeps the same
// guarantees as Postgres: per-account serialization, all-or-nothing commits
// and the unique paid reference rule.
type Memory struct {
	opts     Options
	commitMu sync.Mutex

	accounts *ledger.InMemory
	journal  *journal.InMemory
	wagers   *wager.InMemory
}

func NewMemory(opts Options) *Memory {
	return &Memory{
		opts:     opts,
		accounts: ledger.NewInMemory(),
		journal:  journal.NewInMemory(),
		wagers:   wager.NewInMemory(),
	}
}

type memUnit struct {
	book    *ledger.Book
	journal *journal.Tx
	wagers  *wager.Tx
}

func (u *memUnit) Ledger() *ledger.Book     { return u.book }
func (u *memUnit) Journal() journal.Journal { return u.journal }
func (u *memUnit) Wagers() wager.Store      { return u.wagers }

func (m *Memory) WithAccount(ctx context.Context, accountID int64, fn func(ctx context.Context, u Unit) error) error {
	unlock := m.accounts.Lock(accountID)
	defer unlock()

	return retry(ctx, m.opts.maxRetries(), m.opts.Logger, accountID, func() error {
		return m.attempt(ctx, accountID, fn)
	})
}

func (m *Memory) attempt(ctx context.Context, accountID int64, fn func(ctx context.Context, u Unit) error) error {
	acct, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}

	writer := &ledger.StagedWriter{}
	u := &memUnit{
		book:    ledger.NewBook(acct, writer),
		journal: m.journal.Begin(),
		wagers:  m.wagers.Begin(),
	}
	if err := fn(ctx, u); err != nil {
		return err
	}
	return m.commit(acct.Version, writer, u)
}

func (m *Memory) commit(version int64, writer *ledger.StagedWriter, u *memUnit) error {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	return m.wagers.CommitWith(u.wagers, func() error {
		if err := m.journal.Validate(u.journal); err != nil {
			return err
		}
		if writer.Pending != nil {
			if err := m.accounts.CompareAndSwap(*writer.Pending, version); err != nil {
				return err
			}
		}
		m.journal.Apply(u.journal)
		return nil
	})
}

func (m *Memory) Account(ctx context.Context, id int64) (ledger.Account, error) {
	return m.accounts.Get(ctx, id)
}

func (m *Memory) Journal() journal.Journal { return m.journal }

func (m *Memory) Wagers() wager.Store { return m.wagers }
