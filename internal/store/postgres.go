package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

// Postgres runs units of work as pgx transactions holding the account row lock.
type Postgres struct {
	db      *pgxpool.Pool
	opts    Options
	journal *journal.Postgres
	wagers  *wager.Postgres
}

func NewPostgres(db *pgxpool.Pool, opts Options) *Postgres {
	return &Postgres{
		db:      db,
		opts:    opts,
		journal: journal.NewPostgres(db),
		wagers:  wager.NewPostgres(db),
	}
}

type pgUnit struct {
	book    *ledger.Book
	journal *journal.Postgres
	wagers  *wager.Postgres
}

func (u *pgUnit) Ledger() *ledger.Book     { return u.book }
func (u *pgUnit) Journal() journal.Journal { return u.journal }
func (u *pgUnit) Wagers() wager.Store      { return u.wagers }

func (s *Postgres) WithAccount(ctx context.Context, accountID int64, fn func(ctx context.Context, u Unit) error) error {
	return retry(ctx, s.opts.maxRetries(), s.opts.Logger, accountID, func() error {
		return s.attempt(ctx, accountID, fn)
	})
}

func (s *Postgres) attempt(ctx context.Context, accountID int64, fn func(ctx context.Context, u Unit) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", apperr.FromPostgres(err))
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	acct, err := ledger.LockAccount(ctx, tx, accountID)
	if err != nil {
		return err
	}

	u := &pgUnit{
		book:    ledger.NewBook(acct, ledger.NewPostgresWriter(tx)),
		journal: journal.NewPostgres(tx),
		wagers:  wager.NewPostgres(tx),
	}
	if err := fn(ctx, u); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", apperr.FromPostgres(err))
	}
	return nil
}

func (s *Postgres) Account(ctx context.Context, id int64) (ledger.Account, error) {
	return ledger.GetAccount(ctx, s.db, id)
}

func (s *Postgres) Journal() journal.Journal { return s.journal }

func (s *Postgres) Wagers() wager.Store { return s.wagers }
