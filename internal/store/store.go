// Package store runs account-scoped units of work: one atomic, isolated
// transaction per account in which ledger, journal and wager writes commit
// together or not at all.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

// DefaultMaxRetries bounds how often a unit is re-run after a conflict.
const DefaultMaxRetries = 3

// Unit exposes the repositories bound to one locked account.
type Unit interface {
	Ledger() *ledger.Book
	Journal() journal.Journal
	Wagers() wager.Store
}

// Store is the entry point for workflows.
type Store interface {
	// WithAccount locks accountID and runs fn in a transaction. fn may run
	// more than once when the commit loses a race, so it must not have side
	// effects outside the unit. Returns apperr.ErrAccountNotFound when the
	// account does not exist.
	WithAccount(ctx context.Context, accountID int64, fn func(ctx context.Context, u Unit) error) error
	// Account reads committed account state without locking.
	Account(ctx context.Context, id int64) (ledger.Account, error)
	Journal() journal.Journal
	Wagers() wager.Store
}

// Options tune retry behaviour.
type Options struct {
	MaxRetries int
	Logger     zerolog.Logger
}

func (o Options) maxRetries() int {
	if o.MaxRetries < 0 {
		return 0
	}
	return o.MaxRetries
}

// retry re-runs attempt while it fails with a conflict, up to max extra times.
func retry(ctx context.Context, max int, logger zerolog.Logger, accountID int64, attempt func() error) error {
	var err error
	for i := 0; i <= max; i++ {
		err = attempt()
		if err == nil || !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", apperr.ErrUnavailable, ctxErr)
		}
		logger.Debug().Err(err).Int64("account_id", accountID).Int("attempt", i+1).Msg("unit of work conflict, retrying")
	}
	return fmt.Errorf("account %d: retries exhausted: %w", accountID, err)
}
