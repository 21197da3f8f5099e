package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id, COALESCE(email, ''), balance, bonus_balance, rollover_required, active, version, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.Balance, &a.BonusBalance, &a.RolloverRequired, &a.Active, &a.Version, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, apperr.ErrAccountNotFound
		}
		return Account{}, apperr.FromPostgres(err)
	}
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

// LockAccount reads an account and takes its row lock until tx ends. Every
// unit of work on an account starts here, which serializes writers per account.
func LockAccount(ctx context.Context, tx pgx.Tx, id int64) (Account, error) {
	return scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
}

// GetAccount reads the committed state without locking.
func GetAccount(ctx context.Context, q Querier, id int64) (Account, error) {
	return scanAccount(q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// PostgresWriter saves account states inside a transaction with a version check.
type PostgresWriter struct {
	tx pgx.Tx
}

func NewPostgresWriter(tx pgx.Tx) *PostgresWriter {
	return &PostgresWriter{tx: tx}
}

// SaveAccount implements Writer.
func (w *PostgresWriter) SaveAccount(ctx context.Context, next Account) (Account, error) {
	row := w.tx.QueryRow(ctx, `UPDATE accounts
        SET balance = $2, bonus_balance = $3, rollover_required = $4, version = version + 1, updated_at = now()
        WHERE id = $1 AND version = $5
        RETURNING version, updated_at`,
		next.ID, next.Balance, next.BonusBalance, next.RolloverRequired, next.Version)
	if err := row.Scan(&next.Version, &next.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: account %d version %d is stale", apperr.ErrConflict, next.ID, next.Version)
		}
		return Account{}, apperr.FromPostgres(err)
	}
	next.UpdatedAt = next.UpdatedAt.UTC()
	return next, nil
}
