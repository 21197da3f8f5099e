package wager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Postgres struct {
	q Querier
}

func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q}
}

const wagerColumns = `id, account_id, modality_code, chosen_number, stake, stake_from_bonus,
        recorded_multiplier::text, expected_payout, outcome, paid_out, created_at, updated_at, settled_at`

func scanWager(row pgx.Row) (Wager, error) {
	var (
		w       Wager
		mult    string
		outcome string
	)
	if err := row.Scan(&w.ID, &w.AccountID, &w.ModalityCode, &w.ChosenNumber, &w.Stake, &w.StakeFromBonus,
		&mult, &w.ExpectedPayout, &outcome, &w.PaidOut, &w.CreatedAt, &w.UpdatedAt, &w.SettledAt); err != nil {
		return Wager{}, err
	}
	parsed, err := decimal.NewFromString(mult)
	if err != nil {
		return Wager{}, fmt.Errorf("wager %s multiplier %q: %w", w.ID, mult, err)
	}
	w.RecordedMultiplier = parsed
	w.Outcome = Outcome(outcome)
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	if w.SettledAt != nil {
		t := w.SettledAt.UTC()
		w.SettledAt = &t
	}
	return w, nil
}

func (p *Postgres) one(ctx context.Context, sql string, args ...any) (Wager, error) {
	w, err := scanWager(p.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wager{}, ErrNotFound
		}
		return Wager{}, apperr.FromPostgres(err)
	}
	return w, nil
}

func (p *Postgres) Insert(ctx context.Context, w Wager) error {
	if w.Outcome == "" {
		w.Outcome = OutcomePending
	}
	_, err := p.q.Exec(ctx, `INSERT INTO wagers
        (id, account_id, modality_code, chosen_number, stake, stake_from_bonus, recorded_multiplier, expected_payout, outcome, paid_out)
        VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, false)`,
		w.ID, w.AccountID, w.ModalityCode, w.ChosenNumber, w.Stake, w.StakeFromBonus,
		w.RecordedMultiplier.String(), w.ExpectedPayout, string(w.Outcome))
	return apperr.FromPostgres(err)
}

func (p *Postgres) Get(ctx context.Context, id string) (Wager, error) {
	return p.one(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id = $1`, id)
}

func (p *Postgres) GetForUpdate(ctx context.Context, id string) (Wager, error) {
	return p.one(ctx, `SELECT `+wagerColumns+` FROM wagers WHERE id = $1 FOR UPDATE`, id)
}

func (p *Postgres) MarkSettled(ctx context.Context, id string, outcome Outcome, paidOut bool) (Wager, error) {
	return p.one(ctx, `UPDATE wagers SET outcome = $2, paid_out = $3, settled_at = $4, updated_at = now()
        WHERE id = $1 AND paid_out = false
        RETURNING `+wagerColumns, id, string(outcome), paidOut, time.Now().UTC())
}

func (p *Postgres) ListUnpaid(ctx context.Context, afterID string, limit int) ([]Wager, error) {
	rows, err := p.q.Query(ctx, `SELECT `+wagerColumns+` FROM wagers
        WHERE paid_out = false AND id > $1 ORDER BY id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, apperr.FromPostgres(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Wager, error) {
		return scanWager(row)
	})
	if err != nil {
		return nil, apperr.FromPostgres(err)
	}
	return out, nil
}

func (p *Postgres) UpdateExpectedPayout(ctx context.Context, id string, multiplier decimal.Decimal, payout int64) (bool, error) {
	tag, err := p.q.Exec(ctx, `UPDATE wagers SET recorded_multiplier = $2::numeric, expected_payout = $3, updated_at = now()
        WHERE id = $1 AND paid_out = false`, id, multiplier.String(), payout)
	if err != nil {
		return false, apperr.FromPostgres(err)
	}
	return tag.RowsAffected() == 1, nil
}
