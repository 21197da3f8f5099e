package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// Postgres stores records in the transactions table.
type Postgres struct {
	q Querier
}

func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q}
}

const recordColumns = `id, account_id, kind, status, amount, bonus_applied, rollover_imposed,
        COALESCE(external_reference, ''), description, created_at, resolved_at`

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r          Record
		id         uuid.UUID
		kind       string
		status     string
		resolvedAt *time.Time
	)
	if err := row.Scan(&id, &r.AccountID, &kind, &status, &r.Amount, &r.BonusApplied, &r.RolloverImposed,
		&r.ExternalReference, &r.Description, &r.CreatedAt, &resolvedAt); err != nil {
		return Record{}, err
	}
	r.ID = id.String()
	r.Kind = Kind(kind)
	r.Status = Status(status)
	r.CreatedAt = r.CreatedAt.UTC()
	if resolvedAt != nil {
		t := resolvedAt.UTC()
		r.ResolvedAt = &t
	}
	return r, nil
}

// Append inserts rec as pending. An empty ID is generated.
func (p *Postgres) Append(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return "", apperr.Invalid("record id %q: %v", rec.ID, err)
	}
	var ref *string
	if rec.ExternalReference != "" {
		ref = &rec.ExternalReference
	}
	_, err = p.q.Exec(ctx, `INSERT INTO transactions
        (id, account_id, kind, status, amount, bonus_applied, rollover_imposed, external_reference, description)
        VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7, $8)`,
		id, rec.AccountID, string(rec.Kind), rec.Amount, rec.BonusApplied, rec.RolloverImposed, ref, rec.Description)
	if err != nil {
		return "", apperr.FromPostgres(err)
	}
	return rec.ID, nil
}

func (p *Postgres) MarkPaid(ctx context.Context, id string) (Status, error) {
	return p.resolve(ctx, id, StatusPaid)
}

func (p *Postgres) MarkFailed(ctx context.Context, id string) (Status, error) {
	return p.resolve(ctx, id, StatusFailed)
}

// resolve moves a pending record to status. A unique violation on the paid
// reference index surfaces as apperr.ErrConflict so the unit is retried.
func (p *Postgres) resolve(ctx context.Context, id string, status Status) (Status, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.Invalid("record id %q: %v", id, err)
	}
	var got string
	err = p.q.QueryRow(ctx, `UPDATE transactions SET status = $2, resolved_at = now()
        WHERE id = $1 AND status = 'pending' RETURNING status`, txID, string(status)).Scan(&got)
	if err == nil {
		return Status(got), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.FromPostgres(err)
	}

	if err := p.q.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, txID).Scan(&got); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", apperr.FromPostgres(err)
	}
	return Status(got), nil
}

func (p *Postgres) Get(ctx context.Context, id string) (Record, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec, err := scanRecord(p.q.QueryRow(ctx, `SELECT `+recordColumns+` FROM transactions WHERE id = $1`, txID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, apperr.FromPostgres(err)
	}
	return rec, nil
}

func (p *Postgres) FindPaidByExternalReference(ctx context.Context, kind Kind, ref string) (Record, bool, error) {
	if ref == "" {
		return Record{}, false, nil
	}
	rec, err := scanRecord(p.q.QueryRow(ctx, `SELECT `+recordColumns+` FROM transactions
        WHERE kind = $1 AND external_reference = $2 AND status = 'paid'`, string(kind), ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, apperr.FromPostgres(err)
	}
	return rec, true, nil
}

func (p *Postgres) CountPaid(ctx context.Context, accountID int64, kind Kind) (int, error) {
	var n int
	err := p.q.QueryRow(ctx, `SELECT count(*) FROM transactions
        WHERE account_id = $1 AND kind = $2 AND status = 'paid'`, accountID, string(kind)).Scan(&n)
	if err != nil {
		return 0, apperr.FromPostgres(err)
	}
	return n, nil
}

func (p *Postgres) ListByAccount(ctx context.Context, accountID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.q.Query(ctx, `SELECT `+recordColumns+` FROM transactions
        WHERE account_id = $1 ORDER BY created_at DESC, id LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, apperr.FromPostgres(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, apperr.FromPostgres(err)
	}
	return out, nil
}
