package quotation

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// PostgresCatalog reads modalities and special quotations from PostgreSQL.
type PostgresCatalog struct {
	db *pgxpool.Pool
}

func NewPostgresCatalog(db *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Modalities returns the active modality catalog.
func (c *PostgresCatalog) Modalities(ctx context.Context) ([]Modality, error) {
	rows, err := c.db.Query(ctx, `SELECT code, name, standard_multiplier::text, COALESCE(quotation_kind, '')
        FROM modalities WHERE active ORDER BY code`)
	if err != nil {
		return nil, apperr.FromPostgres(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Modality, error) {
		var (
			m    Modality
			mult string
			kind string
		)
		if err := row.Scan(&m.Code, &m.Name, &mult, &kind); err != nil {
			return Modality{}, err
		}
		parsed, err := decimal.NewFromString(mult)
		if err != nil {
			return Modality{}, err
		}
		m.StandardMultiplier = parsed
		m.Kind = Kind(kind)
		return m, nil
	})
	return out, apperr.FromPostgres(err)
}

// ActiveSpecials returns special quotations that can currently win a lookup.
func (c *PostgresCatalog) ActiveSpecials(ctx context.Context) ([]Special, error) {
	rows, err := c.db.Query(ctx, `SELECT kind, number, multiplier::text
        FROM special_quotations WHERE active AND multiplier > 0`)
	if err != nil {
		return nil, apperr.FromPostgres(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Special, error) {
		var (
			sp   Special
			kind string
			mult string
		)
		if err := row.Scan(&kind, &sp.Number, &mult); err != nil {
			return Special{}, err
		}
		parsed, err := decimal.NewFromString(mult)
		if err != nil {
			return Special{}, err
		}
		sp.Kind = Kind(kind)
		sp.Multiplier = parsed
		sp.Active = true
		return sp, nil
	})
	return out, apperr.FromPostgres(err)
}
