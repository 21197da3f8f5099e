package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// PoolOptions tunes the ledger's connection pool.
type PoolOptions struct {
	// MaxConns <= 0 keeps the pgxpool default.
	MaxConns int32
	// LockTimeout bounds how long a unit of work waits on an account row
	// lock. Expiry surfaces as SQLSTATE 55P03, which the store retries.
	LockTimeout     time.Duration
	ApplicationName string
}

// NewPostgresPool opens the ledger pool and pings it.
func NewPostgresPool(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: database url is required", apperr.ErrInvalidInput)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	if opts.ApplicationName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = opts.ApplicationName
	}
	if opts.LockTimeout > 0 {
		cfg.ConnConfig.RuntimeParams["lock_timeout"] = fmt.Sprintf("%dms", opts.LockTimeout.Milliseconds())
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", apperr.FromPostgres(err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", apperr.FromPostgres(err))
	}
	return pool, nil
}
