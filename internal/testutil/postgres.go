// Package testutil starts disposable PostgreSQL databases for integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ronaldoarch/postenobicho-sub001/internal/config"
	"github.com/ronaldoarch/postenobicho-sub001/internal/infra"
)

// Postgres returns a migrated pool. TEST_POSTGRES_DSN points it at an existing
// database; otherwise a postgres:16-alpine container is started. The test is
// skipped in -short mode or when Docker is unavailable.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.LoadTest()
	require.NoError(t, err)

	dsn := cfg.PostgresDSN
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("ledger_test"),
			postgres.WithUsername("test_user"),
			postgres.WithPassword("test_password"),
			postgres.BasicWaitStrategies(),
			testcontainers.WithLabels(map[string]string{"test": "ledger", "test-name": t.Name()}),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(container); err != nil {
				t.Logf("terminate postgres container: %v", err)
			}
		})

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	_, err = infra.MigrateUp(dsn)
	require.NoError(t, err)

	pool, err := infra.NewPostgresPool(ctx, dsn, infra.PoolOptions{MaxConns: 20, LockTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	if cfg.PostgresDSN != "" {
		Truncate(t, pool)
	}
	return pool
}

// Truncate empties the mutable tables and keeps the modality catalog.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE wagers, transactions, special_quotations, accounts RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// CreateAccount inserts an account with the given starting balances.
func CreateAccount(t *testing.T, pool *pgxpool.Pool, email string, balance, bonus, rollover int64) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `INSERT INTO accounts (email, balance, bonus_balance, rollover_required)
        VALUES (NULLIF($1, ''), $2, $3, $4) RETURNING id`, email, balance, bonus, rollover).Scan(&id)
	require.NoError(t, err)
	return id
}
