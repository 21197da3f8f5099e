package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, 10*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.True(t, cfg.Bonus.FirstDepositPercent.IsZero())
	assert.True(t, cfg.Bonus.RolloverMultiplier.Equal(decimal.NewFromInt(1)))
	assert.False(t, cfg.Bonus.AutoRelease)
	assert.Equal(t, 500, cfg.Payout.BatchSize)
}

func TestLoadBonusSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("BONUS_FIRST_DEPOSIT_PERCENT", "50")
	t.Setenv("BONUS_FIRST_DEPOSIT_CAP", "10000")
	t.Setenv("BONUS_ROLLOVER_MULTIPLIER", "2.5")
	t.Setenv("BONUS_AUTO_RELEASE", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Bonus.FirstDepositPercent.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(10000), cfg.Bonus.FirstDepositCap)
	assert.Equal(t, "2.5", cfg.Bonus.RolloverMultiplier.String())
	assert.True(t, cfg.Bonus.AutoRelease)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadProductionRequiresAdminKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := Load()
	require.ErrorContains(t, err, "ADMIN_KEY_HASH")

	t.Setenv("ADMIN_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	_, err = Load()
	require.ErrorContains(t, err, "ACCOUNT_TOKEN_SECRET")

	t.Setenv("ACCOUNT_TOKEN_SECRET", "login-service-secret")
	_, err = Load()
	require.NoError(t, err)
}

func TestLoadRejectsNegativePercent(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("BONUS_FIRST_DEPOSIT_PERCENT", "-5")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNegativeBonusCap(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("BONUS_FIRST_DEPOSIT_CAP", "-1")

	_, err := Load()
	require.ErrorContains(t, err, "BONUS_FIRST_DEPOSIT_CAP")
}
