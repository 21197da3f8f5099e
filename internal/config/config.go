package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName            string        `env:"APP_NAME" envDefault:"postenobicho-ledger"`
	AppEnv             string        `env:"APP_ENV" envDefault:"development"`
	Port               string        `env:"PORT" envDefault:"8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty          bool          `env:"LOG_PRETTY" envDefault:"false"`
	DatabaseURL        string        `env:"DATABASE_URL,required,notEmpty"`
	DatabaseMaxConns   int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseLockWait   time.Duration `env:"DATABASE_LOCK_TIMEOUT" envDefault:"5s"`
	RedisURL           string        `env:"REDIS_URL"`
	ShutdownPeriod     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	AdminKeyHash       string        `env:"ADMIN_KEY_HASH"`
	AccountTokenSecret string        `env:"ACCOUNT_TOKEN_SECRET"`
	WebhookRateLimit   int           `env:"WEBHOOK_RATE_LIMIT" envDefault:"120"`

	Bonus     BonusConfig     `envPrefix:"BONUS_"`
	Ledger    LedgerConfig    `envPrefix:"LEDGER_"`
	Quotation QuotationConfig `envPrefix:"QUOTATION_"`
	Payout    PayoutConfig    `envPrefix:"PAYOUT_"`
}

// BonusConfig holds the first-deposit promotion parameters.
type BonusConfig struct {
	FirstDepositPercent decimal.Decimal `env:"FIRST_DEPOSIT_PERCENT" envDefault:"0"`
	// FirstDepositCap is in minor units. The default of zero grants no bonus.
	FirstDepositCap    int64           `env:"FIRST_DEPOSIT_CAP" envDefault:"0"`
	RolloverMultiplier decimal.Decimal `env:"ROLLOVER_MULTIPLIER" envDefault:"1"`
	AutoRelease        bool            `env:"AUTO_RELEASE" envDefault:"false"`
}

type LedgerConfig struct {
	MaxRetries int `env:"MAX_RETRIES" envDefault:"3"`
}

type QuotationConfig struct {
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"1m"`
}

type PayoutConfig struct {
	// Tolerance is the payout difference, in minor units, below which a
	// wager is left as is.
	Tolerance int64         `env:"TOLERANCE" envDefault:"0"`
	BatchSize int           `env:"BATCH_SIZE" envDefault:"500"`
	LockTTL   time.Duration `env:"LOCK_TTL" envDefault:"5m"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Bonus.FirstDepositPercent.IsNegative() {
		return fmt.Errorf("BONUS_FIRST_DEPOSIT_PERCENT must not be negative")
	}
	if c.Bonus.FirstDepositCap < 0 {
		return fmt.Errorf("BONUS_FIRST_DEPOSIT_CAP must not be negative")
	}
	if c.Bonus.RolloverMultiplier.IsNegative() {
		return fmt.Errorf("BONUS_ROLLOVER_MULTIPLIER must not be negative")
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("LEDGER_MAX_RETRIES must not be negative")
	}
	if c.Payout.Tolerance < 0 {
		return fmt.Errorf("PAYOUT_TOLERANCE must not be negative")
	}
	if c.Payout.BatchSize <= 0 {
		return fmt.Errorf("PAYOUT_BATCH_SIZE must be positive")
	}
	if !c.IsDev() {
		if c.AdminKeyHash == "" {
			return fmt.Errorf("ADMIN_KEY_HASH must be set when APP_ENV=%s", c.AppEnv)
		}
		if c.AccountTokenSecret == "" {
			return fmt.Errorf("ACCOUNT_TOKEN_SECRET must be set when APP_ENV=%s", c.AppEnv)
		}
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.AppEnv)
		}
	}
	return nil
}

// IsDev reports whether the process runs in a local or development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
