package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// TestConfig points integration tests at an existing database instead of a container.
type TestConfig struct {
	PostgresDSN string `env:"TEST_POSTGRES_DSN"`
}

func LoadTest() (TestConfig, error) {
	cfg, err := env.ParseAs[TestConfig]()
	if err != nil {
		return TestConfig{}, fmt.Errorf("parse test env: %w", err)
	}
	return cfg, nil
}
