package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// NewRedisClient connects the cache used for idempotency keys, webhook rate
// limits and the payout-correction lock. An empty url returns a nil client
// and those features degrade to pass-through.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse redis url: %w", apperr.ErrInvalidInput, err)
	}
	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = 500 * time.Millisecond
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = 500 * time.Millisecond
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis: %w", apperr.ErrUnavailable, err)
	}
	return client, nil
}
