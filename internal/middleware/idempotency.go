package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	cacheTimeout         = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// IdempotencyOptions tune the Idempotency middleware.
type IdempotencyOptions struct {
	TTL time.Duration
	// Required rejects unsafe requests without an Idempotency-Key. When false
	// such requests pass through unprotected.
	Required bool
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// unsafe methods. Keys are scoped to method and path. Only successful
// responses are stored; a failed attempt releases the key so the caller can
// retry. A nil cache disables the middleware.
func Idempotency(cache *redis.Client, opts IdempotencyOptions, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch strings.ToUpper(c.Method()) {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		if cache == nil {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" {
			if opts.Required {
				return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
			}
			return c.Next()
		}

		log := logger.With().Str("idempotency_key", key).Str("path", c.Path()).Logger()
		cacheKey := idempotencyPrefix + c.Method() + ":" + c.Path() + ":" + key

		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()

		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, opts.TTL).Result()
		if err != nil {
			log.Error().Err(err).Msg("idempotency reservation failed")
			return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store failure")
		}
		if !reserved {
			return replay(c, cache, cacheKey, log)
		}

		release := func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
			defer cancel()
			if err := cache.Del(cleanupCtx, cacheKey).Err(); err != nil {
				log.Warn().Err(err).Msg("idempotency key release failed")
			}
		}

		if err := c.Next(); err != nil {
			release()
			return err
		}
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			release()
			return nil
		}

		stored := storedResponse{
			Status:  c.Response().StatusCode(),
			Body:    string(c.Response().Body()),
			Headers: map[string]string{},
		}
		c.Response().Header.VisitAll(func(k, v []byte) {
			stored.Headers[string(k)] = string(v)
		})

		payload, err := json.Marshal(stored)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode idempotent response")
			release()
			return nil
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer persistCancel()
		if err := cache.Set(persistCtx, cacheKey, payload, opts.TTL).Err(); err != nil {
			log.Error().Err(err).Msg("failed to persist idempotent response")
			release()
		}
		return nil
	}
}

func replay(c *fiber.Ctx, cache *redis.Client, cacheKey string, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	cached, err := cache.Get(ctx, cacheKey).Result()
	switch {
	case err == redis.Nil:
		return fiber.NewError(fiber.StatusConflict, "duplicate request, retry")
	case err != nil:
		log.Error().Err(err).Msg("idempotency lookup failed")
		return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store failure")
	case cached == inProgressMarker:
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		log.Warn().Err(err).Msg("failed to decode stored idempotent response")
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}
	for header, value := range stored.Headers {
		if strings.EqualFold(header, fiber.HeaderContentLength) {
			continue
		}
		c.Set(header, value)
	}
	c.Set("Idempotent-Replayed", "true")
	return c.Status(stored.Status).SendString(stored.Body)
}
