// Package payout reconciles the stored expected payout of unpaid wagers with
// the current quotation configuration.
package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

const (
	DefaultBatchSize = 500
	lockKey          = "payout-correction"
)

// Quotes is the part of the quotation resolver a correction run needs.
type Quotes interface {
	Refresh(ctx context.Context) error
	Snapshot() *quotation.Snapshot
}

// Locker serialises runs across instances.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Report summarises one run.
type Report struct {
	Scanned   int `json:"scanned"`
	Corrected int `json:"corrected"`
	Skipped   int `json:"skipped"`
}

// Corrector re-prices unpaid wagers.
type Corrector struct {
	wagers    wager.Store
	quotes    Quotes
	tolerance int64
	batchSize int
	locker    Locker
	lockTTL   time.Duration
	logger    zerolog.Logger
}

// Option customises a Corrector.
type Option func(*Corrector)

// WithTolerance ignores differences of at most minor units.
func WithTolerance(minor int64) Option {
	return func(c *Corrector) {
		if minor >= 0 {
			c.tolerance = minor
		}
	}
}

func WithBatchSize(n int) Option {
	return func(c *Corrector) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLock makes Run fail with apperr.ErrConflict while another run holds
// the lock. A nil locker disables locking.
func WithLock(l Locker, ttl time.Duration) Option {
	return func(c *Corrector) {
		c.locker, c.lockTTL = l, ttl
	}
}

func NewCorrector(wagers wager.Store, quotes Quotes, logger zerolog.Logger, opts ...Option) *Corrector {
	c := &Corrector{wagers: wagers, quotes: quotes, batchSize: DefaultBatchSize, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run refreshes the quotation snapshot, then walks every wager with
// paid_out false in id order and rewrites the multiplier and expected payout
// where they drifted by more than the tolerance. Paid wagers are never
// touched: the write re-checks paid_out itself, so a wager paid between the
// read and the write is left alone.
func (c *Corrector) Run(ctx context.Context) (Report, error) {
	if c.locker != nil {
		release, err := c.locker.Acquire(ctx, lockKey, c.lockTTL)
		if err != nil {
			return Report{}, fmt.Errorf("%w: payout correction already running: %w", apperr.ErrConflict, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn().Err(err).Msg("release payout correction lock")
			}
		}()
	}

	if err := c.quotes.Refresh(ctx); err != nil {
		return Report{}, fmt.Errorf("%w: refresh quotations: %w", apperr.ErrUnavailable, err)
	}
	snapshot := c.quotes.Snapshot()

	var (
		report Report
		after  string
	)
	for {
		batch, err := c.wagers.ListUnpaid(ctx, after, c.batchSize)
		if err != nil {
			return report, fmt.Errorf("list unpaid wagers after %q: %w", after, err)
		}
		for _, w := range batch {
			report.Scanned++
			corrected, err := c.correct(ctx, snapshot, w)
			if err != nil {
				if errors.Is(err, quotation.ErrUnknownModality) || errors.Is(err, quotation.ErrInvalidNumber) {
					report.Skipped++
					c.logger.Warn().Err(err).Str("wager_id", w.ID).Msg("wager cannot be repriced")
					continue
				}
				return report, err
			}
			if corrected {
				report.Corrected++
			}
		}
		if len(batch) < c.batchSize {
			break
		}
		after = batch[len(batch)-1].ID
	}

	c.logger.Info().
		Int("scanned", report.Scanned).
		Int("corrected", report.Corrected).
		Int("skipped", report.Skipped).
		Msg("payout correction finished")
	return report, nil
}

func (c *Corrector) correct(ctx context.Context, snapshot *quotation.Snapshot, w wager.Wager) (bool, error) {
	quote, err := snapshot.Quote(w.ModalityCode, w.ChosenNumber)
	if err != nil {
		return false, err
	}
	payout := w.Reprice(quote.Multiplier)
	if abs(payout-w.ExpectedPayout) <= c.tolerance {
		return false, nil
	}

	changed, err := c.wagers.UpdateExpectedPayout(ctx, w.ID, quote.Multiplier, payout)
	if err != nil {
		return false, fmt.Errorf("update wager %s: %w", w.ID, err)
	}
	if !changed {
		c.logger.Info().Str("wager_id", w.ID).Msg("wager paid out during correction, left unchanged")
		return false, nil
	}
	c.logger.Debug().
		Str("wager_id", w.ID).
		Str("multiplier_before", w.RecordedMultiplier.String()).
		Str("multiplier_after", quote.Multiplier.String()).
		Int64("payout_before", w.ExpectedPayout).
		Int64("payout_after", payout).
		Msg("expected payout corrected")
	return true, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
