package payout_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/infra"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/payout"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

type catalog struct {
	specials []quotation.Special
}

func (c *catalog) Modalities(context.Context) ([]quotation.Modality, error) {
	return []quotation.Modality{
		{Code: "Milhar", StandardMultiplier: decimal.NewFromInt(5000), Kind: quotation.KindMilhar},
		{Code: "Grupo", StandardMultiplier: decimal.NewFromInt(18)},
	}, nil
}

func (c *catalog) ActiveSpecials(context.Context) ([]quotation.Special, error) {
	return c.specials, nil
}

func seed(store *wager.InMemory, id, modality, number string, stake int64, mult int64, paid bool) {
	m := decimal.NewFromInt(mult)
	w := wager.Wager{
		ID:                 id,
		AccountID:          1,
		ModalityCode:       modality,
		ChosenNumber:       number,
		Stake:              stake,
		RecordedMultiplier: m,
		ExpectedPayout:     stake * mult,
		Outcome:            wager.OutcomePending,
		PaidOut:            paid,
	}
	if paid {
		w.Outcome = wager.OutcomeWon
	}
	store.Put(w)
}

func TestRunCorrectsOnlyUnpaidWagers(t *testing.T) {
	ctx := context.Background()
	wagers := wager.NewInMemory()
	seed(wagers, "01A", "Milhar", "0732", 10, 5000, false)
	seed(wagers, "01B", "Milhar", "0732", 10, 5000, true)
	seed(wagers, "01C", "Milhar", "1111", 10, 5000, false)
	seed(wagers, "01D", "Grupo", "5", 10, 18, false)

	cat := &catalog{specials: []quotation.Special{
		{Kind: quotation.KindMilhar, Number: "0732", Multiplier: decimal.NewFromInt(7000), Active: true},
	}}
	c := payout.NewCorrector(wagers, quotation.NewResolver(cat), logging.Discard())

	report, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, payout.Report{Scanned: 3, Corrected: 1}, report)

	fixed, err := wagers.Get(ctx, "01A")
	require.NoError(t, err)
	assert.Equal(t, int64(70_000), fixed.ExpectedPayout)
	assert.True(t, fixed.RecordedMultiplier.Equal(decimal.NewFromInt(7000)))

	paid, err := wagers.Get(ctx, "01B")
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), paid.ExpectedPayout, "paid wagers are frozen")
	assert.True(t, paid.RecordedMultiplier.Equal(decimal.NewFromInt(5000)))

	again, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Corrected, "rerun with unchanged configuration is a no-op")
}

func TestRunPagesThroughBatches(t *testing.T) {
	wagers := wager.NewInMemory()
	for i := 0; i < 7; i++ {
		seed(wagers, fmt.Sprintf("W%02d", i), "Grupo", "5", 10, 16, false)
	}
	c := payout.NewCorrector(wagers, quotation.NewResolver(&catalog{}), logging.Discard(), payout.WithBatchSize(3))

	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, report.Scanned)
	assert.Equal(t, 7, report.Corrected)
}

func TestRunToleranceAndUnknownModality(t *testing.T) {
	wagers := wager.NewInMemory()
	seed(wagers, "A", "Grupo", "5", 10, 18, false)
	seed(wagers, "B", "Retired", "5", 10, 18, false)
	w, _ := wagers.Get(context.Background(), "A")
	w.ExpectedPayout = 179
	wagers.Put(w)

	c := payout.NewCorrector(wagers, quotation.NewResolver(&catalog{}), logging.Discard(), payout.WithTolerance(1))
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payout.Report{Scanned: 2, Corrected: 0, Skipped: 1}, report)
}

func TestRunIsExclusive(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	locker := infra.NewRedisLocker(client)

	release, err := locker.Acquire(ctx, "payout-correction", time.Minute)
	require.NoError(t, err)

	c := payout.NewCorrector(wager.NewInMemory(), quotation.NewResolver(&catalog{}), logging.Discard(),
		payout.WithLock(locker, time.Minute))
	_, err = c.Run(ctx)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, release(ctx))
	_, err = c.Run(ctx)
	require.NoError(t, err)
}
