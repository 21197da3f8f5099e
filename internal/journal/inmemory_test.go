package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

func TestMarkPaidIsOneWayAndIdempotent(t *testing.T) {
	ctx := context.Background()
	j := NewInMemory()

	id, err := j.Append(ctx, Record{AccountID: 1, Kind: KindDeposit, Amount: 100, Status: StatusPaid})
	require.NoError(t, err)

	rec, err := j.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status, "append always writes pending")

	status, err := j.MarkPaid(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)

	status, err = j.MarkPaid(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)

	status, err = j.MarkFailed(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status, "resolved records keep their terminal status")

	rec, err = j.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, rec.Status)
	assert.NotNil(t, rec.ResolvedAt)
}

func TestMarkUnknownRecord(t *testing.T) {
	_, err := NewInMemory().MarkPaid(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTxIsInvisibleUntilApplied(t *testing.T) {
	ctx := context.Background()
	j := NewInMemory()

	tx := j.Begin()
	id, err := tx.Append(ctx, Record{AccountID: 1, Kind: KindDeposit, Amount: 100, ExternalReference: "gw-1"})
	require.NoError(t, err)
	_, err = tx.MarkPaid(ctx, id)
	require.NoError(t, err)

	_, found, err := tx.FindPaidByExternalReference(ctx, KindDeposit, "gw-1")
	require.NoError(t, err)
	assert.True(t, found, "the unit sees its own writes")

	_, found, err = j.FindPaidByExternalReference(ctx, KindDeposit, "gw-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, j.Validate(tx))
	j.Apply(tx)

	rec, found, err := j.FindPaidByExternalReference(ctx, KindDeposit, "gw-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, rec.ID)
}

func TestValidateRejectsSecondPaidReference(t *testing.T) {
	ctx := context.Background()
	j := NewInMemory()

	first, second := j.Begin(), j.Begin()
	for _, tx := range []*Tx{first, second} {
		id, err := tx.Append(ctx, Record{AccountID: 1, Kind: KindDeposit, Amount: 100, ExternalReference: "gw-dup"})
		require.NoError(t, err)
		_, err = tx.MarkPaid(ctx, id)
		require.NoError(t, err)
	}

	require.NoError(t, j.Validate(first))
	j.Apply(first)
	assert.ErrorIs(t, j.Validate(second), apperr.ErrConflict)
}

func TestSameReferenceAllowedAcrossKinds(t *testing.T) {
	ctx := context.Background()
	j := NewInMemory()

	for _, kind := range []Kind{KindDeposit, KindWithdrawal} {
		id, err := j.Append(ctx, Record{AccountID: 1, Kind: kind, Amount: 10, ExternalReference: "gw-7"})
		require.NoError(t, err)
		_, err = j.MarkPaid(ctx, id)
		require.NoError(t, err)
	}
}

func TestCountPaidAndList(t *testing.T) {
	ctx := context.Background()
	j := NewInMemory()

	paid, err := j.Append(ctx, Record{AccountID: 1, Kind: KindDeposit, Amount: 10})
	require.NoError(t, err)
	_, err = j.MarkPaid(ctx, paid)
	require.NoError(t, err)

	failed, err := j.Append(ctx, Record{AccountID: 1, Kind: KindDeposit, Amount: 20})
	require.NoError(t, err)
	_, err = j.MarkFailed(ctx, failed)
	require.NoError(t, err)

	_, err = j.Append(ctx, Record{AccountID: 2, Kind: KindDeposit, Amount: 30})
	require.NoError(t, err)

	n, err := j.CountPaid(ctx, 1, KindDeposit)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := j.ListByAccount(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, failed, list[0].ID, "newest first")
	assert.Equal(t, paid, list[1].ID)
}
