package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

func TestResolveByIDThenEmail(t *testing.T) {
	repo := NewMemoryRepository(
		Profile{AccountID: 1, Email: "ana@example.com", Active: true},
		Profile{AccountID: 2, Email: "bia@example.com", Active: true},
	)
	svc := NewService(repo)
	ctx := context.Background()

	p, err := svc.Resolve(ctx, Lookup{AccountID: 2, Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.AccountID, "id lookup wins")

	p, err = svc.Resolve(ctx, Lookup{AccountID: 99, Email: "ANA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.AccountID, "email fallback")
}

func TestResolveNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.Resolve(context.Background(), Lookup{AccountID: 5, Email: "nobody@example.com"})
	assert.ErrorIs(t, err, apperr.ErrAccountNotFound)
}

func TestResolveRequiresIdentifier(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.Resolve(context.Background(), Lookup{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

type downRepository struct{}

func (downRepository) FindByID(context.Context, int64) (Profile, error) {
	return Profile{}, apperr.ErrUnavailable
}

func (downRepository) FindByEmail(context.Context, string) (Profile, error) {
	return Profile{}, apperr.ErrUnavailable
}

func TestResolvePropagatesUnavailable(t *testing.T) {
	svc := NewService(downRepository{})

	_, err := svc.Resolve(context.Background(), Lookup{AccountID: 1})
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}
