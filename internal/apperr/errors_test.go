package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestFromPostgres(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "serialization failure", in: &pgconn.PgError{Code: "40001"}, want: ErrConflict},
		{name: "deadlock", in: &pgconn.PgError{Code: "40P01"}, want: ErrConflict},
		{name: "unique violation", in: &pgconn.PgError{Code: "23505"}, want: ErrConflict},
		{name: "admin shutdown", in: &pgconn.PgError{Code: "57P01"}, want: ErrUnavailable},
		{name: "too many connections", in: &pgconn.PgError{Code: "53300"}, want: ErrUnavailable},
		{name: "deadline", in: fmt.Errorf("query: %w", context.DeadlineExceeded), want: ErrUnavailable},
		{name: "no rows", in: pgx.ErrNoRows, want: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromPostgres(tt.in)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.in)
		})
	}
}

func TestFromPostgresPassesThroughUnknownErrors(t *testing.T) {
	check := &pgconn.PgError{Code: "23514"}
	assert.Same(t, error(check), FromPostgres(check))

	plain := errors.New("boom")
	assert.Equal(t, plain, FromPostgres(plain))
	assert.NoError(t, FromPostgres(nil))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(fmt.Errorf("commit: %w", ErrConflict)))
	assert.True(t, Retryable(ErrUnavailable))
	assert.False(t, Retryable(ErrInsufficientFunds))
	assert.False(t, Retryable(Invalid("amount must be positive")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(Invalid("bad")))
	assert.Equal(t, 404, HTTPStatus(ErrAccountNotFound))
	assert.Equal(t, 422, HTTPStatus(fmt.Errorf("withdraw: %w", ErrInsufficientFunds)))
	assert.Equal(t, 409, HTTPStatus(ErrConflict))
	assert.Equal(t, 503, HTTPStatus(FromPostgres(&pgconn.PgError{Code: "08006"})))
	assert.Equal(t, 500, HTTPStatus(errors.New("boom")))
}
