// Package apperr defines the error kinds surfaced by the settlement workflows
// and maps storage failures onto them.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidInput covers malformed or non-positive amounts and missing
	// identifying fields. No side effects happen before it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccountNotFound is returned when neither the account id nor the
	// email resolves to an account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds occurs when a debit exceeds the withdrawable balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict means a concurrent write won a race. Units of work retry it
	// a bounded number of times before surfacing it.
	ErrConflict = errors.New("persistence conflict")

	// ErrUnavailable means the database or identity store could not be reached.
	// Callers should retry; settlement is idempotent.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrNotFound is a generic missing-row error for non-account entities.
	ErrNotFound = errors.New("not found")
)

// Invalid builds an ErrInvalidInput with a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Retryable reports whether the caller may safely resubmit the request.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}

// FromPostgres classifies a pgx error. Errors that do not belong to a known
// class are returned unchanged.
func FromPostgres(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505", "55P03":
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case "08000", "08001", "08003", "08004", "08006", "53300", "57P01", "57P02", "57P03":
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
