// Package credit grants operator-initiated balance credits.
package credit

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/notification"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
)

const defaultDescription = "manual credit"

// Service credits accounts on behalf of an operator.
type Service struct {
	store    store.Store
	notifier notification.Notifier
	logger   zerolog.Logger
}

// NewService builds a manual credit service.
func NewService(st store.Store, notifier notification.Notifier, logger zerolog.Logger) *Service {
	return &Service{store: st, notifier: notifier, logger: logger}
}

// Input captures a manual credit request. Amount is in minor units.
type Input struct {
	AccountID   int64
	Amount      int64
	Description string
}

// Result reports the balance around the credit.
type Result struct {
	TransactionID string
	AccountID     int64
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
}

// Grant adds amount to the account balance and journals it as a paid
// manual_credit. No bonus or rollover is involved. Repeating a call credits
// again; callers that need idempotency go through the HTTP Idempotency-Key.
func (s *Service) Grant(ctx context.Context, in Input) (Result, error) {
	if in.AccountID <= 0 {
		return Result{}, apperr.Invalid("account id must be positive")
	}
	if in.Amount <= 0 {
		return Result{}, apperr.Invalid("amount must be positive")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = defaultDescription
	}

	var res Result
	err := s.store.WithAccount(ctx, in.AccountID, func(ctx context.Context, u store.Unit) error {
		before := u.Ledger().Account().Balance

		id, err := u.Journal().Append(ctx, journal.Record{
			AccountID:   in.AccountID,
			Kind:        journal.KindManualCredit,
			Amount:      in.Amount,
			Description: desc,
		})
		if err != nil {
			return err
		}
		after, err := u.Ledger().CreditManual(ctx, in.Amount)
		if err != nil {
			return err
		}
		if _, err := u.Journal().MarkPaid(ctx, id); err != nil {
			return err
		}

		res = Result{
			TransactionID: id,
			AccountID:     in.AccountID,
			Amount:        in.Amount,
			BalanceBefore: before,
			BalanceAfter:  after.Balance,
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("manual credit for account %d: %w", in.AccountID, err)
	}

	logger := logging.FromContext(ctx, s.logger)
	logger.Info().
		Int64("account_id", res.AccountID).
		Str("transaction_id", res.TransactionID).
		Int64("amount", res.Amount).
		Int64("balance_after", res.BalanceAfter).
		Msg("manual credit granted")

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:      notification.KindManualCredit,
			AccountID: res.AccountID,
			Amount:    res.Amount,
			Reference: res.TransactionID,
			Body:      desc,
		}); err != nil {
			s.logger.Warn().Err(err).Str("transaction_id", res.TransactionID).Msg("manual credit notification failed")
		}
	}
	return res, nil
}
