// Package wallet serves balance reads, the transaction history and
// withdrawals.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/notification"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Service exposes wallet operations backed by the store.
type Service struct {
	store    store.Store
	notifier notification.Notifier
	logger   zerolog.Logger
}

// NewService builds a wallet service instance.
func NewService(st store.Store, notifier notification.Notifier, logger zerolog.Logger) *Service {
	return &Service{store: st, notifier: notifier, logger: logger}
}

// Balance returns committed account state.
func (s *Service) Balance(ctx context.Context, accountID int64) (Balance, error) {
	acct, err := s.store.Account(ctx, accountID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		AccountID:        acct.ID,
		Balance:          acct.Balance,
		BonusBalance:     acct.BonusBalance,
		RolloverRequired: acct.RolloverRequired,
		Withdrawable:     acct.Withdrawable(),
		Active:           acct.Active,
		AsOf:             time.Now().UTC(),
	}, nil
}

// Transactions lists the newest journal records of an account.
func (s *Service) Transactions(ctx context.Context, accountID int64, limit int) ([]journal.Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if _, err := s.store.Account(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.Journal().ListByAccount(ctx, accountID, limit)
}

// Withdraw debits the balance. An attempt that exceeds the withdrawable
// balance is still journaled, as failed, and returns
// apperr.ErrInsufficientFunds with the failed record's id.
func (s *Service) Withdraw(ctx context.Context, in WithdrawInput) (WithdrawResult, error) {
	if in.Amount <= 0 {
		return WithdrawResult{}, apperr.Invalid("amount must be positive")
	}
	in.ExternalReference = strings.TrimSpace(in.ExternalReference)

	var (
		res          WithdrawResult
		insufficient bool
	)
	err := s.store.WithAccount(ctx, in.AccountID, func(ctx context.Context, u store.Unit) error {
		res, insufficient = WithdrawResult{}, false

		if in.ExternalReference != "" {
			prior, found, err := u.Journal().FindPaidByExternalReference(ctx, journal.KindWithdrawal, in.ExternalReference)
			if err != nil {
				return err
			}
			if found {
				if prior.AccountID != in.AccountID {
					return apperr.Invalid("reference %q belongs to another account", in.ExternalReference)
				}
				res = WithdrawResult{
					TransactionID: prior.ID,
					Status:        string(prior.Status),
					BalanceAfter:  u.Ledger().Account().Balance,
					Duplicate:     true,
				}
				return nil
			}
		}

		id, err := u.Journal().Append(ctx, journal.Record{
			AccountID:         in.AccountID,
			Kind:              journal.KindWithdrawal,
			Amount:            in.Amount,
			ExternalReference: in.ExternalReference,
			Description:       "withdrawal",
		})
		if err != nil {
			return err
		}

		after, err := u.Ledger().DebitWithdrawal(ctx, in.Amount)
		switch {
		case errors.Is(err, apperr.ErrInsufficientFunds):
			status, err := u.Journal().MarkFailed(ctx, id)
			if err != nil {
				return err
			}
			insufficient = true
			res = WithdrawResult{TransactionID: id, Status: string(status), BalanceAfter: u.Ledger().Account().Balance}
			return nil
		case err != nil:
			return err
		}

		status, err := u.Journal().MarkPaid(ctx, id)
		if err != nil {
			return err
		}
		res = WithdrawResult{TransactionID: id, Status: string(status), BalanceAfter: after.Balance}
		return nil
	})
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("withdraw from account %d: %w", in.AccountID, err)
	}

	logger := logging.FromContext(ctx, s.logger)
	if insufficient {
		logger.Info().Int64("account_id", in.AccountID).Int64("amount", in.Amount).Str("transaction_id", res.TransactionID).Msg("withdrawal refused: insufficient funds")
		return res, apperr.ErrInsufficientFunds
	}
	if res.Duplicate {
		return res, nil
	}

	logger.Info().Int64("account_id", in.AccountID).Int64("amount", in.Amount).Str("transaction_id", res.TransactionID).Msg("withdrawal paid")
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:      notification.KindWithdrawal,
			AccountID: in.AccountID,
			Amount:    in.Amount,
			Reference: in.ExternalReference,
			Body:      fmt.Sprintf("withdrawal of %d paid", in.Amount),
		}); err != nil {
			s.logger.Warn().Err(err).Str("transaction_id", res.TransactionID).Msg("withdrawal notification failed")
		}
	}
	return res, nil
}
