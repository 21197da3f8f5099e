// Package deposit turns payment-gateway notifications into exactly-once
// balance credits.
package deposit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/bonus"
	"github.com/ronaldoarch/postenobicho-sub001/internal/identity"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/notification"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
)

// AccountResolver finds the account a notification refers to.
type AccountResolver interface {
	Resolve(ctx context.Context, l identity.Lookup) (identity.Profile, error)
}

// Service settles deposit notifications.
type Service struct {
	store    store.Store
	accounts AccountResolver
	policy   bonus.Policy
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewService(st store.Store, accounts AccountResolver, policy bonus.Policy, notifier notification.Notifier, logger zerolog.Logger) *Service {
	return &Service{store: st, accounts: accounts, policy: policy, notifier: notifier, logger: logger}
}

// Result is the outcome of Settle. A Duplicate result repeats the original
// settlement, including the bonus it granted.
type Result struct {
	TransactionID   string
	AccountID       int64
	Amount          int64
	BonusApplied    int64
	RolloverImposed int64
	Duplicate       bool
	Ignored         bool
}

func duplicateOf(rec journal.Record) Result {
	return Result{
		TransactionID:   rec.ID,
		AccountID:       rec.AccountID,
		Amount:          rec.Amount,
		BonusApplied:    rec.BonusApplied,
		RolloverImposed: rec.RolloverImposed,
		Duplicate:       true,
	}
}

// Settle processes one notification: parse, resolve the account, dedup on
// the gateway reference, compute the bonus and commit the journal record and
// the ledger credit in one unit of work. Redelivery of a settled
// notification returns the prior result and changes nothing.
func (s *Service) Settle(ctx context.Context, raw RawNotification) (Result, error) {
	logger := logging.FromContext(ctx, s.logger)

	parsed, err := Parse(raw)
	if err != nil {
		return Result{}, err
	}
	paid, ok := parsed.(*Paid)
	if !ok {
		ignored := parsed.(*Ignored)
		logger.Info().Str("status", ignored.Status).Str("external_id", ignored.ExternalReference).Msg("deposit notification ignored")
		return Result{Ignored: true}, nil
	}

	// The identity store is remote, so resolve before taking the account lock.
	profile, err := s.accounts.Resolve(ctx, identity.Lookup{AccountID: paid.AccountID, Email: paid.Email})
	if err != nil {
		return Result{}, err
	}

	if paid.ExternalReference != "" {
		rec, found, err := s.store.Journal().FindPaidByExternalReference(ctx, journal.KindDeposit, paid.ExternalReference)
		if err != nil {
			return Result{}, fmt.Errorf("dedup lookup: %w", err)
		}
		if found {
			logger.Info().Str("external_id", paid.ExternalReference).Str("transaction_id", rec.ID).Msg("duplicate deposit notification")
			return duplicateOf(rec), nil
		}
	}

	var res Result
	err = s.store.WithAccount(ctx, profile.AccountID, func(ctx context.Context, u store.Unit) error {
		res, err = s.settleLocked(ctx, u, profile.AccountID, paid)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("settle deposit for account %d: %w", profile.AccountID, err)
	}

	if res.Duplicate {
		logger.Info().Str("external_id", paid.ExternalReference).Str("transaction_id", res.TransactionID).Msg("duplicate deposit notification")
		return res, nil
	}

	logger.Info().
		Int64("account_id", res.AccountID).
		Str("transaction_id", res.TransactionID).
		Int64("amount", res.Amount).
		Int64("bonus", res.BonusApplied).
		Int64("rollover", res.RolloverImposed).
		Msg("deposit settled")
	s.notify(ctx, res, paid.ExternalReference)
	return res, nil
}

func (s *Service) settleLocked(ctx context.Context, u store.Unit, accountID int64, paid *Paid) (Result, error) {
	if paid.ExternalReference != "" {
		rec, found, err := u.Journal().FindPaidByExternalReference(ctx, journal.KindDeposit, paid.ExternalReference)
		if err != nil {
			return Result{}, err
		}
		if found {
			return duplicateOf(rec), nil
		}
	}

	prior, err := u.Journal().CountPaid(ctx, accountID, journal.KindDeposit)
	if err != nil {
		return Result{}, err
	}
	grant := bonus.Compute(paid.Amount, prior, s.policy)

	id, err := u.Journal().Append(ctx, journal.Record{
		AccountID:         accountID,
		Kind:              journal.KindDeposit,
		Amount:            paid.Amount,
		BonusApplied:      grant.Bonus,
		RolloverImposed:   grant.Rollover,
		ExternalReference: paid.ExternalReference,
		Description:       "gateway deposit",
	})
	if err != nil {
		return Result{}, err
	}
	if _, err := u.Ledger().CreditDeposit(ctx, paid.Amount, grant.Bonus, grant.Rollover); err != nil {
		return Result{}, err
	}
	if _, err := u.Journal().MarkPaid(ctx, id); err != nil {
		return Result{}, err
	}

	return Result{
		TransactionID:   id,
		AccountID:       accountID,
		Amount:          paid.Amount,
		BonusApplied:    grant.Bonus,
		RolloverImposed: grant.Rollover,
	}, nil
}

func (s *Service) notify(ctx context.Context, res Result, ref string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, notification.Message{
		Kind:      notification.KindDepositSettled,
		AccountID: res.AccountID,
		Amount:    res.Amount,
		Reference: ref,
		Body:      fmt.Sprintf("deposit of %d credited, bonus %d", res.Amount, res.BonusApplied),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("transaction_id", res.TransactionID).Msg("deposit notification delivery failed")
	}
}
