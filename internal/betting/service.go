// Package betting places wagers against the ledger and settles them once the
// draw result is known.
package betting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
	"github.com/ronaldoarch/postenobicho-sub001/internal/journal"
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/logging"
	"github.com/ronaldoarch/postenobicho-sub001/internal/money"
	"github.com/ronaldoarch/postenobicho-sub001/internal/notification"
	"github.com/ronaldoarch/postenobicho-sub001/internal/quotation"
	"github.com/ronaldoarch/postenobicho-sub001/internal/store"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

// Quoter prices a wager from the current quotation snapshot.
type Quoter interface {
	Snapshot() *quotation.Snapshot
}

// Service places and settles wagers.
type Service struct {
	store       store.Store
	quotes      Quoter
	notifier    notification.Notifier
	autoRelease bool
	logger      zerolog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithAutoRelease moves the bonus balance into the balance in the same unit
// of work that clears the rollover requirement.
func WithAutoRelease(enabled bool) Option {
	return func(s *Service) { s.autoRelease = enabled }
}

func NewService(st store.Store, quotes Quoter, notifier notification.Notifier, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{store: st, quotes: quotes, notifier: notifier, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceInput describes a wager. Stake is in minor units.
type PlaceInput struct {
	AccountID    int64
	ModalityCode string
	Number       string
	Stake        int64
}

// Placement is the committed result of Place.
type Placement struct {
	Wager         wager.Wager
	TransactionID string
	Split         ledger.StakeSplit
	Rollover      ledger.RolloverChange
	BonusReleased int64
}

// Place prices the wager, then in one unit of work debits the stake, counts
// it against the rollover requirement and stores the wager with the
// multiplier in force at placement.
func (s *Service) Place(ctx context.Context, in PlaceInput) (Placement, error) {
	if in.Stake <= 0 {
		return Placement{}, apperr.Invalid("stake must be positive")
	}
	if strings.TrimSpace(in.ModalityCode) == "" {
		return Placement{}, apperr.Invalid("modality is required")
	}

	quote, err := s.quotes.Snapshot().Quote(in.ModalityCode, in.Number)
	if err != nil {
		return Placement{}, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	draft := wager.Wager{
		ID:                 wager.NewID(),
		AccountID:          in.AccountID,
		ModalityCode:       quote.Modality.Code,
		ChosenNumber:       quote.Number,
		Stake:              in.Stake,
		RecordedMultiplier: quote.Multiplier,
		ExpectedPayout:     money.Payout(in.Stake, quote.Multiplier),
		Outcome:            wager.OutcomePending,
	}

	var placed Placement
	err = s.store.WithAccount(ctx, in.AccountID, func(ctx context.Context, u store.Unit) error {
		var err error
		placed, err = s.placeLocked(ctx, u, draft)
		return err
	})
	if err != nil {
		return Placement{}, fmt.Errorf("place wager for account %d: %w", in.AccountID, err)
	}

	logger := logging.FromContext(ctx, s.logger)
	logger.Info().
		Str("wager_id", placed.Wager.ID).
		Int64("account_id", in.AccountID).
		Str("modality", placed.Wager.ModalityCode).
		Int64("stake", in.Stake).
		Int64("from_bonus", placed.Split.FromBonus).
		Str("multiplier", placed.Wager.RecordedMultiplier.String()).
		Msg("wager placed")

	if placed.Rollover.Cleared {
		s.send(ctx, notification.Message{
			Kind:      notification.KindRolloverCleared,
			AccountID: in.AccountID,
			Amount:    placed.BonusReleased,
			Reference: placed.Wager.ID,
			Body:      "rollover requirement met",
		})
	}
	return placed, nil
}

func (s *Service) placeLocked(ctx context.Context, u store.Unit, w wager.Wager) (Placement, error) {
	if acct := u.Ledger().Account(); !acct.Active {
		return Placement{}, apperr.Invalid("account %d is inactive", acct.ID)
	}

	txID, err := u.Journal().Append(ctx, journal.Record{
		AccountID:         w.AccountID,
		Kind:              journal.KindWagerStake,
		Amount:            w.Stake,
		ExternalReference: w.ID,
		Description:       fmt.Sprintf("%s %s", w.ModalityCode, w.ChosenNumber),
	})
	if err != nil {
		return Placement{}, err
	}

	split, err := u.Ledger().DebitStake(ctx, w.Stake)
	if err != nil {
		return Placement{}, err
	}
	w.StakeFromBonus = split.FromBonus

	change, err := u.Ledger().ReduceRollover(ctx, w.Stake)
	if err != nil {
		return Placement{}, err
	}

	var released int64
	if change.Cleared && s.autoRelease {
		if released, err = s.releaseBonus(ctx, u, w.AccountID); err != nil {
			return Placement{}, err
		}
	}

	if err := u.Wagers().Insert(ctx, w); err != nil {
		return Placement{}, err
	}
	if _, err := u.Journal().MarkPaid(ctx, txID); err != nil {
		return Placement{}, err
	}
	stored, err := u.Wagers().Get(ctx, w.ID)
	if err != nil {
		return Placement{}, err
	}

	return Placement{
		Wager:         stored,
		TransactionID: txID,
		Split:         split,
		Rollover:      change,
		BonusReleased: released,
	}, nil
}

func (s *Service) releaseBonus(ctx context.Context, u store.Unit, accountID int64) (int64, error) {
	amount := u.Ledger().Account().BonusBalance
	if amount == 0 {
		return 0, nil
	}
	id, err := u.Journal().Append(ctx, journal.Record{
		AccountID:   accountID,
		Kind:        journal.KindBonusRelease,
		Amount:      amount,
		Description: "bonus released after rollover",
	})
	if err != nil {
		return 0, err
	}
	released, err := u.Ledger().ReleaseBonus(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := u.Journal().MarkPaid(ctx, id); err != nil {
		return 0, err
	}
	return released, nil
}

// Settlement is the committed result of Settle.
type Settlement struct {
	Wager          wager.Wager
	TransactionID  string
	AlreadySettled bool
}

// Settle records the outcome of a pending wager. A win credits the expected
// payout and flips paid_out in the same unit of work. Repeating a
// settlement with the same outcome is a no-op; a different outcome is
// rejected.
func (s *Service) Settle(ctx context.Context, wagerID string, outcome wager.Outcome) (Settlement, error) {
	if outcome != wager.OutcomeWon && outcome != wager.OutcomeLost {
		return Settlement{}, apperr.Invalid("outcome must be won or lost")
	}

	existing, err := s.store.Wagers().Get(ctx, wagerID)
	if err != nil {
		return Settlement{}, wagerError(wagerID, err)
	}

	var res Settlement
	err = s.store.WithAccount(ctx, existing.AccountID, func(ctx context.Context, u store.Unit) error {
		var err error
		res, err = settleLocked(ctx, u, wagerID, outcome)
		return err
	})
	if err != nil {
		return Settlement{}, fmt.Errorf("settle wager %s: %w", wagerID, wagerError(wagerID, err))
	}
	if res.AlreadySettled {
		return res, nil
	}

	logger := logging.FromContext(ctx, s.logger)
	logger.Info().
		Str("wager_id", wagerID).
		Int64("account_id", res.Wager.AccountID).
		Str("outcome", string(outcome)).
		Int64("payout", paidAmount(res.Wager)).
		Msg("wager settled")
	s.send(ctx, notification.Message{
		Kind:      notification.KindWagerSettled,
		AccountID: res.Wager.AccountID,
		Amount:    paidAmount(res.Wager),
		Reference: wagerID,
		Body:      string(outcome),
	})
	return res, nil
}

func settleLocked(ctx context.Context, u store.Unit, wagerID string, outcome wager.Outcome) (Settlement, error) {
	current, err := u.Wagers().GetForUpdate(ctx, wagerID)
	if err != nil {
		return Settlement{}, err
	}
	if current.Outcome != wager.OutcomePending {
		if current.Outcome == outcome {
			return Settlement{Wager: current, AlreadySettled: true}, nil
		}
		return Settlement{}, apperr.Invalid("wager %s already settled as %s", wagerID, current.Outcome)
	}

	if outcome == wager.OutcomeLost {
		settled, err := u.Wagers().MarkSettled(ctx, wagerID, outcome, false)
		if err != nil {
			return Settlement{}, err
		}
		return Settlement{Wager: settled}, nil
	}

	var txID string
	if current.ExpectedPayout > 0 {
		txID, err = u.Journal().Append(ctx, journal.Record{
			AccountID:         current.AccountID,
			Kind:              journal.KindWagerPayout,
			Amount:            current.ExpectedPayout,
			ExternalReference: current.ID,
			Description:       fmt.Sprintf("payout at %s", current.RecordedMultiplier.String()),
		})
		if err != nil {
			return Settlement{}, err
		}
		if _, err := u.Ledger().CreditPayout(ctx, current.ExpectedPayout); err != nil {
			return Settlement{}, err
		}
		if _, err := u.Journal().MarkPaid(ctx, txID); err != nil {
			return Settlement{}, err
		}
	}

	settled, err := u.Wagers().MarkSettled(ctx, wagerID, outcome, true)
	if err != nil {
		return Settlement{}, err
	}
	return Settlement{Wager: settled, TransactionID: txID}, nil
}

func paidAmount(w wager.Wager) int64 {
	if w.PaidOut {
		return w.ExpectedPayout
	}
	return 0
}

func wagerError(id string, err error) error {
	if errors.Is(err, wager.ErrNotFound) && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: wager %s", apperr.ErrNotFound, id)
	}
	return err
}

func (s *Service) send(ctx context.Context, m notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, m); err != nil {
		s.logger.Warn().Err(err).Str("kind", m.Kind).Int64("account_id", m.AccountID).Msg("notification delivery failed")
	}
}
