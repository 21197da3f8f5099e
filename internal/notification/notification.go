package notification

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const (
	KindDepositSettled  = "deposit_settled"
	KindManualCredit    = "manual_credit"
	KindWithdrawal      = "withdrawal"
	KindRolloverCleared = "rollover_cleared"
	KindWagerSettled    = "wager_settled"
)

// Message describes a notification payload. Messages are sent after the
// unit of work that produced them has committed.
type Message struct {
	Kind      string
	AccountID int64
	Amount    int64
	Reference string
	Body      string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger zerolog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger zerolog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, m Message) error {
	if n == nil {
		return nil
	}
	n.logger.Info().
		Str("kind", m.Kind).
		Int64("account_id", m.AccountID).
		Int64("amount", m.Amount).
		Str("reference", m.Reference).
		Str("body", m.Body).
		Msg("notification")
	return nil
}

// Recorder keeps sent messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Send(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

// Messages returns a copy of what was sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// OfKind filters Messages by kind.
func (r *Recorder) OfKind(kind string) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
