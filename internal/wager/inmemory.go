package wager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// InMemory is a wager store for tests. Unit-of-work writes go through a Tx
// and are applied field by field so a concurrent payout correction is not
// overwritten by a stale copy.
type InMemory struct {
	mu     sync.RWMutex
	wagers map[string]Wager
}

func NewInMemory() *InMemory {
	return &InMemory{wagers: make(map[string]Wager)}
}

// Put stores w as is. Test helper.
func (m *InMemory) Put(w Wager) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wagers[w.ID] = w
}

func (m *InMemory) Begin() *Tx {
	return &Tx{
		base:     m,
		inserts:  make(map[string]Wager),
		seen:     make(map[string]Wager),
		settles:  make(map[string]settlement),
		reprices: make(map[string]reprice),
	}
}

func (m *InMemory) Insert(ctx context.Context, w Wager) error {
	tx := m.Begin()
	if err := tx.Insert(ctx, w); err != nil {
		return err
	}
	return m.CommitWith(tx, nil)
}

func (m *InMemory) Get(_ context.Context, id string) (Wager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wagers[id]
	if !ok {
		return Wager{}, ErrNotFound
	}
	return w, nil
}

func (m *InMemory) GetForUpdate(ctx context.Context, id string) (Wager, error) {
	return m.Get(ctx, id)
}

func (m *InMemory) MarkSettled(ctx context.Context, id string, outcome Outcome, paidOut bool) (Wager, error) {
	tx := m.Begin()
	w, err := tx.MarkSettled(ctx, id, outcome, paidOut)
	if err != nil {
		return Wager{}, err
	}
	return w, m.CommitWith(tx, nil)
}

func (m *InMemory) ListUnpaid(_ context.Context, afterID string, limit int) ([]Wager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Wager, 0)
	for _, w := range m.wagers {
		if !w.PaidOut && w.ID > afterID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateExpectedPayout checks PaidOut and writes under one lock.
func (m *InMemory) UpdateExpectedPayout(_ context.Context, id string, multiplier decimal.Decimal, payout int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[id]
	if !ok || w.PaidOut {
		return false, nil
	}
	w.RecordedMultiplier = multiplier
	w.ExpectedPayout = payout
	w.UpdatedAt = time.Now().UTC()
	m.wagers[id] = w
	return true, nil
}

// CommitWith validates tx, runs fn and applies tx while holding the store
// lock, so a payout correction cannot land between the check and the write.
// Nothing is applied when fn fails.
func (m *InMemory) CommitWith(tx *Tx, fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.validateLocked(tx); err != nil {
		return err
	}
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	m.applyLocked(tx)
	return nil
}

func (m *InMemory) validateLocked(tx *Tx) error {
	for id := range tx.inserts {
		if _, exists := m.wagers[id]; exists {
			return fmt.Errorf("%w: wager %s exists", apperr.ErrConflict, id)
		}
	}
	for id := range tx.settles {
		w, ok := m.wagers[id]
		if !ok {
			continue
		}
		if w.PaidOut {
			return fmt.Errorf("%w: wager %s already paid out", apperr.ErrConflict, id)
		}
		if seen, read := tx.seen[id]; read &&
			(seen.ExpectedPayout != w.ExpectedPayout || !seen.RecordedMultiplier.Equal(w.RecordedMultiplier)) {
			return fmt.Errorf("%w: wager %s repriced during settlement", apperr.ErrConflict, id)
		}
	}
	return nil
}

func (m *InMemory) applyLocked(tx *Tx) {
	for id, w := range tx.inserts {
		m.wagers[id] = w
	}
	for id, rp := range tx.reprices {
		if w, ok := m.wagers[id]; ok && !w.PaidOut {
			w.RecordedMultiplier = rp.multiplier
			w.ExpectedPayout = rp.payout
			w.UpdatedAt = rp.at
			m.wagers[id] = w
		}
	}
	for id, s := range tx.settles {
		if w, ok := m.wagers[id]; ok {
			w.Outcome = s.outcome
			w.PaidOut = s.paidOut
			at := s.at
			w.SettledAt = &at
			w.UpdatedAt = s.at
			m.wagers[id] = w
		}
	}
}

type settlement struct {
	outcome Outcome
	paidOut bool
	at      time.Time
}

type reprice struct {
	multiplier decimal.Decimal
	payout     int64
	at         time.Time
}

// Tx buffers wager writes for one unit of work. seen keeps the first copy
// read from the base store so settlement can detect a concurrent reprice.
type Tx struct {
	base     *InMemory
	inserts  map[string]Wager
	seen     map[string]Wager
	settles  map[string]settlement
	reprices map[string]reprice
}

func (t *Tx) view(id string) (Wager, bool) {
	w, ok := t.inserts[id]
	if !ok {
		if w, ok = t.seen[id]; !ok {
			t.base.mu.RLock()
			w, ok = t.base.wagers[id]
			t.base.mu.RUnlock()
			if ok {
				t.seen[id] = w
			}
		}
	}
	if !ok {
		return Wager{}, false
	}
	if rp, ok := t.reprices[id]; ok && !w.PaidOut {
		w.RecordedMultiplier = rp.multiplier
		w.ExpectedPayout = rp.payout
	}
	if s, ok := t.settles[id]; ok {
		w.Outcome = s.outcome
		w.PaidOut = s.paidOut
		at := s.at
		w.SettledAt = &at
	}
	return w, true
}

func (t *Tx) Insert(_ context.Context, w Wager) error {
	if _, exists := t.view(w.ID); exists {
		return fmt.Errorf("%w: wager %s exists", apperr.ErrConflict, w.ID)
	}
	now := time.Now().UTC()
	if w.Outcome == "" {
		w.Outcome = OutcomePending
	}
	w.PaidOut = false
	w.CreatedAt, w.UpdatedAt = now, now
	t.inserts[w.ID] = w
	return nil
}

func (t *Tx) Get(_ context.Context, id string) (Wager, error) {
	w, ok := t.view(id)
	if !ok {
		return Wager{}, ErrNotFound
	}
	return w, nil
}

func (t *Tx) GetForUpdate(ctx context.Context, id string) (Wager, error) {
	return t.Get(ctx, id)
}

func (t *Tx) MarkSettled(_ context.Context, id string, outcome Outcome, paidOut bool) (Wager, error) {
	w, ok := t.view(id)
	if !ok || w.PaidOut {
		return Wager{}, ErrNotFound
	}
	t.settles[id] = settlement{outcome: outcome, paidOut: paidOut, at: time.Now().UTC()}
	w, _ = t.view(id)
	return w, nil
}

func (t *Tx) ListUnpaid(ctx context.Context, afterID string, limit int) ([]Wager, error) {
	return t.base.ListUnpaid(ctx, afterID, limit)
}

func (t *Tx) UpdateExpectedPayout(_ context.Context, id string, multiplier decimal.Decimal, payout int64) (bool, error) {
	w, ok := t.view(id)
	if !ok || w.PaidOut {
		return false, nil
	}
	t.reprices[id] = reprice{multiplier: multiplier, payout: payout, at: time.Now().UTC()}
	return true, nil
}
