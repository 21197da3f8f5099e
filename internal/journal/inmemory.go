package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// InMemory is a journal for tests. Writes made through a Tx stay invisible
// to other readers until Apply.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]Record
	seq     map[string]int
	next    int
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]Record), seq: make(map[string]int)}
}

// Begin opens a buffered view over the committed records.
func (m *InMemory) Begin() *Tx {
	return &Tx{base: m, staged: make(map[string]Record)}
}

func (m *InMemory) Append(ctx context.Context, rec Record) (string, error) {
	tx := m.Begin()
	id, err := tx.Append(ctx, rec)
	if err != nil {
		return "", err
	}
	return id, m.commit(tx)
}

func (m *InMemory) MarkPaid(ctx context.Context, id string) (Status, error) {
	return m.resolveNow(ctx, id, StatusPaid)
}

func (m *InMemory) MarkFailed(ctx context.Context, id string) (Status, error) {
	return m.resolveNow(ctx, id, StatusFailed)
}

func (m *InMemory) resolveNow(ctx context.Context, id string, status Status) (Status, error) {
	tx := m.Begin()
	got, err := tx.resolve(ctx, id, status)
	if err != nil {
		return "", err
	}
	return got, m.commit(tx)
}

func (m *InMemory) commit(tx *Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.validateLocked(tx); err != nil {
		return err
	}
	m.applyLocked(tx)
	return nil
}

func (m *InMemory) Get(ctx context.Context, id string) (Record, error) {
	return m.Begin().Get(ctx, id)
}

func (m *InMemory) FindPaidByExternalReference(ctx context.Context, kind Kind, ref string) (Record, bool, error) {
	return m.Begin().FindPaidByExternalReference(ctx, kind, ref)
}

func (m *InMemory) CountPaid(ctx context.Context, accountID int64, kind Kind) (int, error) {
	return m.Begin().CountPaid(ctx, accountID, kind)
}

func (m *InMemory) ListByAccount(ctx context.Context, accountID int64, limit int) ([]Record, error) {
	return m.Begin().ListByAccount(ctx, accountID, limit)
}

// Validate checks that tx can be applied: no second paid record for a
// (kind, reference) pair and no record resolved twice.
func (m *InMemory) Validate(tx *Tx) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validateLocked(tx)
}

// Apply publishes the writes of tx. Callers must Validate under the same
// exclusive section first.
func (m *InMemory) Apply(tx *Tx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyLocked(tx)
}

func (m *InMemory) validateLocked(tx *Tx) error {
	for id, rec := range tx.staged {
		if cur, ok := m.records[id]; ok && cur.Status.Terminal() && cur.Status != rec.Status {
			return fmt.Errorf("%w: record %s already %s", apperr.ErrConflict, id, cur.Status)
		}
		if rec.Status != StatusPaid || rec.ExternalReference == "" {
			continue
		}
		for otherID, other := range m.records {
			if otherID != id && other.Status == StatusPaid && other.Kind == rec.Kind && other.ExternalReference == rec.ExternalReference {
				return fmt.Errorf("%w: paid %s with reference %q already exists", apperr.ErrConflict, rec.Kind, rec.ExternalReference)
			}
		}
	}
	return nil
}

func (m *InMemory) applyLocked(tx *Tx) {
	for _, id := range tx.order {
		if _, ok := m.seq[id]; !ok {
			m.next++
			m.seq[id] = m.next
		}
	}
	for id, rec := range tx.staged {
		m.records[id] = rec
	}
}

// Tx is a buffered journal view used by one unit of work.
type Tx struct {
	base   *InMemory
	staged map[string]Record
	order  []string
}

func (t *Tx) lookup(id string) (Record, bool) {
	if rec, ok := t.staged[id]; ok {
		return rec, true
	}
	t.base.mu.RLock()
	defer t.base.mu.RUnlock()
	rec, ok := t.base.records[id]
	return rec, ok
}

// all returns the merged view ordered by insertion.
func (t *Tx) all() []Record {
	t.base.mu.RLock()
	merged := make(map[string]Record, len(t.base.records)+len(t.staged))
	order := make(map[string]int, len(t.base.records)+len(t.staged))
	for id, rec := range t.base.records {
		merged[id] = rec
		order[id] = t.base.seq[id]
	}
	next := t.base.next
	t.base.mu.RUnlock()

	for _, id := range t.order {
		if _, ok := order[id]; !ok {
			next++
			order[id] = next
		}
	}
	for id, rec := range t.staged {
		merged[id] = rec
	}

	out := make([]Record, 0, len(merged))
	for _, rec := range merged {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].ID] < order[out[j].ID] })
	return out
}

func (t *Tx) Append(_ context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := t.lookup(rec.ID); exists {
		return "", fmt.Errorf("%w: record %s exists", apperr.ErrConflict, rec.ID)
	}
	rec.Status = StatusPending
	rec.CreatedAt = time.Now().UTC()
	rec.ResolvedAt = nil
	t.staged[rec.ID] = rec
	t.order = append(t.order, rec.ID)
	return rec.ID, nil
}

func (t *Tx) MarkPaid(ctx context.Context, id string) (Status, error) {
	return t.resolve(ctx, id, StatusPaid)
}

func (t *Tx) MarkFailed(ctx context.Context, id string) (Status, error) {
	return t.resolve(ctx, id, StatusFailed)
}

func (t *Tx) resolve(_ context.Context, id string, status Status) (Status, error) {
	rec, ok := t.lookup(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status.Terminal() {
		return rec.Status, nil
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.ResolvedAt = &now
	t.staged[id] = rec
	return status, nil
}

func (t *Tx) Get(_ context.Context, id string) (Record, error) {
	rec, ok := t.lookup(id)
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

func (t *Tx) FindPaidByExternalReference(_ context.Context, kind Kind, ref string) (Record, bool, error) {
	if ref == "" {
		return Record{}, false, nil
	}
	for _, rec := range t.all() {
		if rec.Kind == kind && rec.ExternalReference == ref && rec.Status == StatusPaid {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

func (t *Tx) CountPaid(_ context.Context, accountID int64, kind Kind) (int, error) {
	n := 0
	for _, rec := range t.all() {
		if rec.AccountID == accountID && rec.Kind == kind && rec.Status == StatusPaid {
			n++
		}
	}
	return n, nil
}

func (t *Tx) ListByAccount(_ context.Context, accountID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	all := t.all()
	out := make([]Record, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].AccountID == accountID {
			out = append(out, all[i])
		}
	}
	return out, nil
}
