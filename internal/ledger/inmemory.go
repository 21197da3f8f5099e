package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// InMemory keeps accounts in process memory with per-account locks. It backs
// tests and local tooling only; production state lives in PostgreSQL.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[int64]Account

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[int64]Account),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Put stores an account as is, overwriting any previous state.
func (m *InMemory) Put(acct Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acct.UpdatedAt.IsZero() {
		acct.UpdatedAt = time.Now().UTC()
	}
	m.accounts[acct.ID] = acct
}

// Get returns the committed state of an account.
func (m *InMemory) Get(_ context.Context, id int64) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[id]
	if !ok {
		return Account{}, apperr.ErrAccountNotFound
	}
	return acct, nil
}

// Lock serializes units of work on one account and returns the unlock func.
func (m *InMemory) Lock(id int64) func() {
	m.locksMu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	m.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// CompareAndSwap commits next if the stored version still equals expected.
func (m *InMemory) CompareAndSwap(next Account, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.accounts[next.ID]
	if !ok {
		return apperr.ErrAccountNotFound
	}
	if cur.Version != expected {
		return fmt.Errorf("%w: account %d version %d is stale", apperr.ErrConflict, next.ID, expected)
	}
	m.accounts[next.ID] = next
	return nil
}

// StagedWriter buffers account writes until the owning unit commits.
type StagedWriter struct {
	Pending *Account
}

// SaveAccount implements Writer by bumping the version of the staged copy.
func (w *StagedWriter) SaveAccount(_ context.Context, next Account) (Account, error) {
	if w.Pending != nil && w.Pending.Version != next.Version {
		return Account{}, fmt.Errorf("%w: account %d version %d is stale", apperr.ErrConflict, next.ID, next.Version)
	}
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	w.Pending = &next
	return next, nil
}
