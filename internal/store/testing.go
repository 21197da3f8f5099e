package store

import (
	"github.com/ronaldoarch/postenobicho-sub001/internal/ledger"
	"github.com/ronaldoarch/postenobicho-sub001/internal/wager"
)

// SeedAccount is a test helper that stores an account directly.
func (m *Memory) SeedAccount(acct ledger.Account) {
	m.accounts.Put(acct)
}

// SeedWager is a test helper that stores a wager directly.
func (m *Memory) SeedWager(w wager.Wager) {
	m.wagers.Put(w)
}
