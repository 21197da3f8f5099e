package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is an in-memory profile store for tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
}

// NewMemoryRepository builds an in-memory profile store for testing.
func NewMemoryRepository(profiles ...Profile) *MemoryRepository {
	r := &MemoryRepository{profiles: make(map[int64]Profile)}
	for _, p := range profiles {
		r.Add(p)
	}
	return r
}

func (r *MemoryRepository) Add(p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.profiles[p.AccountID] = p
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best  Profile
		found bool
	)
	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, strings.TrimSpace(email)) && (!found || p.AccountID < best.AccountID) {
			best, found = p, true
		}
	}
	if !found {
		return Profile{}, ErrNotFound
	}
	return best, nil
}
