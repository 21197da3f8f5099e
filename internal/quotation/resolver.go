package quotation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Catalog loads the quotation configuration from its store.
type Catalog interface {
	Modalities(ctx context.Context) ([]Modality, error)
	ActiveSpecials(ctx context.Context) ([]Special, error)
}

// Resolver serves lookups from the latest snapshot. Refresh swaps snapshots
// atomically so readers never observe a partially loaded catalog.
type Resolver struct {
	catalog Catalog
	current atomic.Pointer[Snapshot]
}

// NewResolver builds a resolver backed by catalog. It serves an empty
// snapshot until the first Refresh.
func NewResolver(catalog Catalog) *Resolver {
	r := &Resolver{catalog: catalog}
	r.current.Store(NewSnapshot(nil, nil))
	return r
}

// NewStaticResolver serves a fixed snapshot. Refresh is a no-op.
func NewStaticResolver(s *Snapshot) *Resolver {
	r := &Resolver{}
	r.current.Store(s)
	return r
}

// Snapshot returns the configuration currently in use.
func (r *Resolver) Snapshot() *Snapshot {
	return r.current.Load()
}

// ResolveMultiplier resolves against the current snapshot.
func (r *Resolver) ResolveMultiplier(kind Kind, number, modalityCode string) (decimal.Decimal, error) {
	return r.Snapshot().Resolve(kind, number, modalityCode)
}

// Refresh reloads the catalog and publishes a new snapshot.
func (r *Resolver) Refresh(ctx context.Context) error {
	if r.catalog == nil {
		return nil
	}
	modalities, err := r.catalog.Modalities(ctx)
	if err != nil {
		return fmt.Errorf("load modalities: %w", err)
	}
	specials, err := r.catalog.ActiveSpecials(ctx)
	if err != nil {
		return fmt.Errorf("load special quotations: %w", err)
	}
	r.current.Store(NewSnapshot(modalities, specials))
	return nil
}

// RefreshEvery reloads the catalog on a ticker until ctx is done. Failures
// keep the previous snapshot in service.
func (r *Resolver) RefreshEvery(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 || r.catalog == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				logger.Warn().Err(err).Msg("quotation refresh failed")
			}
		}
	}
}
