package quotation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type specialKey struct {
	kind   Kind
	number string
}

// Snapshot is an immutable view of the quotation configuration. Resolution
// against a snapshot is a pure function of its inputs.
type Snapshot struct {
	modalities map[string]Modality
	specials   map[specialKey]decimal.Decimal
	loadedAt   time.Time
}

// NewSnapshot indexes the catalog. Inactive specials and specials with a
// non-positive multiplier are dropped since they can never win a lookup.
func NewSnapshot(modalities []Modality, specials []Special) *Snapshot {
	s := &Snapshot{
		modalities: make(map[string]Modality, len(modalities)),
		specials:   make(map[specialKey]decimal.Decimal, len(specials)),
		loadedAt:   time.Now().UTC(),
	}
	for _, m := range modalities {
		s.modalities[normalizeCode(m.Code)] = m
	}
	for _, sp := range specials {
		if !sp.Active || !sp.Multiplier.IsPositive() || sp.Kind.Width() == 0 {
			continue
		}
		number, err := Normalize(sp.Kind, sp.Number)
		if err != nil {
			continue
		}
		s.specials[specialKey{kind: sp.Kind, number: number}] = sp.Multiplier
	}
	return s
}

// Modality looks up a catalog entry by code, ignoring case.
func (s *Snapshot) Modality(code string) (Modality, bool) {
	m, ok := s.modalities[normalizeCode(code)]
	return m, ok
}

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Resolve returns the effective multiplier: an active special quotation for
// the exact (kind, normalized number) pair, or else the modality's standard
// multiplier. A missing special is the normal case and never an error.
func (s *Snapshot) Resolve(kind Kind, number, modalityCode string) (decimal.Decimal, error) {
	modality, ok := s.Modality(modalityCode)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownModality, modalityCode)
	}

	normalized, err := Normalize(kind, number)
	if err != nil {
		return decimal.Zero, err
	}

	if kind.Width() > 0 {
		if mult, ok := s.specials[specialKey{kind: kind, number: normalized}]; ok {
			return mult, nil
		}
	}
	return modality.StandardMultiplier, nil
}

// Quote is the price of a wager on one number of one modality.
type Quote struct {
	Modality   Modality
	Number     string
	Multiplier decimal.Decimal
}

// Quote resolves a wager using the modality's own kind, so callers only need
// the modality code. Number is returned normalized.
func (s *Snapshot) Quote(modalityCode, number string) (Quote, error) {
	modality, ok := s.Modality(modalityCode)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownModality, modalityCode)
	}
	normalized, err := Normalize(modality.Kind, number)
	if err != nil {
		return Quote{}, err
	}
	mult, err := s.Resolve(modality.Kind, normalized, modality.Code)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Modality: modality, Number: normalized, Multiplier: mult}, nil
}
