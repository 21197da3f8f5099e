package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// Service resolves the account a payment or admin action refers to.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve tries the account id first and falls back to the email. It returns
// apperr.ErrAccountNotFound when neither matches and apperr.ErrUnavailable
// when the store cannot be reached.
func (s *Service) Resolve(ctx context.Context, l Lookup) (Profile, error) {
	if l.AccountID <= 0 && l.Email == "" {
		return Profile{}, apperr.Invalid("account id or email is required")
	}

	if l.AccountID > 0 {
		p, err := s.repo.FindByID(ctx, l.AccountID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Profile{}, fmt.Errorf("lookup account %d: %w", l.AccountID, err)
		}
	}

	if l.Email != "" {
		p, err := s.repo.FindByEmail(ctx, l.Email)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Profile{}, fmt.Errorf("lookup email: %w", err)
		}
	}

	return Profile{}, apperr.ErrAccountNotFound
}
