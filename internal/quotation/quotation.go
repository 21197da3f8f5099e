// Package quotation resolves the payout multiplier owed on a wager from the
// modality catalog and the admin-maintained special quotations.
package quotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownModality is a caller contract violation: every wager must
	// reference a catalogued modality.
	ErrUnknownModality = errors.New("unknown modality")
	// ErrInvalidNumber is a caller contract violation: wager numbers are digits only.
	ErrInvalidNumber = errors.New("invalid wager number")
	ErrInvalidKind   = errors.New("invalid quotation type")
)

// Kind selects the special-quotation table and the number width.
type Kind string

const (
	KindNone    Kind = ""
	KindMilhar  Kind = "milhar"
	KindCentena Kind = "centena"
)

// ParseKind accepts the kind name in any case. An empty string is KindNone.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindNone:
		return KindNone, nil
	case KindMilhar:
		return KindMilhar, nil
	case KindCentena:
		return KindCentena, nil
	}
	return KindNone, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Width is the number of digits a number of this kind is normalized to.
func (k Kind) Width() int {
	switch k {
	case KindMilhar:
		return 4
	case KindCentena:
		return 3
	default:
		return 0
	}
}

// Modality is a catalog entry. Kind is empty for modalities that are not
// eligible for special quotations (e.g. Grupo).
type Modality struct {
	Code               string
	Name               string
	StandardMultiplier decimal.Decimal
	Kind               Kind
}

// Special overrides the standard multiplier for one exact number.
type Special struct {
	Kind       Kind
	Number     string
	Multiplier decimal.Decimal
	Active     bool
}

// Normalize reduces number to the fixed width of kind: shorter inputs are
// left-padded with zeros and longer inputs keep their least significant
// digits. "732" and "10732" both normalize to "0732" for milhar. For
// KindNone the digits are returned unchanged.
func Normalize(kind Kind, number string) (string, error) {
	digits := strings.TrimSpace(number)
	if digits == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidNumber, number)
		}
	}

	width := kind.Width()
	if width == 0 {
		return digits, nil
	}
	if len(digits) > width {
		return digits[len(digits)-width:], nil
	}
	return strings.Repeat("0", width-len(digits)) + digits, nil
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
