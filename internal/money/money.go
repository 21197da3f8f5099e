// Package money converts between gateway decimal amounts and the int64 minor
// units stored by the ledger.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorDigits is the number of decimal places of the settlement currency.
const MinorDigits = 2

// FromMajor converts a decimal amount such as 50.25 into minor units (5025).
// Amounts with more precision than the currency supports are rejected.
func FromMajor(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(MinorDigits)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, MinorDigits)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	return minor.IntPart(), nil
}

// ToMajor renders minor units as a decimal amount.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorDigits)
}

// Payout returns stake * multiplier rounded half-up to the nearest minor unit.
func Payout(stake int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).Mul(multiplier).Round(0).IntPart()
}
