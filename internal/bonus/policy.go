// Package bonus computes the first-deposit promotion. It performs no I/O.
package bonus

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Policy holds the promotion parameters. Amounts are in minor units.
type Policy struct {
	FirstDepositPercent decimal.Decimal
	// FirstDepositCap bounds the granted bonus. A cap of zero grants nothing.
	FirstDepositCap    int64
	RolloverMultiplier decimal.Decimal
}

// Grant is the bonus credited with a deposit and the wagering volume
// imposed before it becomes withdrawable.
type Grant struct {
	Bonus    int64
	Rollover int64
}

func (g Grant) IsZero() bool {
	return g.Bonus == 0 && g.Rollover == 0
}

// Compute applies the policy to a deposit. Only the first paid deposit of an
// account is eligible. The bonus is truncated to whole minor units and the
// rollover is rounded up, so rounding never favours the account.
func Compute(depositAmount int64, priorPaidDeposits int, p Policy) Grant {
	if priorPaidDeposits != 0 || depositAmount <= 0 || !p.FirstDepositPercent.IsPositive() {
		return Grant{}
	}

	bonus := decimal.NewFromInt(depositAmount).Mul(p.FirstDepositPercent).Div(hundred).Truncate(0).IntPart()
	bonus = min(bonus, p.FirstDepositCap)
	if bonus <= 0 {
		return Grant{}
	}

	rollover := int64(0)
	if p.RolloverMultiplier.IsPositive() {
		rollover = decimal.NewFromInt(bonus).Mul(p.RolloverMultiplier).Ceil().IntPart()
	}
	return Grant{Bonus: bonus, Rollover: rollover}
}
