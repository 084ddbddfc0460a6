// Package tax implements the VAT arithmetic shared by the invoice pipeline.
//
// All amounts are exact decimals (github.com/shopspring/decimal). Nothing in
// this package converts through float64: a binary float cannot represent a
// half cent exactly, which would break the half-cent rule below.
//
// Rounding rule for VAT amounts:
//   - an amount lying exactly on a half cent (x.xx5 with nothing after it)
//     is rounded down to the lower cent;
//   - every other amount is rounded half away from zero to two decimals.
package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DefaultRate is used when a rate has to be inferred from a zero price.
	DefaultRate = 21

	// MaxRate is the highest accepted VAT percentage.
	MaxRate = 100
)

// ErrArithmeticPrecondition is returned for negative amounts, non-positive
// quantities or rates outside 0..MaxRate.
var ErrArithmeticPrecondition = errors.New("arithmetic precondition violated")

var (
	hundred = decimal.NewFromInt(100)
	ten     = decimal.NewFromInt(10)
	five    = decimal.NewFromInt(5)
)

// IsHalfCent reports whether amount sits exactly halfway between two cents.
func IsHalfCent(amount decimal.Decimal) bool {
	mills := amount.Shift(3)
	if !mills.IsInteger() {
		return false
	}
	return mills.Mod(ten).Abs().Equal(five)
}

// RoundVAT rounds a raw tax amount to cents.
func RoundVAT(amount decimal.Decimal) decimal.Decimal {
	if IsHalfCent(amount) {
		return amount.Truncate(2)
	}
	return amount.Round(2)
}

// Amount returns the unrounded tax on base at the given percentage.
func Amount(base decimal.Decimal, ratePercent int) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(int64(ratePercent))).Shift(-2)
}

// InferRate derives a whole VAT percentage from a per-unit tax amount.
// The result is lossy: 0.99 on 4.99 gives 20, not 19.84.
func InferRate(taxPerUnit, unitPrice decimal.Decimal) (int, error) {
	if taxPerUnit.IsNegative() {
		return 0, fmt.Errorf("%w: negative tax per unit %s", ErrArithmeticPrecondition, taxPerUnit)
	}
	if unitPrice.IsNegative() {
		return 0, fmt.Errorf("%w: negative unit price %s", ErrArithmeticPrecondition, unitPrice)
	}
	if unitPrice.IsZero() {
		return DefaultRate, nil
	}

	rate := taxPerUnit.Div(unitPrice).Mul(hundred).Round(0)
	if rate.GreaterThan(decimal.NewFromInt(MaxRate)) {
		return 0, fmt.Errorf("%w: inferred rate %s%% exceeds %d%%", ErrArithmeticPrecondition, rate, MaxRate)
	}
	return int(rate.IntPart()), nil
}

// ValidateRate checks that ratePercent lies in 0..MaxRate.
func ValidateRate(ratePercent int) error {
	if ratePercent < 0 || ratePercent > MaxRate {
		return fmt.Errorf("%w: rate %d%% outside 0..%d", ErrArithmeticPrecondition, ratePercent, MaxRate)
	}
	return nil
}
