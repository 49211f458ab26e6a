package money

import (
	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits kept for every monetary amount.
const Scale int32 = 2

// RateScale is the number of fraction digits carried by interest rates.
const RateScale int32 = 3

// Round rounds an amount half-up (away from zero) to Scale digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Split divides total into count equal shares, each rounded to Scale.
// The residue is not redistributed, so count*share may differ from total
// by up to count*0.005.
func Split(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), Scale)
}

// Format renders an amount with exactly Scale fraction digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// FormatRate renders an interest rate with exactly RateScale fraction digits.
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(RateScale)
}

// Fits reports whether d has no more than places fraction digits.
func Fits(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}
