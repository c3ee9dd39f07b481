package reports

import "github.com/shopspring/decimal"

var (
	hundred            = decimal.NewFromInt(100)
	reconcileTolerance = decimal.New(1, -2)
)

// ratio divides and rounds to four places; a zero denominator yields zero.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, 4)
}

// percentOf returns num/den*100 rounded to two places, zero when den is zero.
func percentOf(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Mul(hundred).DivRound(den, 2)
}

// percentChange returns (current-prior)/prior*100, zero when prior is zero.
func percentChange(current, prior decimal.Decimal) decimal.Decimal {
	return percentOf(current.Sub(prior), prior)
}

