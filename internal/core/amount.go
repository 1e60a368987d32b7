// Package core provides the ledger domain: charts, entries, transactions,
// and the amount normalization rule applied before persistence.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAmount rounds a monetary amount to one decimal place with an
// upward bias: when the final digit of the value's decimal representation is
// exactly 5, it is rewritten to 6 before rounding, so values ending in .x5
// always round up instead of being lost to float truncation or
// round-half-to-even.
//
// A value already exact at one decimal place is returned unchanged, which
// makes the transform idempotent: re-normalizing 12.3 yields 12.3, and
// normalizing 12.49 yields 12.5, not 12.6 on a second pass.
//
// The sign is handled separately: the magnitude is normalized and the sign
// preserved.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	negative := amount.IsNegative()
	magnitude := amount.Abs()

	normalized := normalizeMagnitude(magnitude)
	if negative {
		return normalized.Neg()
	}
	return normalized
}

func normalizeMagnitude(m decimal.Decimal) decimal.Decimal {
	// Already exact at a tenth: nothing to round.
	if rounded := m.Round(1); rounded.Equal(m) {
		return rounded
	}
	s := m.String()
	if strings.HasSuffix(s, "5") {
		rewritten, err := decimal.NewFromString(s[:len(s)-1] + "6")
		if err == nil {
			m = rewritten
		}
	}
	return m.Round(1)
}
