// Package money holds the decimal helpers shared by the catalog, cart and order packages.
// Amounts are kept at full precision; rounding to cents happens only when formatting.
package money

import "github.com/shopspring/decimal"

const displayPlaces = 2

// Format renders an amount the way the storefront displays prices, e.g. "$12.99".
func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(displayPlaces)
}

// Round returns the amount rounded half away from zero to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(displayPlaces)
}

// MustParse parses a literal amount. It panics on malformed input and is meant for static tables.
func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Percent returns p/100 as a rate.
func Percent(p int64) decimal.Decimal {
	return decimal.New(p, -2)
}

// Sum adds amounts.
func Sum(ds ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}
