// Package shipping maps a cart subtotal to its shipping cost tier.
package shipping

import "github.com/shopspring/decimal"

var (
	freeThreshold = decimal.RequireFromString("200.00")
	midLower      = decimal.RequireFromString("52.00")
	midUpper      = decimal.RequireFromString("166.59")

	midRate      = decimal.RequireFromString("15.00")
	standardRate = decimal.RequireFromString("20.00")
)

// Cost returns the shipping charge for subtotal. Subtotals between 166.60
// and 199.99 fall into the standard rate, not the mid tier.
func Cost(subtotal decimal.Decimal) decimal.Decimal {
	switch {
	case subtotal.GreaterThanOrEqual(freeThreshold):
		return decimal.Zero
	case subtotal.GreaterThanOrEqual(midLower) && subtotal.LessThanOrEqual(midUpper):
		return midRate
	default:
		return standardRate
	}
}
