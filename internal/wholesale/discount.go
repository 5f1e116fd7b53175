// Package wholesale prices bulk quote requests. The discount is a pure
// function of total quantity; unit prices are frozen at quote time like
// everywhere else in the order path.
package wholesale

const MinQty = 12

// Discount returns the percentage off for a total quantity, and whether the
// quantity is eligible for wholesale submission at all.
func Discount(totalQty int) (percent int, eligible bool) {
	switch {
	case totalQty >= 48:
		return 50, true
	case totalQty >= 24:
		return 40, true
	case totalQty >= MinQty:
		return 30, true
	default:
		return 0, false
	}
}

// QuoteTotal applies the discount tier to qty units at unitPriceCents.
func QuoteTotal(qty int, unitPriceCents int64) (totalCents int64, percent int, eligible bool) {
	percent, eligible = Discount(qty)
	gross := int64(qty) * unitPriceCents
	return gross * int64(100-percent) / 100, percent, eligible
}
