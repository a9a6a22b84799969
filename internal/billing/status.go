package billing

import "github.com/shopspring/decimal"

// PaymentStatus derives unpaid/partial/paid from what has been paid against
// total. A zero total counts as paid.
func PaymentStatus(paid, total decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}
