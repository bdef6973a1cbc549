package revenue

import "github.com/shopspring/decimal"

var half = decimal.NewFromFloat(0.5)

// Split divides a booking total between the platform and the organizer under the
// fixed 50/50 policy. The shares are rounded independently to two decimal places,
// so their sum may differ from the total by up to one cent; that drift is accepted
// and never corrected.
func Split(totalAmount decimal.Decimal) (platformShare, organizerShare decimal.Decimal) {
	platformShare = totalAmount.Mul(half).Round(2)
	organizerShare = totalAmount.Mul(half).Round(2)
	return platformShare, organizerShare
}

// CancellationRefund returns the amount credited back to the wallet when a paid
// booking is cancelled: a flat 50% of the original total, rounded to the nearest
// whole currency unit. Inventory is always released in full regardless of this
// amount.
func CancellationRefund(totalAmount decimal.Decimal) decimal.Decimal {
	return totalAmount.Mul(half).Round(0)
}
