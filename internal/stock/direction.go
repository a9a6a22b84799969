package stock

import "billing-backend/internal/billing"

// Direction is the sense in which a movement changes stock.
type Direction string

const (
	PurchaseIn        Direction = "purchase_in"
	SalesOut          Direction = "sales_out"
	SalesReturnIn     Direction = "sales_return_in"
	PurchaseReturnOut Direction = "purchase_return_out"
	POSSaleOut        Direction = "pos_sale_out"
	ManualAdd         Direction = "manual_add"
	ManualReduce      Direction = "manual_reduce"
)

// Sign is +1 for inward movements and -1 for outward ones.
func (d Direction) Sign() int64 {
	switch d {
	case PurchaseIn, SalesReturnIn, ManualAdd:
		return 1
	case SalesOut, PurchaseReturnOut, POSSaleOut, ManualReduce:
		return -1
	}
	return 0
}

// ForDocument maps a document profile's movement onto a direction. ok is
// false for kinds that do not touch stock.
func ForDocument(m billing.Movement) (Direction, bool) {
	switch m {
	case billing.MovementPurchaseIn:
		return PurchaseIn, true
	case billing.MovementSalesOut:
		return SalesOut, true
	case billing.MovementSalesReturnIn:
		return SalesReturnIn, true
	case billing.MovementPurchaseReturnOut:
		return PurchaseReturnOut, true
	case billing.MovementPOSSaleOut:
		return POSSaleOut, true
	}
	return "", false
}
