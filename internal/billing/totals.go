package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"billing-backend/internal/apperr"
)

type CustomCharge struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Charges are the document-level adjustments layered on top of the lines.
type Charges struct {
	Discount     decimal.Decimal `json:"discount"`
	RoundOff     decimal.Decimal `json:"round_off"`
	Transport    decimal.Decimal `json:"transport"`
	Installation decimal.Decimal `json:"installation"`
	Custom       []CustomCharge  `json:"custom_charges"`
}

// CustomTotal sums the custom charges.
func (c Charges) CustomTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, cc := range c.Custom {
		sum = sum.Add(cc.Amount)
	}
	return sum
}

// Adjustments is the signed sum of every charge:
// -discount +round_off +transport +installation +custom.
func (c Charges) Adjustments() decimal.Decimal {
	return c.RoundOff.
		Add(c.Transport).
		Add(c.Installation).
		Add(c.CustomTotal()).
		Sub(c.Discount)
}

// Check rejects charges outside the set and malformed values.
func (s ChargeSet) Check(c Charges) error {
	if !s.Discount && !c.Discount.IsZero() {
		return fmt.Errorf("discount: %w", apperr.ErrChargeNotAllowed)
	}
	if !s.RoundOff && !c.RoundOff.IsZero() {
		return fmt.Errorf("round_off: %w", apperr.ErrChargeNotAllowed)
	}
	if !s.Transport && !c.Transport.IsZero() {
		return fmt.Errorf("transport: %w", apperr.ErrChargeNotAllowed)
	}
	if !s.Installation && !c.Installation.IsZero() {
		return fmt.Errorf("installation: %w", apperr.ErrChargeNotAllowed)
	}
	if !s.Custom && len(c.Custom) > 0 {
		return fmt.Errorf("custom_charges: %w", apperr.ErrChargeNotAllowed)
	}

	if c.Discount.IsNegative() || c.Transport.IsNegative() || c.Installation.IsNegative() {
		return apperr.Validation("discount, transport and installation cannot be negative")
	}
	if !InCents(c.Discount) || !InCents(c.RoundOff) || !InCents(c.Transport) || !InCents(c.Installation) {
		return apperr.Validation("charges can have at most two decimal places")
	}
	for _, cc := range c.Custom {
		if strings.TrimSpace(cc.Name) == "" {
			return apperr.Validation("custom charge name is required")
		}
		if !InCents(cc.Amount) {
			return apperr.Validation(fmt.Sprintf("custom charge %s can have at most two decimal places", strings.TrimSpace(cc.Name)))
		}
	}
	return nil
}

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"tax_total"`
	Adjustments decimal.Decimal `json:"adjustments"`
	GrandTotal  decimal.Decimal `json:"total_amount"`
}

// SumLines returns Σ qty*unit_price and Σ tax_amount.
func SumLines(lines []Line) (subtotal, taxTotal decimal.Decimal) {
	subtotal, taxTotal = decimal.Zero, decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Base())
		taxTotal = taxTotal.Add(l.TaxAmount)
	}
	return subtotal, taxTotal
}

// Aggregate computes a document's totals. It has no side effects and gives
// the same result however often it is called on the same input. An empty
// line list still carries the document-level charges.
func Aggregate(k Kind, lines []Line, charges Charges) (Totals, error) {
	p, ok := ProfileOf(k)
	if !ok {
		return Totals{}, apperr.Validation(fmt.Sprintf("unknown document kind %q", k))
	}
	if err := p.Charges.Check(charges); err != nil {
		return Totals{}, err
	}

	subtotal, taxTotal := SumLines(lines)
	adj := charges.Adjustments()
	return Totals{
		Subtotal:    subtotal,
		TaxTotal:    taxTotal,
		Adjustments: adj,
		GrandTotal:  subtotal.Add(taxTotal).Add(adj),
	}, nil
}
