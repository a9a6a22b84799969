package billing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line is one priced row of a document. TaxAmount and Total are derived and
// must only be written by Recompute.
type Line struct {
	ProductID *uint           `json:"product_id"`
	Name      string          `json:"name"`
	HSNCode   string          `json:"hsn_code"`
	Unit      string          `json:"unit"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// Base is quantity times unit price, before tax and discount.
func (l Line) Base() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// CatalogItem is the slice of a product a line is seeded from.
type CatalogItem struct {
	ID             uint
	Name           string
	Unit           string
	HSNCode        string
	TaxRate        decimal.Decimal
	SellingPrice   decimal.Decimal
	PurchasePrice  decimal.Decimal
	WholesalePrice decimal.Decimal
	MRP            decimal.Decimal
}

func (c CatalogItem) Price(t PriceTier) decimal.Decimal {
	switch t {
	case TierPurchase:
		return c.PurchasePrice
	case TierWholesale:
		return c.WholesalePrice
	case TierMRP:
		return c.MRP
	default:
		return c.SellingPrice
	}
}

// InCents reports whether d has no digits past the second decimal place,
// the precision money and rates are stored at.
func InCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// TaxAmount is base * rate / 100 rounded to two places, half away from zero.
func TaxAmount(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred).Round(2)
}

// Recompute derives TaxAmount and Total from quantity, unit price, tax rate
// and discount. Terms the mode does not have are zeroed so a stale value
// cannot leak into the total.
func Recompute(mode LineMode, l Line) Line {
	base := l.Base()

	switch mode {
	case LineChallan:
		l.TaxRate = decimal.Zero
		l.TaxAmount = decimal.Zero
		l.Discount = decimal.Zero
		l.Total = base
	case LinePurchase, LinePOS:
		l.Discount = decimal.Zero
		l.TaxAmount = TaxAmount(base, l.TaxRate)
		l.Total = base.Add(l.TaxAmount)
	default:
		l.TaxAmount = TaxAmount(base, l.TaxRate)
		l.Total = base.Add(l.TaxAmount).Sub(l.Discount)
	}
	return l
}

// ApplyProduct replaces the product behind a line: name, unit, hsn code,
// unit price and tax rate are re-seeded from item, quantity and discount are
// kept, and the line is recomputed.
func ApplyProduct(p Profile, l Line, item CatalogItem) Line {
	id := item.ID
	l.ProductID = &id
	l.Name = item.Name
	l.Unit = item.Unit
	l.HSNCode = item.HSNCode
	l.UnitPrice = item.Price(p.PriceTier)

	switch p.LineMode {
	case LinePOS, LineChallan:
		// no tax breakout unless the caller sets a rate after seeding
		l.TaxRate = decimal.Zero
	default:
		l.TaxRate = item.TaxRate
	}
	return Recompute(p.LineMode, l)
}

// RecomputeAll recomputes every line in place and returns the slice.
func RecomputeAll(mode LineMode, lines []Line) []Line {
	for i := range lines {
		lines[i] = Recompute(mode, lines[i])
	}
	return lines
}
