package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billing-backend/internal/apperr"
	"billing-backend/internal/billing"
)

// LineRequest is one item as sent by the client. UnitPrice and TaxRate are
// pointers so that "not sent" can be told apart from zero: a product-linked
// line with either missing is seeded from the catalog.
type LineRequest struct {
	ProductID *uint            `json:"product_id"`
	Name      string           `json:"name" validate:"max=150"`
	HSNCode   string           `json:"hsn_code" validate:"max=20"`
	Unit      string           `json:"unit" validate:"max=20"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	Discount  decimal.Decimal  `json:"discount"`
}

type SaveRequest struct {
	// Number left blank is allocated from the kind's series.
	Number           string                 `json:"number" validate:"max=50"`
	Date             string                 `json:"date"` // "2025-01-31", blank for today
	PartyID          *uint                  `json:"party_id"`
	Notes            string                 `json:"notes" validate:"max=500"`
	PaymentMethod    string                 `json:"payment_method" validate:"max=30"`
	SourceDocumentID *uint                  `json:"source_document_id"`
	Discount         decimal.Decimal        `json:"discount"`
	RoundOff         decimal.Decimal        `json:"round_off"`
	Transport        decimal.Decimal        `json:"transport"`
	Installation     decimal.Decimal        `json:"installation"`
	CustomCharges    []billing.CustomCharge `json:"custom_charges" validate:"dive"`
	Items            []LineRequest          `json:"items" validate:"dive"`
}

func (r SaveRequest) Charges() billing.Charges {
	custom := make([]billing.CustomCharge, 0, len(r.CustomCharges))
	for _, cc := range r.CustomCharges {
		custom = append(custom, billing.CustomCharge{Name: strings.TrimSpace(cc.Name), Amount: cc.Amount.Round(2)})
	}
	return billing.Charges{
		Discount:     r.Discount.Round(2),
		RoundOff:     r.RoundOff.Round(2),
		Transport:    r.Transport.Round(2),
		Installation: r.Installation.Round(2),
		Custom:       custom,
	}
}

// sourceKinds lists, per kind, the kinds its source_document_id may point at.
var sourceKinds = map[billing.Kind][]billing.Kind{
	billing.KindInvoice:        {billing.KindQuotation, billing.KindDeliveryChallan},
	billing.KindSalesReturn:    {billing.KindInvoice, billing.KindPOSSale},
	billing.KindPurchaseReturn: {billing.KindPurchase},
}

// CheckSource rejects a source document of a kind that cannot feed kind.
func CheckSource(kind, source billing.Kind) error {
	for _, k := range sourceKinds[kind] {
		if k == source {
			return nil
		}
	}
	return apperr.Validation(fmt.Sprintf("a %s cannot be linked to a %s", kind, source))
}

// Validate checks a request against the kind's profile without touching
// storage.
func Validate(p billing.Profile, r SaveRequest) error {
	if p.PartyRequired && (r.PartyID == nil || *r.PartyID == 0) {
		return apperr.Validation(fmt.Sprintf("%s requires a %s", strings.ToLower(p.Label), p.Party))
	}
	if len(r.Items) == 0 {
		return apperr.Validation("at least one item is required")
	}
	if len(r.Number) > 50 {
		return apperr.Validation("number is too long")
	}
	if r.SourceDocumentID != nil && *r.SourceDocumentID != 0 && len(sourceKinds[p.Kind]) == 0 {
		return apperr.Validation(fmt.Sprintf("%s cannot be linked to a source document", strings.ToLower(p.Label)))
	}

	hundred := decimal.NewFromInt(100)
	for i, it := range r.Items {
		n := i + 1
		linked := it.ProductID != nil && *it.ProductID != 0
		if it.Quantity <= 0 {
			return apperr.Validation(fmt.Sprintf("item %d: quantity must be greater than zero", n))
		}
		if !linked && strings.TrimSpace(it.Name) == "" {
			return apperr.Validation(fmt.Sprintf("item %d: name is required", n))
		}
		if !linked && it.UnitPrice == nil {
			return apperr.Validation(fmt.Sprintf("item %d: unit_price is required", n))
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return apperr.Validation(fmt.Sprintf("item %d: unit_price cannot be negative", n))
		}
		if it.TaxRate != nil && (it.TaxRate.IsNegative() || it.TaxRate.GreaterThan(hundred)) {
			return apperr.Validation(fmt.Sprintf("item %d: tax_rate must be between 0 and 100", n))
		}
		if it.Discount.IsNegative() {
			return apperr.Validation(fmt.Sprintf("item %d: discount cannot be negative", n))
		}
		if (it.UnitPrice != nil && !billing.InCents(*it.UnitPrice)) ||
			(it.TaxRate != nil && !billing.InCents(*it.TaxRate)) ||
			!billing.InCents(it.Discount) {
			return apperr.Validation(fmt.Sprintf("item %d: unit_price, tax_rate and discount can have at most two decimal places", n))
		}
	}

	return p.Charges.Check(billing.Charges{
		Discount:     r.Discount,
		RoundOff:     r.RoundOff,
		Transport:    r.Transport,
		Installation: r.Installation,
		Custom:       r.CustomCharges,
	})
}

// BuildLines turns requested items into priced lines. Product-linked items
// found in catalog are seeded from it first; values the client did send win
// over the seeded ones. Every line is recomputed, so client-sent tax amounts
// and totals are never used.
func BuildLines(p billing.Profile, items []LineRequest, catalog map[uint]billing.CatalogItem) []billing.Line {
	lines := make([]billing.Line, 0, len(items))
	for _, it := range items {
		l := billing.Line{
			ProductID: it.ProductID,
			Name:      strings.TrimSpace(it.Name),
			HSNCode:   strings.TrimSpace(it.HSNCode),
			Unit:      strings.TrimSpace(it.Unit),
			Quantity:  it.Quantity,
			Discount:  it.Discount.Round(2),
		}
		if it.UnitPrice != nil {
			l.UnitPrice = it.UnitPrice.Round(2)
		}
		if it.TaxRate != nil {
			l.TaxRate = it.TaxRate.Round(2)
		}

		if it.ProductID != nil {
			if item, ok := catalog[*it.ProductID]; ok {
				seeded := billing.ApplyProduct(p, l, item)
				if it.UnitPrice != nil {
					seeded.UnitPrice = l.UnitPrice
				}
				if it.TaxRate != nil {
					seeded.TaxRate = l.TaxRate
				}
				if l.Name != "" {
					seeded.Name = l.Name
				}
				if l.HSNCode != "" {
					seeded.HSNCode = l.HSNCode
				}
				if l.Unit != "" {
					seeded.Unit = l.Unit
				}
				l = seeded
			}
		}
		if it.ProductID != nil && *it.ProductID == 0 {
			l.ProductID = nil
		}

		lines = append(lines, billing.Recompute(p.LineMode, l))
	}
	return lines
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD")
	}
	return d, nil
}
