package documents

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/apperr"
	"billing-backend/internal/billing"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func up(v uint) *uint { return &v }

var widget = billing.CatalogItem{
	ID:            7,
	Name:          "Widget",
	Unit:          "pcs",
	HSNCode:       "8471",
	TaxRate:       d("18"),
	SellingPrice:  d("250"),
	PurchasePrice: d("180"),
}

func TestValidate(t *testing.T) {
	invoice := billing.MustProfile(billing.KindInvoice)

	valid := SaveRequest{
		PartyID: up(1),
		Items:   []LineRequest{{ProductID: up(7), Quantity: 2}},
	}
	require.NoError(t, Validate(invoice, valid))

	cases := map[string]func(r *SaveRequest){
		"no party":          func(r *SaveRequest) { r.PartyID = nil },
		"no items":          func(r *SaveRequest) { r.Items = nil },
		"zero quantity":     func(r *SaveRequest) { r.Items[0].Quantity = 0 },
		"negative price":    func(r *SaveRequest) { r.Items[0].UnitPrice = dp("-1") },
		"tax over 100":      func(r *SaveRequest) { r.Items[0].TaxRate = dp("101") },
		"negative discount": func(r *SaveRequest) { r.Items[0].Discount = d("-5") },
		"free text without name": func(r *SaveRequest) {
			r.Items = []LineRequest{{Quantity: 1, UnitPrice: dp("10")}}
		},
		"free text without price": func(r *SaveRequest) {
			r.Items = []LineRequest{{Name: "Labour", Quantity: 1}}
		},
		"negative transport":  func(r *SaveRequest) { r.Transport = d("-10") },
		"price past cents":    func(r *SaveRequest) { r.Items[0].UnitPrice = dp("10.005") },
		"tax rate past cents": func(r *SaveRequest) { r.Items[0].TaxRate = dp("18.125") },
		"discount past cents": func(r *SaveRequest) { r.Items[0].Discount = d("0.001") },
		"charge past cents":   func(r *SaveRequest) { r.Transport = d("12.345") },
		"custom charge past cents": func(r *SaveRequest) {
			r.CustomCharges = []billing.CustomCharge{{Name: "Packing", Amount: d("4.999")}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := valid
			r.Items = append([]LineRequest(nil), valid.Items...)
			mutate(&r)
			assert.ErrorIs(t, Validate(invoice, r), apperr.ErrValidation)
		})
	}
}

func TestValidateChargesPerKind(t *testing.T) {
	req := SaveRequest{
		PartyID:  up(1),
		Discount: d("10"),
		Items:    []LineRequest{{Name: "Cable", Quantity: 1, UnitPrice: dp("100")}},
	}
	assert.NoError(t, Validate(billing.MustProfile(billing.KindInvoice), req))
	assert.ErrorIs(t, Validate(billing.MustProfile(billing.KindQuotation), req), apperr.ErrChargeNotAllowed)
	assert.ErrorIs(t, Validate(billing.MustProfile(billing.KindSalesReturn), req), apperr.ErrChargeNotAllowed)
}

func TestValidatePOSPartyOptional(t *testing.T) {
	req := SaveRequest{Items: []LineRequest{{ProductID: up(7), Quantity: 1}}}
	assert.NoError(t, Validate(billing.MustProfile(billing.KindPOSSale), req))
}

func TestBuildLinesSeedsFromCatalog(t *testing.T) {
	catalog := map[uint]billing.CatalogItem{7: widget}

	lines := BuildLines(billing.MustProfile(billing.KindInvoice), []LineRequest{
		{ProductID: up(7), Quantity: 2},
	}, catalog)
	require.Len(t, lines, 1)

	l := lines[0]
	assert.Equal(t, "Widget", l.Name)
	assert.Equal(t, "8471", l.HSNCode)
	assert.True(t, d("250").Equal(l.UnitPrice))
	assert.True(t, d("18").Equal(l.TaxRate))
	assert.True(t, d("90").Equal(l.TaxAmount), l.TaxAmount.String())
	assert.True(t, d("590").Equal(l.Total), l.Total.String())
}

func TestBuildLinesPurchaseUsesPurchasePrice(t *testing.T) {
	catalog := map[uint]billing.CatalogItem{7: widget}

	lines := BuildLines(billing.MustProfile(billing.KindPurchase), []LineRequest{
		{ProductID: up(7), Quantity: 10, Discount: d("50")},
	}, catalog)

	l := lines[0]
	assert.True(t, d("180").Equal(l.UnitPrice))
	// purchase lines have no discount term
	assert.True(t, l.Discount.IsZero())
	assert.True(t, d("2124").Equal(l.Total), l.Total.String())
}

func TestBuildLinesClientValuesWin(t *testing.T) {
	catalog := map[uint]billing.CatalogItem{7: widget}

	lines := BuildLines(billing.MustProfile(billing.KindInvoice), []LineRequest{
		{ProductID: up(7), Name: "Widget (blue)", Quantity: 1, UnitPrice: dp("200"), TaxRate: dp("5")},
	}, catalog)

	l := lines[0]
	assert.Equal(t, "Widget (blue)", l.Name)
	assert.True(t, d("200").Equal(l.UnitPrice))
	assert.True(t, d("10").Equal(l.TaxAmount))
	assert.True(t, d("210").Equal(l.Total))
}

func TestBuildLinesChallanHasNoTax(t *testing.T) {
	catalog := map[uint]billing.CatalogItem{7: widget}

	lines := BuildLines(billing.MustProfile(billing.KindDeliveryChallan), []LineRequest{
		{ProductID: up(7), Quantity: 3, TaxRate: dp("18")},
	}, catalog)

	l := lines[0]
	assert.True(t, l.TaxAmount.IsZero())
	assert.True(t, d("750").Equal(l.Total))
}

func TestBuildLinesFreeText(t *testing.T) {
	lines := BuildLines(billing.MustProfile(billing.KindInvoice), []LineRequest{
		{ProductID: up(0), Name: " Installation labour ", Quantity: 1, UnitPrice: dp("500"), TaxRate: dp("18")},
	}, nil)

	l := lines[0]
	assert.Nil(t, l.ProductID)
	assert.Equal(t, "Installation labour", l.Name)
	assert.True(t, d("590").Equal(l.Total))
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, 31, got.Day())

	_, err = parseDate("31.01.2025")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	today, err := parseDate("")
	require.NoError(t, err)
	assert.False(t, today.IsZero())
}

// Stored lines must add up to the stored subtotal after numeric(14,2) rounding.
func TestSavedLinesSumToSubtotal(t *testing.T) {
	invoice := billing.MustProfile(billing.KindInvoice)
	req := SaveRequest{
		PartyID:   up(1),
		Transport: d("12.50"),
		Items: []LineRequest{
			{Name: "Cable", Quantity: 3, UnitPrice: dp("10.010"), TaxRate: dp("18")},
			{Name: "Clips", Quantity: 7, UnitPrice: dp("0.35"), TaxRate: dp("12.50")},
		},
	}
	require.NoError(t, Validate(invoice, req))

	lines := BuildLines(invoice, req.Items, nil)
	totals, err := billing.Aggregate(invoice.Kind, lines, req.Charges())
	require.NoError(t, err)

	stored := decimal.Zero
	for _, l := range lines {
		price := l.UnitPrice.Round(2)
		assert.True(t, l.UnitPrice.Equal(price), "unit price %s kept past cents", l.UnitPrice)
		stored = stored.Add(price.Mul(decimal.NewFromInt(l.Quantity)))
	}
	assert.Equal(t, totals.Subtotal.Round(2).String(), totals.Subtotal.String())
	assert.True(t, stored.Equal(totals.Subtotal), "lines %s, subtotal %s", stored, totals.Subtotal)
	assert.Equal(t, "32.48", totals.Subtotal.StringFixed(2))
}

func TestCheckSource(t *testing.T) {
	cases := []struct {
		kind, source billing.Kind
		ok           bool
	}{
		{billing.KindInvoice, billing.KindQuotation, true},
		{billing.KindInvoice, billing.KindDeliveryChallan, true},
		{billing.KindSalesReturn, billing.KindInvoice, true},
		{billing.KindSalesReturn, billing.KindPOSSale, true},
		{billing.KindPurchaseReturn, billing.KindPurchase, true},
		{billing.KindSalesReturn, billing.KindPurchase, false},
		{billing.KindPurchaseReturn, billing.KindInvoice, false},
		{billing.KindInvoice, billing.KindInvoice, false},
		{billing.KindPurchase, billing.KindQuotation, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind)+"<-"+string(tc.source), func(t *testing.T) {
			err := CheckSource(tc.kind, tc.source)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperr.ErrValidation)
			}
		})
	}
}

func TestValidateSourceOnlyForLinkedKinds(t *testing.T) {
	purchase := SaveRequest{
		PartyID:          up(2),
		SourceDocumentID: up(9),
		Items:            []LineRequest{{Name: "Cable", Quantity: 1, UnitPrice: dp("40")}},
	}
	assert.ErrorIs(t, Validate(billing.MustProfile(billing.KindPurchase), purchase), apperr.ErrValidation)
	assert.NoError(t, Validate(billing.MustProfile(billing.KindPurchaseReturn), purchase))
}
