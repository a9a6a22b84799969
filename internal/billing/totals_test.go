package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/apperr"
)

func sampleLines() []Line {
	return RecomputeAll(LineSelling, []Line{
		{Name: "Cable", Quantity: 3, UnitPrice: d("120.50"), TaxRate: d("18")},
		{Name: "Switch", Quantity: 1, UnitPrice: d("899"), TaxRate: d("12"), Discount: d("50")},
		{Name: "Labour", Quantity: 2, UnitPrice: d("300")},
	})
}

func TestAggregateInvoiceAllCharges(t *testing.T) {
	lines := sampleLines()
	charges := Charges{
		Discount:     d("100"),
		RoundOff:     d("-0.35"),
		Transport:    d("150"),
		Installation: d("500"),
		Custom: []CustomCharge{
			{Name: "Packing Fee", Amount: d("50")},
			{Name: "Insurance", Amount: d("25.25")},
		},
	}

	totals, err := Aggregate(KindInvoice, lines, charges)
	require.NoError(t, err)

	// 361.50 + 899 + 600
	assertDec(t, "1860.5", totals.Subtotal)
	// 65.07 + 107.88 + 0
	assertDec(t, "172.95", totals.TaxTotal)

	want := totals.Subtotal.Add(totals.TaxTotal).
		Sub(charges.Discount).
		Add(charges.RoundOff).
		Add(charges.Transport).
		Add(charges.Installation).
		Add(d("50")).Add(d("25.25"))
	assertDec(t, want.String(), totals.GrandTotal)
	assertDec(t, "2658.35", totals.GrandTotal)
}

func TestAggregateSubtotalMatchesLines(t *testing.T) {
	lines := sampleLines()
	totals, err := Aggregate(KindInvoice, lines, Charges{})
	require.NoError(t, err)

	sub, tax := decimal.Zero, decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
		tax = tax.Add(l.TaxAmount)
	}
	assertDec(t, sub.String(), totals.Subtotal)
	assertDec(t, tax.String(), totals.TaxTotal)
}

func TestAggregateIsIdempotent(t *testing.T) {
	lines := sampleLines()
	charges := Charges{Discount: d("12.5"), Transport: d("40")}

	first, err := Aggregate(KindInvoice, lines, charges)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		lines = RecomputeAll(LineSelling, lines)
		again, err := Aggregate(KindInvoice, lines, charges)
		require.NoError(t, err)
		assert.True(t, first.GrandTotal.Equal(again.GrandTotal))
		assert.True(t, first.Subtotal.Equal(again.Subtotal))
		assert.True(t, first.TaxTotal.Equal(again.TaxTotal))
	}
}

func TestAggregateEmptyLinesKeepsCharges(t *testing.T) {
	totals, err := Aggregate(KindInvoice, nil, Charges{Transport: d("80"), Discount: d("30")})
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TaxTotal.IsZero())
	assertDec(t, "50", totals.GrandTotal)
}

func TestAggregateRejectsChargesOutsideProfile(t *testing.T) {
	cases := []struct {
		kind    Kind
		charges Charges
	}{
		{KindQuotation, Charges{Discount: d("10")}},
		{KindQuotation, Charges{RoundOff: d("0.5")}},
		{KindSalesReturn, Charges{Transport: d("5")}},
		{KindPurchaseReturn, Charges{Custom: []CustomCharge{{Name: "Fee", Amount: d("1")}}}},
		{KindDeliveryChallan, Charges{Installation: d("100")}},
		{KindPOSSale, Charges{Transport: d("20")}},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			_, err := Aggregate(tc.kind, sampleLines(), tc.charges)
			assert.ErrorIs(t, err, apperr.ErrChargeNotAllowed)
		})
	}
}

func TestAggregateQuotationCharges(t *testing.T) {
	lines := sampleLines()
	totals, err := Aggregate(KindQuotation, lines, Charges{
		Transport:    d("10"),
		Installation: d("20"),
		Custom:       []CustomCharge{{Name: "Site visit", Amount: d("30")}},
	})
	require.NoError(t, err)
	assertDec(t, "60", totals.Adjustments)
}

func TestAggregateValidatesChargeValues(t *testing.T) {
	_, err := Aggregate(KindInvoice, nil, Charges{Discount: d("-1")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Aggregate(KindInvoice, nil, Charges{Custom: []CustomCharge{{Name: " ", Amount: d("5")}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Aggregate(KindInvoice, nil, Charges{Transport: d("10.005")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Aggregate(KindInvoice, nil, Charges{Custom: []CustomCharge{{Name: "Packing", Amount: d("1.001")}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// trailing zeros are not extra precision
	_, err = Aggregate(KindInvoice, nil, Charges{Transport: d("10.500")})
	assert.NoError(t, err)

	// round off may go either way
	_, err = Aggregate(KindInvoice, nil, Charges{RoundOff: d("-0.49")})
	assert.NoError(t, err)
}

func TestAggregateUnknownKind(t *testing.T) {
	_, err := Aggregate(Kind("receipt"), nil, Charges{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestProfilesAreComplete(t *testing.T) {
	for _, k := range Kinds() {
		p, ok := ProfileOf(k)
		require.True(t, ok, k)
		assert.Equal(t, k, p.Kind)
		assert.NotEmpty(t, p.Series.Prefix)
		assert.NotZero(t, p.Series.Width)
		assert.NotEmpty(t, p.InitialStatus)
	}
	assert.False(t, Kind("bogus").Valid())
}
