package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func TestRecomputeSellingLine(t *testing.T) {
	l := Recompute(LineSelling, Line{
		Quantity:  3,
		UnitPrice: d("199.99"),
		TaxRate:   d("18"),
		Discount:  d("10"),
	})

	// base 599.97, tax 107.9946 -> 107.99
	assertDec(t, "107.99", l.TaxAmount)
	assertDec(t, "697.96", l.Total)
}

func TestRecomputeModes(t *testing.T) {
	in := Line{Quantity: 2, UnitPrice: d("50"), TaxRate: d("12"), Discount: d("5")}

	cases := []struct {
		name     string
		mode     LineMode
		tax      string
		total    string
		discount string
		taxRate  string
	}{
		{"selling keeps discount", LineSelling, "12", "107", "5", "12"},
		{"purchase drops discount", LinePurchase, "12", "112", "0", "12"},
		{"pos drops discount", LinePOS, "12", "112", "0", "12"},
		{"challan has no tax", LineChallan, "0", "100", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Recompute(tc.mode, in)
			assertDec(t, tc.tax, got.TaxAmount)
			assertDec(t, tc.total, got.Total)
			assertDec(t, tc.discount, got.Discount)
			assertDec(t, tc.taxRate, got.TaxRate)
		})
	}
}

func TestTaxAmountRoundsHalfAwayFromZero(t *testing.T) {
	// 0.125 -> 0.13
	assertDec(t, "0.13", TaxAmount(d("2.5"), d("5")))
	assertDec(t, "0", TaxAmount(d("100"), decimal.Zero))
}

func TestRecomputeIgnoresStaleDerivedFields(t *testing.T) {
	l := Line{Quantity: 1, UnitPrice: d("100"), TaxRate: d("5"), TaxAmount: d("999"), Total: d("1")}
	got := Recompute(LineSelling, l)
	assertDec(t, "5", got.TaxAmount)
	assertDec(t, "105", got.Total)
}

func TestApplyProductReseedsLine(t *testing.T) {
	widget := CatalogItem{
		ID: 7, Name: "Widget", Unit: "pcs", HSNCode: "8471",
		TaxRate: d("18"), SellingPrice: d("250"), PurchasePrice: d("180"),
	}
	old := Line{
		Name: "Gadget", Quantity: 4, UnitPrice: d("10"), TaxRate: d("5"), Discount: d("20"),
	}

	got := ApplyProduct(MustProfile(KindInvoice), Recompute(LineSelling, old), widget)

	require.NotNil(t, got.ProductID)
	assert.Equal(t, uint(7), *got.ProductID)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, "8471", got.HSNCode)
	assert.Equal(t, int64(4), got.Quantity)
	assertDec(t, "250", got.UnitPrice)
	assertDec(t, "18", got.TaxRate)
	assertDec(t, "180", got.TaxAmount)
	assertDec(t, "1160", got.Total)
}

func TestApplyProductPriceTierPerKind(t *testing.T) {
	item := CatalogItem{ID: 1, Name: "Bolt", TaxRate: d("12"), SellingPrice: d("10"), PurchasePrice: d("6")}
	line := Line{Quantity: 10}

	purchase := ApplyProduct(MustProfile(KindPurchase), line, item)
	assertDec(t, "6", purchase.UnitPrice)
	assertDec(t, "67.2", purchase.Total)

	pos := ApplyProduct(MustProfile(KindPOSSale), line, item)
	assertDec(t, "10", pos.UnitPrice)
	assertDec(t, "0", pos.TaxRate)
	assertDec(t, "100", pos.Total)

	challan := ApplyProduct(MustProfile(KindDeliveryChallan), line, item)
	assertDec(t, "0", challan.TaxAmount)
	assertDec(t, "100", challan.Total)
}

func TestReplacingProductLeavesOtherLinesUntouched(t *testing.T) {
	p := MustProfile(KindInvoice)
	lines := RecomputeAll(p.LineMode, []Line{
		{Name: "A", Quantity: 1, UnitPrice: d("100"), TaxRate: d("5")},
		{Name: "B", Quantity: 2, UnitPrice: d("40"), TaxRate: d("12")},
	})
	before := lines[1]

	lines[0] = ApplyProduct(p, lines[0], CatalogItem{ID: 3, Name: "C", SellingPrice: d("70"), TaxRate: d("28")})

	assert.Equal(t, before, lines[1])
	assert.Equal(t, "C", lines[0].Name)
	assertDec(t, "19.6", lines[0].TaxAmount)
	assertDec(t, "89.6", lines[0].Total)
}

func TestCatalogPriceTiers(t *testing.T) {
	item := CatalogItem{SellingPrice: d("1"), PurchasePrice: d("2"), WholesalePrice: d("3"), MRP: d("4")}
	assertDec(t, "1", item.Price(TierSelling))
	assertDec(t, "2", item.Price(TierPurchase))
	assertDec(t, "3", item.Price(TierWholesale))
	assertDec(t, "4", item.Price(TierMRP))
}
