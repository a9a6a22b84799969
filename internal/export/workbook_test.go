package export

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(qty int64, price, rate, tax string) models.DocumentItem {
	return models.DocumentItem{Name: "x", Quantity: qty, UnitPrice: d(price), TaxRate: d(rate), TaxAmount: d(tax)}
}

func sampleDocs() []models.Document {
	day := time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)
	acme := &models.Party{Name: "Acme", GSTIN: "27AABCU9603R1ZX"}
	return []models.Document{
		{Kind: billing.KindInvoice, Number: "INV-202504-001", Date: day, Party: acme, Status: "paid",
			TaxTotal: d("180"), TotalAmount: d("1180"), PaidAmount: d("1180"),
			Items: []models.DocumentItem{item(2, "500", "18", "180")}},
		{Kind: billing.KindPOSSale, Number: "POS-0001", Date: day, Status: "paid",
			TotalAmount: d("300"), PaidAmount: d("300"),
			Items: []models.DocumentItem{item(3, "100", "0", "0")}},
		{Kind: billing.KindPurchase, Number: "PUR-0001", Date: day, Party: &models.Party{Name: "Supply Co"},
			TaxTotal: d("72"), TotalAmount: d("472"), Status: "unpaid",
			Items: []models.DocumentItem{item(4, "100", "18", "72")}},
		{Kind: billing.KindSalesReturn, Number: "SR-0001", Date: day, Party: acme,
			TaxTotal: d("90"), TotalAmount: d("590"),
			Items: []models.DocumentItem{item(1, "500", "18", "90")}},
		{Kind: billing.KindQuotation, Number: "QT-202504-001", Date: day,
			Items: []models.DocumentItem{item(9, "999", "28", "2517.48")}},
	}
}

func TestTaxSummary(t *testing.T) {
	rows := TaxSummary(sampleDocs())
	require.Len(t, rows, 2)

	zero := rows[0]
	assert.True(t, zero.Rate.IsZero())
	assert.True(t, d("300").Equal(zero.OutwardTaxable))

	r18 := rows[1]
	assert.True(t, d("18").Equal(r18.Rate))
	// invoice 1000 minus sales return 500
	assert.True(t, d("500").Equal(r18.OutwardTaxable), r18.OutwardTaxable.String())
	assert.True(t, d("90").Equal(r18.OutwardTax))
	assert.True(t, d("400").Equal(r18.InwardTaxable))
	assert.True(t, d("72").Equal(r18.InwardTax))
	assert.True(t, d("18").Equal(r18.NetTax()))
}

func TestWorkbookSheets(t *testing.T) {
	f, err := Workbook(sampleDocs())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSales, SheetPurchases, SheetReturns, SheetTaxSummary}, f.GetSheetList())

	sales, err := f.GetRows(SheetSales)
	require.NoError(t, err)
	require.Len(t, sales, 3, "header, invoice, POS sale")
	assert.Equal(t, "INV-202504-001", sales[1][1])
	assert.Equal(t, "Acme", sales[1][3])
	assert.Equal(t, "1000", sales[1][5])
	assert.Equal(t, "POS Sale", sales[2][2])

	purchases, err := f.GetRows(SheetPurchases)
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, "Supply Co", purchases[1][2])

	returns, err := f.GetRows(SheetReturns)
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.Equal(t, "Sales Return", returns[1][2])

	summary, err := f.GetRows(SheetTaxSummary)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "18", summary[2][0])
}
