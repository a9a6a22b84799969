// Package export builds the spreadsheet an accountant needs for a tax
// period: every sale, purchase and return plus tax totals per rate.
package export

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

const (
	SheetSales      = "Sales"
	SheetPurchases  = "Purchases"
	SheetReturns    = "Returns"
	SheetTaxSummary = "Tax Summary"
)

// TaxRow aggregates line values for one tax rate. Returns are netted:
// sales returns reduce outward supplies, purchase returns reduce inward.
type TaxRow struct {
	Rate           decimal.Decimal
	OutwardTaxable decimal.Decimal
	OutwardTax     decimal.Decimal
	InwardTaxable  decimal.Decimal
	InwardTax      decimal.Decimal
}

// NetTax is output tax minus input tax credit.
func (r TaxRow) NetTax() decimal.Decimal {
	return r.OutwardTax.Sub(r.InwardTax)
}

// flow places a kind's lines on the outward or inward side with a sign.
// ok is false for kinds that are not supplies.
func flow(k billing.Kind) (outward bool, sign int64, ok bool) {
	switch k {
	case billing.KindInvoice, billing.KindPOSSale:
		return true, 1, true
	case billing.KindSalesReturn:
		return true, -1, true
	case billing.KindPurchase:
		return false, 1, true
	case billing.KindPurchaseReturn:
		return false, -1, true
	}
	return false, 0, false
}

// TaxSummary groups every line of docs by tax rate, ascending.
func TaxSummary(docs []models.Document) []TaxRow {
	rows := map[string]*TaxRow{}
	for _, doc := range docs {
		outward, sign, ok := flow(doc.Kind)
		if !ok {
			continue
		}
		s := decimal.NewFromInt(sign)
		for _, it := range doc.Items {
			key := it.TaxRate.StringFixed(2)
			row, found := rows[key]
			if !found {
				row = &TaxRow{Rate: it.TaxRate}
				rows[key] = row
			}
			base := it.Line().Base().Mul(s)
			tax := it.TaxAmount.Mul(s)
			if outward {
				row.OutwardTaxable = row.OutwardTaxable.Add(base)
				row.OutwardTax = row.OutwardTax.Add(tax)
			} else {
				row.InwardTaxable = row.InwardTaxable.Add(base)
				row.InwardTax = row.InwardTax.Add(tax)
			}
		}
	}

	out := make([]TaxRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rate.LessThan(out[j].Rate) })
	return out
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func partyName(d models.Document) string {
	if d.Party == nil {
		return ""
	}
	return d.Party.Name
}

func partyGSTIN(d models.Document) string {
	if d.Party == nil {
		return ""
	}
	return d.Party.GSTIN
}

func taxable(d models.Document) decimal.Decimal {
	sum, _ := billing.SumLines(d.Lines())
	return sum
}

// Workbook writes docs into the four sheets. docs may hold any mix of
// kinds; quotations and challans are ignored.
func Workbook(docs []models.Document) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSales); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetPurchases, SheetReturns, SheetTaxSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	headers := map[string][]any{
		SheetSales:      {"Date", "Number", "Type", "Customer", "GSTIN", "Taxable", "Tax", "Total", "Paid", "Status"},
		SheetPurchases:  {"Date", "Number", "Supplier", "GSTIN", "Taxable", "Tax", "Total", "Paid", "Status"},
		SheetReturns:    {"Date", "Number", "Type", "Party", "GSTIN", "Taxable", "Tax", "Total"},
		SheetTaxSummary: {"Tax Rate %", "Outward Taxable", "Outward Tax", "Inward Taxable", "Inward Tax", "Net Tax"},
	}
	next := map[string]int{}
	for sheet, h := range headers {
		if err := f.SetSheetRow(sheet, "A1", &h); err != nil {
			return nil, err
		}
		last, _ := excelize.CoordinatesToCellName(len(h), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "A", "J", 16); err != nil {
			return nil, err
		}
		next[sheet] = 2
	}

	put := func(sheet string, row []any) error {
		cell, _ := excelize.CoordinatesToCellName(1, next[sheet])
		next[sheet]++
		return f.SetSheetRow(sheet, cell, &row)
	}

	for _, d := range docs {
		p, ok := billing.ProfileOf(d.Kind)
		if !ok {
			continue
		}
		date := d.Date.Format("2006-01-02")
		var err error
		switch d.Kind {
		case billing.KindInvoice, billing.KindPOSSale:
			err = put(SheetSales, []any{date, d.Number, p.Label, partyName(d), partyGSTIN(d),
				money(taxable(d)), money(d.TaxTotal), money(d.TotalAmount), money(d.PaidAmount), d.Status})
		case billing.KindPurchase:
			err = put(SheetPurchases, []any{date, d.Number, partyName(d), partyGSTIN(d),
				money(taxable(d)), money(d.TaxTotal), money(d.TotalAmount), money(d.PaidAmount), d.Status})
		case billing.KindSalesReturn, billing.KindPurchaseReturn:
			err = put(SheetReturns, []any{date, d.Number, p.Label, partyName(d), partyGSTIN(d),
				money(taxable(d)), money(d.TaxTotal), money(d.TotalAmount)})
		}
		if err != nil {
			return nil, fmt.Errorf("write %s %s: %w", d.Kind, d.Number, err)
		}
	}

	for _, r := range TaxSummary(docs) {
		if err := put(SheetTaxSummary, []any{money(r.Rate), money(r.OutwardTaxable), money(r.OutwardTax),
			money(r.InwardTaxable), money(r.InwardTax), money(r.NetTax())}); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}
