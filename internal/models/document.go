package models

import (
	"time"

	"github.com/shopspring/decimal"

	"billing-backend/internal/billing"
)

// Document is the header shared by invoices, quotations, delivery challans,
// purchases, returns and POS sales. Kind selects the billing.Profile that
// decides which charges and stock effects apply.
type Document struct {
	ID     uint         `gorm:"primaryKey" json:"id"`
	UserID uint         `gorm:"not null;uniqueIndex:idx_documents_number,priority:1" json:"-"`
	Kind   billing.Kind `gorm:"size:30;not null;index;uniqueIndex:idx_documents_number,priority:2" json:"kind"`
	Number string       `gorm:"size:50;not null;uniqueIndex:idx_documents_number,priority:3" json:"number"`
	Date   time.Time    `gorm:"type:date;index;not null" json:"date"`

	PartyID *uint  `gorm:"index" json:"party_id"`
	Party   *Party `json:"party,omitempty"`

	Status        string `gorm:"size:20;not null" json:"status"`
	Notes         string `gorm:"size:500" json:"notes"`
	PaymentMethod string `gorm:"size:30" json:"payment_method,omitempty"`
	// SourceDocumentID links a converted invoice to its quotation/challan or a
	// return to the invoice/purchase it reverses.
	SourceDocumentID *uint `gorm:"index" json:"source_document_id,omitempty"`

	Discount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	RoundOff     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"round_off"`
	Transport    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"transport"`
	Installation decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"installation"`

	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	TaxTotal    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax_total"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_amount"`
	PaidAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"paid_amount"`

	Items         []DocumentItem   `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"items"`
	CustomCharges []DocumentCharge `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"custom_charges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentItem rows are owned by one document and replaced wholesale on edit.
type DocumentItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	DocumentID uint            `gorm:"index;not null" json:"document_id"`
	ProductID  *uint           `gorm:"index" json:"product_id"`
	Name       string          `gorm:"size:150;not null" json:"name"`
	HSNCode    string          `gorm:"size:20" json:"hsn_code"`
	Unit       string          `gorm:"size:20" json:"unit"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	TaxRate    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"tax_rate"`
	TaxAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax_amount"`
	Discount   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	Total      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
}

// DocumentCharge is a user-named extra amount, e.g. "Packing Fee: 50".
type DocumentCharge struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	DocumentID uint            `gorm:"index;not null" json:"document_id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}

func (it DocumentItem) Line() billing.Line {
	return billing.Line{
		ProductID: it.ProductID,
		Name:      it.Name,
		HSNCode:   it.HSNCode,
		Unit:      it.Unit,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice,
		TaxRate:   it.TaxRate,
		TaxAmount: it.TaxAmount,
		Discount:  it.Discount,
		Total:     it.Total,
	}
}

func ItemFromLine(l billing.Line) DocumentItem {
	return DocumentItem{
		ProductID: l.ProductID,
		Name:      l.Name,
		HSNCode:   l.HSNCode,
		Unit:      l.Unit,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		TaxRate:   l.TaxRate,
		TaxAmount: l.TaxAmount,
		Discount:  l.Discount,
		Total:     l.Total,
	}
}

func (d Document) Lines() []billing.Line {
	lines := make([]billing.Line, 0, len(d.Items))
	for _, it := range d.Items {
		lines = append(lines, it.Line())
	}
	return lines
}

func (d Document) Charges() billing.Charges {
	custom := make([]billing.CustomCharge, 0, len(d.CustomCharges))
	for _, cc := range d.CustomCharges {
		custom = append(custom, billing.CustomCharge{Name: cc.Name, Amount: cc.Amount})
	}
	return billing.Charges{
		Discount:     d.Discount,
		RoundOff:     d.RoundOff,
		Transport:    d.Transport,
		Installation: d.Installation,
		Custom:       custom,
	}
}

// SetCharges copies charges onto the header columns and custom charge rows.
func (d *Document) SetCharges(c billing.Charges) {
	d.Discount = c.Discount
	d.RoundOff = c.RoundOff
	d.Transport = c.Transport
	d.Installation = c.Installation
	d.CustomCharges = make([]DocumentCharge, 0, len(c.Custom))
	for _, cc := range c.Custom {
		d.CustomCharges = append(d.CustomCharges, DocumentCharge{Name: cc.Name, Amount: cc.Amount})
	}
}

func (d *Document) SetTotals(t billing.Totals) {
	d.Subtotal = t.Subtotal
	d.TaxTotal = t.TaxTotal
	d.TotalAmount = t.GrandTotal
}

// Outstanding is what is left to pay on a payable document.
func (d Document) Outstanding() decimal.Decimal {
	return d.TotalAmount.Sub(d.PaidAmount)
}
