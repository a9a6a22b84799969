package models

import (
	"time"

	"github.com/shopspring/decimal"

	"billing-backend/internal/billing"
)

type Product struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"index;not null" json:"-"`
	Name           string          `gorm:"size:150;not null" json:"name"`
	Unit           string          `gorm:"size:20;not null;default:'pcs'" json:"unit"` // pcs, kg, box
	HSNCode        string          `gorm:"size:20" json:"hsn_code"`
	TaxRate        decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"tax_rate"` // percent
	SellingPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"selling_price"`
	PurchasePrice  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"purchase_price"`
	WholesalePrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"wholesale_price"`
	MRP            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"mrp"`
	// StockQuantity is a live counter. It is only changed through atomic
	// increments issued by the stock package.
	StockQuantity int64     `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p Product) CatalogItem() billing.CatalogItem {
	return billing.CatalogItem{
		ID:             p.ID,
		Name:           p.Name,
		Unit:           p.Unit,
		HSNCode:        p.HSNCode,
		TaxRate:        p.TaxRate,
		SellingPrice:   p.SellingPrice,
		PurchasePrice:  p.PurchasePrice,
		WholesalePrice: p.WholesalePrice,
		MRP:            p.MRP,
	}
}
