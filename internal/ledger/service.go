package ledger

import (
	"context"

	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/models"
)

type Report struct {
	ProductID      uint    `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Unit           string  `json:"unit"`
	Entries        []Entry `json:"entries"`
	TotalIn        int64   `json:"total_in"`
	TotalOut       int64   `json:"total_out"`
	ClosingBalance int64   `json:"closing_balance"`
	CurrentStock   int64   `json:"current_stock"`
	// Drift is current_stock - closing_balance. Opening stock entered on the
	// product and any lost update show up here; nothing corrects it.
	Drift int64 `json:"drift"`
}

type Service struct {
	db              *gorm.DB
	includeInvoices bool
}

// NewService takes includeInvoices from the same setting that makes
// invoices deduct stock, so the ledger lists exactly the rows that moved it.
func NewService(db *gorm.DB, includeInvoices bool) *Service {
	return &Service{db: db, includeInvoices: includeInvoices}
}

func (s *Service) Reconstruct(ctx context.Context, userID, productID uint) (*Report, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", productID, userID).
		First(&product).Error; err != nil {
		return nil, apperr.NotFoundIfMissing(err)
	}

	var all []Entry
	sales, err := Sales(ctx, s.db, userID, productID, s.includeInvoices)
	if err != nil {
		return nil, err
	}
	all = append(all, sales...)

	purchases, err := Purchases(ctx, s.db, userID, productID)
	if err != nil {
		return nil, err
	}
	all = append(all, purchases...)

	returns, err := Returns(ctx, s.db, userID, productID)
	if err != nil {
		return nil, err
	}
	all = append(all, returns...)

	adjustments, err := Adjustments(ctx, s.db, userID, productID)
	if err != nil {
		return nil, err
	}
	all = append(all, adjustments...)

	return report(product, Build(all)), nil
}

func report(p models.Product, built []Entry) *Report {
	in, out := Totals(built)
	closing := Closing(built)
	return &Report{
		ProductID:      p.ID,
		ProductName:    p.Name,
		Unit:           p.Unit,
		Entries:        built,
		TotalIn:        in,
		TotalOut:       out,
		ClosingBalance: closing,
		CurrentStock:   p.StockQuantity,
		Drift:          p.StockQuantity - closing,
	}
}
