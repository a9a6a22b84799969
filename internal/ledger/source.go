package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

type lineRow struct {
	DocumentID uint
	LineID     uint
	Kind       billing.Kind
	Number     string
	Date       time.Time
	CreatedAt  time.Time
	PartyName  *string
	Quantity   int64
}

func documentLines(ctx context.Context, db *gorm.DB, userID, productID uint, kinds []billing.Kind) ([]lineRow, error) {
	var rows []lineRow
	err := db.WithContext(ctx).
		Table("document_items AS di").
		Select("d.id AS document_id, di.id AS line_id, d.kind, d.number, d.date, d.created_at, p.name AS party_name, di.quantity").
		Joins("JOIN documents d ON d.id = di.document_id").
		Joins("LEFT JOIN parties p ON p.id = d.party_id").
		Where("d.user_id = ? AND di.product_id = ? AND d.kind IN ?", userID, productID, kinds).
		Scan(&rows).Error
	return rows, err
}

func lineEntry(src Source, r lineRow) Entry {
	p := billing.MustProfile(r.Kind)
	e := Entry{
		Date:       r.Date,
		CreatedAt:  r.CreatedAt,
		Source:     src,
		Kind:       string(r.Kind),
		Label:      p.Label + " " + r.Number,
		Link:       link(p.Route, r.DocumentID),
		Number:     r.Number,
		DocumentID: r.DocumentID,
		LineID:     r.LineID,
	}
	if r.PartyName != nil {
		e.PartyName = *r.PartyName
	}
	switch p.Movement {
	case billing.MovementPurchaseIn, billing.MovementSalesReturnIn:
		e.QtyIn = r.Quantity
	default:
		e.QtyOut = r.Quantity
	}
	return e
}

// Sales returns invoice lines (when invoices move stock) and POS sale lines.
func Sales(ctx context.Context, db *gorm.DB, userID, productID uint, includeInvoices bool) ([]Entry, error) {
	kinds := []billing.Kind{billing.KindPOSSale}
	if includeInvoices {
		kinds = append(kinds, billing.KindInvoice)
	}
	rows, err := documentLines(ctx, db, userID, productID, kinds)
	if err != nil {
		return nil, fmt.Errorf("sales lines: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, lineEntry(SourceSale, r))
	}
	return out, nil
}

func Purchases(ctx context.Context, db *gorm.DB, userID, productID uint) ([]Entry, error) {
	rows, err := documentLines(ctx, db, userID, productID, []billing.Kind{billing.KindPurchase})
	if err != nil {
		return nil, fmt.Errorf("purchase lines: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, lineEntry(SourcePurchase, r))
	}
	return out, nil
}

// Returns splits by kind: sales returns come in, purchase returns go out.
func Returns(ctx context.Context, db *gorm.DB, userID, productID uint) ([]Entry, error) {
	rows, err := documentLines(ctx, db, userID, productID, []billing.Kind{billing.KindSalesReturn, billing.KindPurchaseReturn})
	if err != nil {
		return nil, fmt.Errorf("return lines: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, lineEntry(SourceReturn, r))
	}
	return out, nil
}

func Adjustments(ctx context.Context, db *gorm.DB, userID, productID uint) ([]Entry, error) {
	var adjs []models.StockAdjustment
	if err := db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Find(&adjs).Error; err != nil {
		return nil, fmt.Errorf("stock adjustments: %w", err)
	}

	out := make([]Entry, 0, len(adjs))
	for _, a := range adjs {
		e := Entry{
			Date:      a.Date,
			CreatedAt: a.CreatedAt,
			Source:    SourceAdjustment,
			Kind:      "stock_adjustment",
			LineID:    a.ID,
		}
		if a.Type == models.AdjustmentReduce {
			e.Label = "Stock reduced"
			e.QtyOut = a.Quantity
		} else {
			e.Label = "Stock added"
			e.QtyIn = a.Quantity
		}
		if a.Reason != "" {
			e.Label += ": " + a.Reason
		}
		out = append(out, e)
	}
	return out, nil
}
