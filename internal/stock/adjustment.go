package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/audit"
	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

type CreateAdjustmentRequest struct {
	ProductID uint                  `json:"product_id" validate:"required"`
	Type      models.AdjustmentType `json:"type" validate:"required,oneof=add reduce"`
	Quantity  int64                 `json:"quantity" validate:"gt=0"`
	Reason    string                `json:"reason" validate:"max=255"`
	Date      string                `json:"date"` // "2025-01-31", blank for today
}

// Adjustments records manual stock corrections and moves the product counter
// in the same transaction.
type Adjustments struct {
	db            *gorm.DB
	allowNegative bool
}

func NewAdjustments(db *gorm.DB, allowNegative bool) *Adjustments {
	return &Adjustments{db: db, allowNegative: allowNegative}
}

func adjustmentDirection(t models.AdjustmentType) Direction {
	if t == models.AdjustmentReduce {
		return ManualReduce
	}
	return ManualAdd
}

func adjustmentLines(a models.StockAdjustment) []billing.Line {
	pid := a.ProductID
	return []billing.Line{{ProductID: &pid, Quantity: a.Quantity}}
}

func (s *Adjustments) Create(ctx context.Context, userID uint, req CreateAdjustmentRequest) (*models.StockAdjustment, error) {
	if req.ProductID == 0 {
		return nil, apperr.Validation("product_id is required")
	}
	if req.Type != models.AdjustmentAdd && req.Type != models.AdjustmentReduce {
		return nil, apperr.Validation("type must be add or reduce")
	}
	if req.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be greater than zero")
	}
	date := time.Now()
	if strings.TrimSpace(req.Date) != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, apperr.Validation("date must be YYYY-MM-DD")
		}
		date = d
	}

	adj := models.StockAdjustment{
		UserID:    userID,
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Reason:    strings.TrimSpace(req.Reason),
		Date:      date,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ? AND user_id = ?", req.ProductID, userID).First(&product).Error; err != nil {
			return apperr.NotFoundIfMissing(err)
		}
		if err := tx.Create(&adj).Error; err != nil {
			return err
		}
		adjuster := NewAdjuster(NewGormStore(tx, s.allowNegative))
		if err := adjuster.Apply(ctx, userID, adjustmentDirection(adj.Type), adjustmentLines(adj)); err != nil {
			return err
		}
		adj.Product = &product
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      userID,
			EntityType:  "stock_adjustment",
			EntityID:    adj.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("stock %s: %s x%d (%s)", adj.Type, product.Name, adj.Quantity, adj.Reason),
			After:       adj,
		})
	})
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

// Delete removes the adjustment and undoes its stock effect.
func (s *Adjustments) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adj models.StockAdjustment
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&adj).Error; err != nil {
			return apperr.NotFoundIfMissing(err)
		}
		adjuster := NewAdjuster(NewGormStore(tx, s.allowNegative))
		if err := adjuster.Reverse(ctx, userID, adjustmentDirection(adj.Type), adjustmentLines(adj)); err != nil {
			return err
		}
		if err := tx.Delete(&adj).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      userID,
			EntityType:  "stock_adjustment",
			EntityID:    adj.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("stock %s reverted: product %d x%d", adj.Type, adj.ProductID, adj.Quantity),
			Before:      adj,
		})
	})
}

// List returns adjustments newest first, optionally for one product.
func (s *Adjustments) List(ctx context.Context, userID, productID uint) ([]models.StockAdjustment, error) {
	q := s.db.WithContext(ctx).Preload("Product").Where("user_id = ?", userID)
	if productID > 0 {
		q = q.Where("product_id = ?", productID)
	}
	var out []models.StockAdjustment
	if err := q.Order("date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
