package stock

import (
	"context"
	"time"

	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/models"
)

// GormStore updates products.stock_quantity with
// "stock_quantity = stock_quantity + delta" evaluated by Postgres.
type GormStore struct {
	db            *gorm.DB
	allowNegative bool
}

// NewGormStore binds the store to db, usually a transaction handle.
func NewGormStore(db *gorm.DB, allowNegative bool) *GormStore {
	return &GormStore{db: db, allowNegative: allowNegative}
}

func (s *GormStore) Increment(ctx context.Context, userID, productID uint, delta int64) error {
	q := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND user_id = ?", productID, userID)
	floor := !s.allowNegative && delta < 0
	if floor {
		q = q.Where("stock_quantity + ? >= 0", delta)
	}

	res := q.Updates(map[string]any{
		"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
		"updated_at":     time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if floor {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND user_id = ?", productID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.ErrInsufficientStock
		}
	}
	return apperr.ErrNotFound
}
