package models

import "time"

type AdjustmentType string

const (
	AdjustmentAdd    AdjustmentType = "add"
	AdjustmentReduce AdjustmentType = "reduce"
)

// StockAdjustment is a manual stock correction (damage, count, opening).
type StockAdjustment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"-"`
	ProductID uint           `gorm:"index;not null" json:"product_id"`
	Product   *Product       `json:"product,omitempty"`
	Type      AdjustmentType `gorm:"size:10;not null" json:"type"`
	Quantity  int64          `gorm:"not null" json:"quantity"`
	Reason    string         `gorm:"size:255" json:"reason"`
	Date      time.Time      `gorm:"type:date;index;not null" json:"date"`
	CreatedAt time.Time      `json:"created_at"`
}
