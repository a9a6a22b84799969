package models

import (
	"time"

	"billing-backend/internal/billing"
)

// Party is a customer or a supplier.
type Party struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"index;not null" json:"-"`
	Type      billing.PartyRole `gorm:"size:20;index;not null" json:"type"`
	Name      string            `gorm:"size:150;not null" json:"name"`
	Phone     string            `gorm:"size:30" json:"phone"`
	Email     string            `gorm:"size:100" json:"email"`
	GSTIN     string            `gorm:"size:20" json:"gstin"`
	Address   string            `gorm:"size:255" json:"address"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
