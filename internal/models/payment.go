package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
	PaymentBank PaymentMethod = "bank"
)

// Payment is money received against an invoice or paid against a purchase.
type Payment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"-"`
	DocumentID uint            `gorm:"index;not null" json:"document_id"`
	Document   *Document       `json:"document,omitempty"`
	PartyID    *uint           `gorm:"index" json:"party_id"`
	Date       time.Time       `gorm:"type:date;index;not null" json:"date"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Method     PaymentMethod   `gorm:"size:20;not null" json:"method"`
	Reference  string          `gorm:"size:100" json:"reference"`
	Note       string          `gorm:"size:255" json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
}
