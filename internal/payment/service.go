// Package payment records money received against invoices and paid against
// purchases, keeping the document's paid amount and status in step.
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"billing-backend/internal/apperr"
	"billing-backend/internal/audit"
	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

type RecordRequest struct {
	DocumentID uint                 `json:"document_id" validate:"required"`
	Date       string               `json:"date"`
	Amount     decimal.Decimal      `json:"amount"`
	Method     models.PaymentMethod `json:"method" validate:"required,oneof=cash upi card bank"`
	Reference  string               `json:"reference" validate:"max=100"`
	Note       string               `json:"note" validate:"max=255"`
}

type ListFilter struct {
	DocumentID uint
	PartyID    uint
	From       time.Time
	To         time.Time
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Settle returns the paid amount and status after adding amount to paid.
func Settle(paid, total, amount decimal.Decimal) (decimal.Decimal, string, error) {
	if !amount.IsPositive() {
		return paid, "", apperr.Validation("amount must be greater than zero")
	}
	next := paid.Add(amount)
	if next.GreaterThan(total) {
		return paid, "", fmt.Errorf("outstanding %s, got %s: %w", total.Sub(paid).StringFixed(2), amount.StringFixed(2), apperr.ErrOverpayment)
	}
	return next, billing.PaymentStatus(next, total), nil
}

func lockDocument(tx *gorm.DB, userID, id uint) (*models.Document, error) {
	var doc models.Document
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&doc).Error; err != nil {
		return nil, apperr.NotFoundIfMissing(err)
	}
	return &doc, nil
}

// refresh recomputes paid_amount from the payment rows.
func refresh(tx *gorm.DB, doc *models.Document) error {
	var paid decimal.Decimal
	if err := tx.Model(&models.Payment{}).
		Where("document_id = ?", doc.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error; err != nil {
		return err
	}
	doc.PaidAmount = paid
	doc.Status = billing.PaymentStatus(paid, doc.TotalAmount)
	return tx.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(map[string]any{
		"paid_amount": doc.PaidAmount,
		"status":      doc.Status,
	}).Error
}

func (s *Service) Record(ctx context.Context, userID uint, req RecordRequest) (*models.Payment, error) {
	if req.DocumentID == 0 {
		return nil, apperr.Validation("document_id is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if !billing.InCents(req.Amount) {
		return nil, apperr.Validation("amount can have at most two decimal places")
	}
	date := time.Now()
	if strings.TrimSpace(req.Date) != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, apperr.Validation("date must be YYYY-MM-DD")
		}
		date = d
	}

	pay := models.Payment{
		UserID:     userID,
		DocumentID: req.DocumentID,
		Date:       date,
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  strings.TrimSpace(req.Reference),
		Note:       strings.TrimSpace(req.Note),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := lockDocument(tx, userID, req.DocumentID)
		if err != nil {
			return err
		}
		p := billing.MustProfile(doc.Kind)
		if !p.Payable {
			return apperr.Validation(fmt.Sprintf("payments cannot be recorded against a %s", strings.ToLower(p.Label)))
		}
		if _, _, err := Settle(doc.PaidAmount, doc.TotalAmount, req.Amount); err != nil {
			return err
		}

		pay.PartyID = doc.PartyID
		if err := tx.Create(&pay).Error; err != nil {
			return err
		}
		if err := refresh(tx, doc); err != nil {
			return err
		}
		pay.Document = doc

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      userID,
			EntityType:  "payment",
			EntityID:    pay.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("payment %s (%s) on %s, now %s", pay.Amount.StringFixed(2), pay.Method, doc.Number, doc.Status),
			After:       pay,
		})
	})
	if err != nil {
		return nil, err
	}
	return &pay, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pay models.Payment
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&pay).Error; err != nil {
			return apperr.NotFoundIfMissing(err)
		}
		doc, err := lockDocument(tx, userID, pay.DocumentID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&pay).Error; err != nil {
			return err
		}
		if err := refresh(tx, doc); err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      userID,
			EntityType:  "payment",
			EntityID:    pay.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("payment %s on %s removed, now %s", pay.Amount.StringFixed(2), doc.Number, doc.Status),
			Before:      pay,
		})
	})
}

func (s *Service) List(ctx context.Context, userID uint, f ListFilter) ([]models.Payment, error) {
	q := s.db.WithContext(ctx).Preload("Document").Where("user_id = ?", userID)
	if f.DocumentID > 0 {
		q = q.Where("document_id = ?", f.DocumentID)
	}
	if f.PartyID > 0 {
		q = q.Where("party_id = ?", f.PartyID)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", f.To)
	}

	var out []models.Payment
	if err := q.Order("date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
