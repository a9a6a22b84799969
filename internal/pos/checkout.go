// Package pos turns a point-of-sale cart into a paid POS sale document.
package pos

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"billing-backend/internal/apperr"
	"billing-backend/internal/billing"
	"billing-backend/internal/documents"
	"billing-backend/internal/models"
)

type CartItem struct {
	ProductID uint             `json:"product_id" validate:"required"`
	Quantity  int64            `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	// TaxRate breaks tax out on the receipt; POS lines carry none otherwise.
	TaxRate *decimal.Decimal `json:"tax_rate"`
}

type CheckoutRequest struct {
	CustomerID    *uint           `json:"customer_id"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash upi card bank"`
	Discount      decimal.Decimal `json:"discount"`
	RoundOff      decimal.Decimal `json:"round_off"`
	Notes         string          `json:"notes" validate:"max=500"`
	Date          string          `json:"date"`
	Items         []CartItem      `json:"items" validate:"dive"`
}

// DocumentStore is the part of documents.Service checkout needs.
type DocumentStore interface {
	Create(ctx context.Context, userID uint, kind billing.Kind, req documents.SaveRequest) (*models.Document, error)
	Get(ctx context.Context, userID uint, kind billing.Kind, id uint) (*models.Document, error)
	List(ctx context.Context, userID uint, kind billing.Kind, f documents.ListFilter) ([]models.Document, error)
}

type Checkout struct {
	docs DocumentStore
}

func NewCheckout(docs DocumentStore) *Checkout {
	return &Checkout{docs: docs}
}

// SaveRequest maps a cart onto a POS sale. An empty cart is rejected here,
// before anything is read or written.
func (r CheckoutRequest) SaveRequest() (documents.SaveRequest, error) {
	if len(r.Items) == 0 {
		return documents.SaveRequest{}, apperr.Validation("cart is empty")
	}

	method := strings.TrimSpace(r.PaymentMethod)
	if method == "" {
		method = string(models.PaymentCash)
	}

	items := make([]documents.LineRequest, 0, len(r.Items))
	for _, it := range r.Items {
		pid := it.ProductID
		items = append(items, documents.LineRequest{
			ProductID: &pid,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			TaxRate:   it.TaxRate,
		})
	}

	return documents.SaveRequest{
		Date:          r.Date,
		PartyID:       r.CustomerID,
		Notes:         r.Notes,
		PaymentMethod: method,
		Discount:      r.Discount,
		RoundOff:      r.RoundOff,
		Items:         items,
	}, nil
}

// Submit records the sale as paid and decreases stock per line in one
// transaction.
func (c *Checkout) Submit(ctx context.Context, userID uint, req CheckoutRequest) (*models.Document, error) {
	saveReq, err := req.SaveRequest()
	if err != nil {
		return nil, err
	}
	return c.docs.Create(ctx, userID, billing.KindPOSSale, saveReq)
}

func (c *Checkout) Sale(ctx context.Context, userID, id uint) (*models.Document, error) {
	return c.docs.Get(ctx, userID, billing.KindPOSSale, id)
}

func (c *Checkout) Sales(ctx context.Context, userID uint, f documents.ListFilter) ([]models.Document, error) {
	return c.docs.List(ctx, userID, billing.KindPOSSale, f)
}
