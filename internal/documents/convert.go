package documents

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/billing"
	"billing-backend/internal/models"
)

// conversions lists the kinds that can be turned into another kind.
var conversions = map[billing.Kind]billing.Kind{
	billing.KindQuotation:       billing.KindInvoice,
	billing.KindDeliveryChallan: billing.KindInvoice,
}

type ConvertRequest struct {
	Number string `json:"number" validate:"max=50"`
	Date   string `json:"date"`
}

// ConversionRequest builds the save request for the document src converts
// into. Prices carry over; tax is re-seeded from the catalog when the source
// kind has no tax column.
func ConversionRequest(src *models.Document, target billing.Profile, req ConvertRequest) SaveRequest {
	srcProfile := billing.MustProfile(src.Kind)
	keepTax := srcProfile.LineMode != billing.LineChallan

	out := SaveRequest{
		Number:           req.Number,
		Date:             req.Date,
		PartyID:          src.PartyID,
		Notes:            src.Notes,
		SourceDocumentID: &src.ID,
		Items:            make([]LineRequest, 0, len(src.Items)),
	}

	c := src.Charges()
	allowed := target.Charges
	if allowed.Discount {
		out.Discount = c.Discount
	}
	if allowed.RoundOff {
		out.RoundOff = c.RoundOff
	}
	if allowed.Transport {
		out.Transport = c.Transport
	}
	if allowed.Installation {
		out.Installation = c.Installation
	}
	if allowed.Custom {
		out.CustomCharges = c.Custom
	}

	for _, it := range src.Items {
		price := it.UnitPrice
		lr := LineRequest{
			ProductID: it.ProductID,
			Name:      it.Name,
			HSNCode:   it.HSNCode,
			Unit:      it.Unit,
			Quantity:  it.Quantity,
			UnitPrice: &price,
			Discount:  it.Discount,
		}
		if keepTax || it.ProductID == nil {
			rate := it.TaxRate
			lr.TaxRate = &rate
		}
		out.Items = append(out.Items, lr)
	}
	return out
}

// Convert creates the target document from a quotation or delivery challan
// and marks the source converted in the same transaction.
func (s *Service) Convert(ctx context.Context, userID uint, from billing.Kind, id uint, req ConvertRequest) (*models.Document, error) {
	to, ok := conversions[from]
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("%s cannot be converted", from))
	}

	src, err := s.load(s.db.WithContext(ctx), userID, from, id, false)
	if err != nil {
		return nil, err
	}
	if src.Status == billing.StatusConverted {
		return nil, apperr.Validation(fmt.Sprintf("%s %s is already converted", from, src.Number))
	}

	saveReq := ConversionRequest(src, billing.MustProfile(to), req)
	return s.create(ctx, userID, to, saveReq, func(tx *gorm.DB, _ *models.Document) error {
		res := tx.Model(&models.Document{}).
			Where("id = ? AND user_id = ? AND status <> ?", src.ID, userID, billing.StatusConverted).
			Update("status", billing.StatusConverted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Validation(fmt.Sprintf("%s %s is already converted", from, src.Number))
		}
		return nil
	})
}
