package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"billing-backend/internal/apperr"
	"billing-backend/internal/auth"
	"billing-backend/internal/models"
)

var validate = validator.New()

type PaymentResponse struct {
	ID             uint   `json:"id"`
	DocumentID     uint   `json:"document_id"`
	DocumentNumber string `json:"document_number"`
	DocumentStatus string `json:"document_status"`
	PartyID        *uint  `json:"party_id"`
	Date           string `json:"date"`
	Amount         string `json:"amount"`
	Method         string `json:"method"`
	Reference      string `json:"reference"`
	Note           string `json:"note"`
}

func toResponse(p *models.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:         p.ID,
		DocumentID: p.DocumentID,
		PartyID:    p.PartyID,
		Date:       p.Date.Format("2006-01-02"),
		Amount:     p.Amount.StringFixed(2),
		Method:     string(p.Method),
		Reference:  p.Reference,
		Note:       p.Note,
	}
	if p.Document != nil {
		resp.DocumentNumber = p.Document.Number
		resp.DocumentStatus = p.Document.Status
	}
	return resp
}

// POST /api/payments
func RecordPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body RecordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		pay, err := svc.Record(c.UserContext(), userID, body)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(pay))
	}
}

// GET /api/payments?document_id=1&party_id=2&from=2025-01-01&to=2025-01-31
func ListPaymentsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		f := ListFilter{
			DocumentID: uint(c.QueryInt("document_id", 0)),
			PartyID:    uint(c.QueryInt("party_id", 0)),
		}
		for key, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
			if v := c.Query(key); v != "" {
				d, err := time.Parse("2006-01-02", v)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, key+" must be YYYY-MM-DD")
				}
				*dst = d
			}
		}

		list, err := svc.List(c.UserContext(), userID, f)
		if err != nil {
			return apperr.ToFiber(err)
		}
		resp := make([]PaymentResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toResponse(&list[i]))
		}
		return c.JSON(resp)
	}
}

// DELETE /api/payments/:id
func DeletePaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}

		if err := svc.Delete(c.UserContext(), userID, uint(id)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
