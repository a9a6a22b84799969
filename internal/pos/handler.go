package pos

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"billing-backend/internal/apperr"
	"billing-backend/internal/auth"
	"billing-backend/internal/documents"
)

var validate = validator.New()

type SaleSummary struct {
	ID            uint   `json:"id"`
	Number        string `json:"number"`
	Date          string `json:"date"`
	CustomerName  string `json:"customer_name,omitempty"`
	PaymentMethod string `json:"payment_method"`
	TotalAmount   string `json:"total_amount"`
}

// POST /api/pos/checkout
func CheckoutHandler(co *Checkout) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CheckoutRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sale, err := co.Submit(c.UserContext(), userID, body)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(sale)
	}
}

// GET /api/pos/sales?date=2025-01-31
func ListSalesHandler(co *Checkout) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var f documents.ListFilter
		if v := c.Query("date"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
			}
			f.From, f.To = d, d
		}

		sales, err := co.Sales(c.UserContext(), userID, f)
		if err != nil {
			return apperr.ToFiber(err)
		}

		resp := make([]SaleSummary, 0, len(sales))
		for _, s := range sales {
			sum := SaleSummary{
				ID:            s.ID,
				Number:        s.Number,
				Date:          s.Date.Format("2006-01-02"),
				PaymentMethod: s.PaymentMethod,
				TotalAmount:   s.TotalAmount.StringFixed(2),
			}
			if s.Party != nil {
				sum.CustomerName = s.Party.Name
			}
			resp = append(resp, sum)
		}
		return c.JSON(resp)
	}
}

// GET /api/pos/sales/:id
func GetSaleHandler(co *Checkout) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}

		sale, err := co.Sale(c.UserContext(), userID, uint(id))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(sale)
	}
}
