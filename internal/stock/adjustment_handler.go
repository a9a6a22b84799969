package stock

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"billing-backend/internal/apperr"
	"billing-backend/internal/auth"
)

var validate = validator.New()

type AdjustmentResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Type        string `json:"type"`
	Quantity    int64  `json:"quantity"`
	Reason      string `json:"reason"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at"`
}

// POST /api/stock-adjustments
func CreateAdjustmentHandler(svc *Adjustments) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body CreateAdjustmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		adj, err := svc.Create(c.UserContext(), userID, body)
		if err != nil {
			return apperr.ToFiber(err)
		}

		name := ""
		if adj.Product != nil {
			name = adj.Product.Name
		}
		return c.Status(fiber.StatusCreated).JSON(AdjustmentResponse{
			ID:          adj.ID,
			ProductID:   adj.ProductID,
			ProductName: name,
			Type:        string(adj.Type),
			Quantity:    adj.Quantity,
			Reason:      adj.Reason,
			Date:        adj.Date.Format("2006-01-02"),
			CreatedAt:   adj.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GET /api/stock-adjustments?product_id=1
func ListAdjustmentsHandler(svc *Adjustments) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		list, err := svc.List(c.UserContext(), userID, uint(c.QueryInt("product_id", 0)))
		if err != nil {
			return apperr.ToFiber(err)
		}

		resp := make([]AdjustmentResponse, 0, len(list))
		for _, adj := range list {
			name := ""
			if adj.Product != nil {
				name = adj.Product.Name
			}
			resp = append(resp, AdjustmentResponse{
				ID:          adj.ID,
				ProductID:   adj.ProductID,
				ProductName: name,
				Type:        string(adj.Type),
				Quantity:    adj.Quantity,
				Reason:      adj.Reason,
				Date:        adj.Date.Format("2006-01-02"),
				CreatedAt:   adj.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}

// DELETE /api/stock-adjustments/:id
func DeleteAdjustmentHandler(svc *Adjustments) fiber.Handler {
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
