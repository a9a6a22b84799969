package ledger

import (
	"github.com/gofiber/fiber/v2"

	"billing-backend/internal/apperr"
	"billing-backend/internal/auth"
	"billing-backend/internal/logging"
)

// GET /api/products/:id/ledger
func ProductLedgerHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		rep, err := svc.Reconstruct(c.UserContext(), userID, uint(id))
		if err != nil {
			return apperr.ToFiber(err)
		}
		if rep.Drift != 0 {
			logging.GetLogger().WithFields(map[string]any{
				"product_id": rep.ProductID,
				"closing":    rep.ClosingBalance,
				"current":    rep.CurrentStock,
			}).Debug("ledger differs from live stock")
		}
		return c.JSON(rep)
	}
}
