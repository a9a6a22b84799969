package export

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"billing-backend/internal/apperr"
	"billing-backend/internal/auth"
	"billing-backend/internal/billing"
	"billing-backend/internal/logging"
	"billing-backend/internal/models"
)

var exportedKinds = []billing.Kind{
	billing.KindInvoice,
	billing.KindPOSSale,
	billing.KindPurchase,
	billing.KindSalesReturn,
	billing.KindPurchaseReturn,
}

// period defaults to the current month up to today.
func period(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if v := c.Query("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = d
	}
	if v := c.Query("to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		to = d
	}
	if to.Before(from) {
		return from, to, fiber.NewError(fiber.StatusBadRequest, "to is before from")
	}
	return from, to, nil
}

// GET /api/exports/ca?from=2025-04-01&to=2025-06-30
func CAExportHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		from, to, err := period(c)
		if err != nil {
			return err
		}

		var docs []models.Document
		if err := db.WithContext(c.UserContext()).
			Preload("Items").
			Preload("Party").
			Where("user_id = ? AND kind IN ? AND date BETWEEN ? AND ?", userID, exportedKinds, from, to).
			Order("date, id").
			Find(&docs).Error; err != nil {
			return apperr.ToFiber(err)
		}

		f, err := Workbook(docs)
		if err != nil {
			logging.LogError("export", "CAExportHandler", "build workbook", fiber.Map{"from": from, "to": to}, err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not build export")
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			logging.LogError("export", "CAExportHandler", "write workbook", nil, err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not build export")
		}

		name := fmt.Sprintf("ca-export_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		return c.Send(buf.Bytes())
	}
}
