package dashboard

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"billing-backend/internal/auth"
	"billing-backend/internal/billing"
	"billing-backend/internal/logging"
	"billing-backend/internal/models"
)

type Summary struct {
	MonthSales     decimal.Decimal `json:"month_sales"`
	MonthPurchases decimal.Decimal `json:"month_purchases"`
	Receivable     decimal.Decimal `json:"receivable"` // unpaid invoice balance
	Payable        decimal.Decimal `json:"payable"`    // unpaid purchase balance
	LowStockCount  int64           `json:"low_stock_count"`
	LowStockLimit  int64           `json:"low_stock_limit"`
}

// GET /api/dashboard/summary?low_stock=5
func SummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		limit := int64(5)
		if s := c.Query("low_stock"); s != "" {
			limit, err = strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "low_stock must be a whole number")
			}
		}

		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		tx := db.WithContext(c.UserContext())
		s := Summary{LowStockLimit: limit}

		sum := func(expr string, kinds []billing.Kind, since *time.Time) (decimal.Decimal, error) {
			var out decimal.NullDecimal
			q := tx.Model(&models.Document{}).
				Select("SUM("+expr+")").
				Where("user_id = ? AND kind IN ?", userID, kinds)
			if since != nil {
				q = q.Where("date >= ?", *since)
			}
			if err := q.Scan(&out).Error; err != nil {
				return decimal.Zero, err
			}
			if !out.Valid {
				return decimal.Zero, nil
			}
			return out.Decimal, nil
		}

		steps := []struct {
			dst   *decimal.Decimal
			expr  string
			kinds []billing.Kind
			since *time.Time
		}{
			{&s.MonthSales, "total_amount", salesKinds, &monthStart},
			{&s.MonthPurchases, "total_amount", []billing.Kind{billing.KindPurchase}, &monthStart},
			{&s.Receivable, "total_amount - paid_amount", []billing.Kind{billing.KindInvoice}, nil},
			{&s.Payable, "total_amount - paid_amount", []billing.Kind{billing.KindPurchase}, nil},
		}
		for _, st := range steps {
			if *st.dst, err = sum(st.expr, st.kinds, st.since); err != nil {
				break
			}
		}
		if err == nil {
			err = tx.Model(&models.Product{}).
				Where("user_id = ? AND stock_quantity <= ?", userID, limit).
				Count(&s.LowStockCount).Error
		}
		if err != nil {
			logging.LogError("dashboard", "SummaryHandler", "summarize", userID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not load dashboard")
		}

		return c.JSON(s)
	}
}
