package dashboard

import (
	"sort"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"billing-backend/internal/auth"
	"billing-backend/internal/billing"
	"billing-backend/internal/logging"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// salesKinds are the documents counted as revenue on the chart.
var salesKinds = []billing.Kind{billing.KindInvoice, billing.KindPOSSale}

type Point struct {
	Label    string                     `json:"label"` // bucket start, YYYY-MM-DD
	ByMethod map[string]decimal.Decimal `json:"by_method"`
	Total    decimal.Decimal            `json:"total"`
}

type ChartResponse struct {
	Period     string                     `json:"period"`
	From       string                     `json:"from"`
	To         string                     `json:"to"`
	Points     []Point                    `json:"points"`
	ByMethod   map[string]decimal.Decimal `json:"by_method"`
	GrandTotal decimal.Decimal            `json:"grand_total"`
}

// Window is the inclusive date range covered by a chart.
type Window struct {
	Period string
	Start  time.Time
	End    time.Time
}

// NewWindow resolves period and count against today. An unknown period
// falls back to daily; count <= 0 picks the default for the period.
func NewWindow(period string, count int, now time.Time) Window {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodWeekly:
		if count <= 0 {
			count = 8
		}
		// weeks start on Monday, like date_trunc('week')
		offset := (int(today.Weekday()) + 6) % 7
		thisWeek := today.AddDate(0, 0, -offset)
		return Window{Period: period, Start: thisWeek.AddDate(0, 0, -7*(count-1)), End: today}
	case PeriodMonthly:
		if count <= 0 {
			count = 12
		}
		thisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Window{Period: period, Start: thisMonth.AddDate(0, -(count - 1), 0), End: today}
	default:
		if count <= 0 {
			count = 7
		}
		return Window{Period: PeriodDaily, Start: today.AddDate(0, 0, -(count - 1)), End: today}
	}
}

func (w Window) trunc() string {
	switch w.Period {
	case PeriodWeekly:
		return "week"
	case PeriodMonthly:
		return "month"
	default:
		return "day"
	}
}

type Row struct {
	Bucket time.Time       `gorm:"column:bucket"`
	Method string          `gorm:"column:method"`
	Total  decimal.Decimal `gorm:"column:total"`
}

// Fold groups aggregated rows into chart points ordered by bucket. Rows with
// no payment method are counted under "other".
func Fold(rows []Row) ([]Point, map[string]decimal.Decimal, decimal.Decimal) {
	byBucket := make(map[time.Time]*Point)
	grandByMethod := make(map[string]decimal.Decimal)
	grand := decimal.Zero

	for _, r := range rows {
		method := r.Method
		if method == "" {
			method = "other"
		}
		p, ok := byBucket[r.Bucket]
		if !ok {
			p = &Point{Label: r.Bucket.Format("2006-01-02"), ByMethod: map[string]decimal.Decimal{}, Total: decimal.Zero}
			byBucket[r.Bucket] = p
		}
		p.ByMethod[method] = p.ByMethod[method].Add(r.Total)
		p.Total = p.Total.Add(r.Total)
		grandByMethod[method] = grandByMethod[method].Add(r.Total)
		grand = grand.Add(r.Total)
	}

	keys := make([]time.Time, 0, len(byBucket))
	for k := range byBucket {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]Point, 0, len(keys))
	for _, k := range keys {
		points = append(points, *byBucket[k])
	}
	return points, grandByMethod, grand
}

// GET /api/dashboard/sales-chart?period=daily&count=7
func SalesChartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		count := 0
		if s := c.Query("count"); s != "" {
			count, err = strconv.Atoi(s)
			if err != nil || count <= 0 || count > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "count must be between 1 and 366")
			}
		}
		w := NewWindow(c.Query("period", PeriodDaily), count, time.Now())

		var rows []Row
		err = db.WithContext(c.UserContext()).Raw(`
			SELECT date_trunc(?, date)::date AS bucket,
			       COALESCE(payment_method, '') AS method,
			       SUM(total_amount) AS total
			FROM documents
			WHERE user_id = ? AND kind IN ? AND date >= ? AND date <= ?
			GROUP BY bucket, method
			ORDER BY bucket ASC`,
			w.trunc(), userID, salesKinds, w.Start, w.End).
			Scan(&rows).Error
		if err != nil {
			logging.LogError("dashboard", "SalesChartHandler", "aggregate sales", w, err)
			return fiber.NewError(fiber.StatusInternalServerError, "could not load sales chart")
		}

		points, byMethod, grand := Fold(rows)
		return c.JSON(ChartResponse{
			Period:     w.Period,
			From:       w.Start.Format("2006-01-02"),
			To:         w.End.Format("2006-01-02"),
			Points:     points,
			ByMethod:   byMethod,
			GrandTotal: grand,
		})
	}
}
