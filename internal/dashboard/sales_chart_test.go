package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewWindow(t *testing.T) {
	// Wednesday
	now := time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name   string
		period string
		count  int
		want   Window
	}{
		{"daily default", "", 0, Window{PeriodDaily, day(2025, 3, 6), day(2025, 3, 12)}},
		{"unknown falls back to daily", "hourly", 3, Window{PeriodDaily, day(2025, 3, 10), day(2025, 3, 12)}},
		{"weekly from monday", PeriodWeekly, 2, Window{PeriodWeekly, day(2025, 3, 3), day(2025, 3, 12)}},
		{"monthly crosses the year", PeriodMonthly, 4, Window{PeriodMonthly, day(2024, 12, 1), day(2025, 3, 12)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewWindow(tc.period, tc.count, now))
		})
	}
}

func TestFold(t *testing.T) {
	rows := []Row{
		{Bucket: day(2025, 3, 11), Method: "upi", Total: decimal.NewFromInt(300)},
		{Bucket: day(2025, 3, 10), Method: "cash", Total: decimal.NewFromInt(100)},
		{Bucket: day(2025, 3, 10), Method: "", Total: decimal.NewFromInt(50)},
		{Bucket: day(2025, 3, 11), Method: "cash", Total: decimal.RequireFromString("20.50")},
	}

	points, byMethod, grand := Fold(rows)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-03-10", points[0].Label)
	assert.Equal(t, "150", points[0].Total.String())
	assert.Equal(t, "50", points[0].ByMethod["other"].String())

	assert.Equal(t, "2025-03-11", points[1].Label)
	assert.Equal(t, "320.5", points[1].Total.String())

	assert.Equal(t, "120.5", byMethod["cash"].String())
	assert.Equal(t, "470.5", grand.String())
}
