// Package numbering suggests human-readable document numbers such as
// INV-202501-001. The numbers are advisory: uniqueness is enforced by the
// unique index on documents(user_id, kind, number).
package numbering

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"billing-backend/internal/billing"
)

// Prefix builds the series prefix for date, e.g. "INV-202501-" or "PUR-".
func Prefix(s billing.Series, date time.Time) string {
	if s.PeriodScoped {
		return fmt.Sprintf("%s-%s-", s.Prefix, date.Format("200601"))
	}
	return s.Prefix + "-"
}

// Next returns the number following last within prefix. A missing last
// number starts the series at 1, a non-numeric trailing segment counts as 0.
func Next(prefix, last string, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, trailingNumber(prefix, last)+1)
}

func trailingNumber(prefix, last string) int {
	if last == "" {
		return 0
	}
	seg := strings.TrimPrefix(last, prefix)
	if i := strings.LastIndex(seg, "-"); i >= 0 {
		seg = seg[i+1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(seg))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
