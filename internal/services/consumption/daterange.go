package consumption

import (
	"time"

	"github.com/j-veylop/neon-usage-tui/internal/models"
)

// WindowDays is how many complete days before today the dashboard covers.
const WindowDays = 30

// LastThirtyDays returns [midnight(now-30d), midnight(now+1d)) in UTC, so the
// window holds thirty complete days plus today's partial data.
func LastThirtyDays(now time.Time) models.DateRange {
	now = now.UTC()
	return models.DateRange{
		From: utcMidnight(now.AddDate(0, 0, -WindowDays)),
		To:   utcMidnight(now.AddDate(0, 0, 1)),
	}
}

func utcMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
