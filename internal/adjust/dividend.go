package adjust

import (
	"time"

	"cnstock/internal/calendar"
	"cnstock/internal/models"
)

// Distributions aligns dividend events onto the trading calendar and returns
// the per-share cash (GIVEN_CASH) and share grant ratio (GIVEN_SHARE) of every
// bar. Both are zero except on the first trading day on or after an ex-date.
func Distributions(dates []time.Time, events []models.DividendRecord) (cash, shares []float64) {
	if len(events) == 0 {
		return make([]float64, len(dates)), make([]float64, len(dates))
	}

	exDates := make([]time.Time, len(events))
	perShareCash := make([]float64, len(events))
	perShareGrant := make([]float64, len(events))
	for i, e := range events {
		exDates[i] = e.ExDate
		perShareCash[i] = zeroNaN(e.Cash())
		perShareGrant[i] = zeroNaN(e.ShareRatio())
	}

	cash = calendar.Spread(dates, exDates, perShareCash)
	shares = calendar.Spread(dates, exDates, perShareGrant)
	return cash, shares
}
