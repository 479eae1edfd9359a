package pipeline

import (
	"time"

	"cnstock/internal/adjust"
	"cnstock/internal/calendar"
	"cnstock/internal/datafeed"
	"cnstock/internal/errors"
	"cnstock/internal/models"
)

// SectorLookup resolves the sector names of a symbol.
type SectorLookup interface {
	Lookup(symbol string) []string
}

// Fuse builds the calendar-aligned, adjusted series of symbol from a grouped
// batch. A symbol without KLINE rows yields an error wrapping ErrNoData;
// missing FINANCE, DIVID or FUNDFLOW streams are left out of the result.
func Fuse(symbol string, g datafeed.Grouped, sectors SectorLookup) (*models.SecurityTimeSeries, error) {
	bars, err := g.KlineBars(symbol)
	if err != nil {
		return nil, err
	}

	events := g.Dividends(symbol)
	cash, shares := adjust.Distributions(bars.Dates, events)

	raw, err := adjust.Apply(bars, cash, shares)
	if err != nil {
		return nil, errors.NewDataError(string(models.KindDividend), symbol, "adjustment failed", err)
	}

	s := &models.SecurityTimeSeries{
		Symbol:     symbol,
		Dates:      bars.Dates,
		Open:       bars.Open,
		High:       bars.High,
		Low:        bars.Low,
		Close:      bars.Close,
		Volume:     bars.Volume,
		Amount:     bars.Amount,
		Close2:     raw,
		GivenCash:  cash,
		GivenShare: shares,
		Dividends:  events,
		Sectors:    []string{},
	}

	last := bars.Dates[len(bars.Dates)-1]
	s.Finance = alignFinance(bars.Dates, g.Finance(symbol, last))
	s.FundFlow = alignFundFlow(bars.Dates, g.FundFlow(symbol, last))
	if sectors != nil {
		s.Sectors = sectors.Lookup(symbol)
	}

	if err := s.Validate(); err != nil {
		return nil, errors.NewDataError(string(models.KindKline), symbol, "fused series is inconsistent", err)
	}
	return s, nil
}

func alignFinance(base []time.Time, records []models.FinanceRecord) *models.AlignedFinance {
	if len(records) == 0 {
		return nil
	}
	periods := make([]time.Time, len(records))
	for i, r := range records {
		periods[i] = r.Period
	}
	a := calendar.AsOf(base, periods)
	return &models.AlignedFinance{Records: records, Index: a.Index, Preceded: a.Preceded}
}

func alignFundFlow(base []time.Time, records []models.FundFlowRecord) *models.AlignedFundFlow {
	if len(records) == 0 {
		return nil
	}
	dates := make([]time.Time, len(records))
	for i, r := range records {
		dates[i] = r.Date
	}
	a := calendar.AsOf(base, dates)
	return &models.AlignedFundFlow{Records: records, Index: a.Index, Preceded: a.Preceded}
}
