package datafeed

import (
	"sort"
	"time"

	"cnstock/internal/errors"
	"cnstock/internal/models"
)

// KlineBars returns the bars of symbol. A symbol without KLINE rows yields an
// error wrapping ErrNoData. Absent fields other than CLOSE are zero-filled.
func (g Grouped) KlineBars(symbol string) (*models.KlineBars, error) {
	return klineBars(symbol, g.Kind(symbol, models.KindKline))
}

// Dividends returns the dividend events of symbol sorted by ex-date, or nil
// when the stream is absent.
func (g Grouped) Dividends(symbol string) []models.DividendRecord {
	fields := g.Kind(symbol, models.KindDividend)
	if !fields.Has(models.FieldDate) {
		return nil
	}
	return dividendRecords(fields)
}

// Finance returns the financial records of symbol sorted by period, or nil
// when the stream is absent. A stream without DATE is a snapshot dated last.
func (g Grouped) Finance(symbol string, last time.Time) []models.FinanceRecord {
	fields := g.Kind(symbol, models.KindFinance)
	if len(fields) == 0 {
		return nil
	}
	return financeRecords(fields, last)
}

// FundFlow returns the capital-flow records of symbol sorted by date, or nil
// when the stream is absent. A stream without DATE is a snapshot dated last.
func (g Grouped) FundFlow(symbol string, last time.Time) []models.FundFlowRecord {
	fields := g.Kind(symbol, models.KindFundFlow)
	if len(fields) == 0 {
		return nil
	}
	return fundFlowRecords(fields, last)
}

func klineBars(symbol string, fields Fields) (*models.KlineBars, error) {
	dates, ok := fields[models.FieldDate]
	if !ok || dates.Len() == 0 {
		return nil, errors.NoData(symbol, "no KLINE rows")
	}
	if !fields.Has(models.FieldClose) {
		return nil, errors.NoData(symbol, "KLINE stream has no CLOSE")
	}

	n := dates.Len()
	bars := &models.KlineBars{
		Dates:  toDates(dates.Values),
		Open:   floats(fields, models.FieldOpen, n),
		High:   floats(fields, models.FieldHigh, n),
		Low:    floats(fields, models.FieldLow, n),
		Close:  floats(fields, models.FieldClose, n),
		Volume: floats(fields, models.FieldVolume, n),
		Amount: floats(fields, models.FieldAmount, n),
	}
	if err := bars.Validate(); err != nil {
		return nil, errors.NewDataError(string(models.KindKline), symbol, "invalid bars", err)
	}
	return bars, nil
}

// floats returns a copy of the field column, or zeros when the field is
// absent.
func floats(fields Fields, field string, n int) []float64 {
	col, ok := fields[field]
	if !ok {
		return make([]float64, n)
	}
	return append([]float64(nil), col.Values...)
}

func toDates(values []float64) []time.Time {
	out := make([]time.Time, len(values))
	for i, v := range values {
		out[i] = models.UnixDate(int64(v))
	}
	return out
}

// metricAt returns entry i of field, defaulted when absent or short.
func metricAt(fields Fields, field string, i int) models.Metric {
	col, ok := fields[field]
	if !ok || i >= col.Len() {
		return models.Metric{Defaulted: true}
	}
	return col.Metric(i)
}

// rowDates returns the dates of a secondary stream. A stream without DATE is
// a single-row snapshot taken on the last trading day.
func rowDates(fields Fields, last time.Time) (dates []time.Time, first int) {
	if col, ok := fields[models.FieldDate]; ok {
		return toDates(col.Values), 0
	}
	n := 0
	for _, col := range fields {
		if col.Len() > n {
			n = col.Len()
		}
	}
	if n == 0 {
		return nil, 0
	}
	return []time.Time{last}, n - 1
}

func dividendRecords(fields Fields) []models.DividendRecord {
	dates := toDates(fields[models.FieldDate].Values)
	events := make([]models.DividendRecord, len(dates))
	for i, d := range dates {
		events[i] = models.DividendRecord{
			ExDate:     d,
			CashPer10:  metricAt(fields, models.FieldCashDivid, i).Value,
			BonusPer10: metricAt(fields, models.FieldBonusShares, i).Value,
			AllotPer10: metricAt(fields, models.FieldAllotShares, i).Value,
		}
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].ExDate.Before(events[b].ExDate) })
	return events
}

func financeRecords(fields Fields, last time.Time) []models.FinanceRecord {
	dates, first := rowDates(fields, last)
	records := make([]models.FinanceRecord, len(dates))
	for i, d := range dates {
		rec := models.FinanceRecord{Period: d}
		for field := range fields {
			if field == models.FieldDate {
				continue
			}
			rec.Set(field, metricAt(fields, field, first+i))
		}
		records[i] = rec
	}
	sort.SliceStable(records, func(a, b int) bool { return records[a].Period.Before(records[b].Period) })
	return records
}

func fundFlowRecords(fields Fields, last time.Time) []models.FundFlowRecord {
	dates, first := rowDates(fields, last)
	records := make([]models.FundFlowRecord, len(dates))
	for i, d := range dates {
		rec := models.FundFlowRecord{Date: d}
		for _, tier := range models.FlowTiers {
			if !fields.Has(tier.AmountField()) || !fields.Has(tier.RatioField()) {
				continue
			}
			amount := metricAt(fields, tier.AmountField(), first+i)
			if amount.Defaulted {
				continue
			}
			rec.SetTier(tier, &models.FlowAmount{
				Amount: amount.Value,
				Ratio:  metricAt(fields, tier.RatioField(), first+i).Value,
			})
		}
		records[i] = rec
	}
	sort.SliceStable(records, func(a, b int) bool { return records[a].Date.Before(records[b].Date) })
	return records
}
