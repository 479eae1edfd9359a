package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"cnstock/internal/datafeed"
	"cnstock/internal/models"
)

// FetchBatch implements datafeed.Provider over the stored rows. KLINE,
// DIVID and FUNDFLOW rows are limited to [Start, End]; FINANCE includes every
// period up to End so an annual baseline is always available. Zero bounds are
// open.
func (s *SQLiteStore) FetchBatch(ctx context.Context, req datafeed.Request) (datafeed.RawBatch, error) {
	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = datafeed.AllKinds
	}

	batch := make(datafeed.RawBatch)
	for _, symbol := range req.Symbols {
		for _, kind := range kinds {
			var err error
			switch kind {
			case models.KindKline:
				err = s.fetchKline(ctx, batch, symbol, req.Start, req.End)
			case models.KindFinance:
				err = s.fetchFinance(ctx, batch, symbol, req.End)
			case models.KindDividend:
				err = s.fetchDividends(ctx, batch, symbol, req.Start, req.End)
			case models.KindFundFlow:
				err = s.fetchFundFlow(ctx, batch, symbol, req.Start, req.End)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return batch, nil
}

func bounds(start, end time.Time) (int64, int64) {
	lo, hi := int64(0), int64(1<<62)
	if !start.IsZero() {
		lo = start.Unix()
	}
	if !end.IsZero() {
		hi = end.Unix()
	}
	return lo, hi
}

func (s *SQLiteStore) fetchKline(ctx context.Context, batch datafeed.RawBatch, symbol string, start, end time.Time) error {
	lo, hi := bounds(start, end)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume, amount
		FROM kline
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, lo, hi)
	if err != nil {
		return fmt.Errorf("failed to query kline: %w", err)
	}
	defer rows.Close()

	fields := []string{
		models.FieldDate, models.FieldOpen, models.FieldHigh, models.FieldLow,
		models.FieldClose, models.FieldVolume, models.FieldAmount,
	}
	cols := make([][]any, len(fields))
	for rows.Next() {
		var date int64
		var open, high, low, close, volume, amount sql.NullFloat64
		if err := rows.Scan(&date, &open, &high, &low, &close, &volume, &amount); err != nil {
			return fmt.Errorf("failed to scan kline: %w", err)
		}
		values := []any{float64(date), value(open), value(high), value(low), value(close), value(volume), value(amount)}
		for i, v := range values {
			cols[i] = append(cols[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating kline: %w", err)
	}

	if len(cols[0]) == 0 {
		return nil
	}
	for i, f := range fields {
		batch.Put(models.Key{Symbol: symbol, Kind: models.KindKline, Field: f}, cols[i])
	}
	return nil
}

func (s *SQLiteStore) fetchFinance(ctx context.Context, batch datafeed.RawBatch, symbol string, end time.Time) error {
	_, hi := bounds(time.Time{}, end)
	rows, err := s.db.QueryContext(ctx, `
		SELECT period, metric, value
		FROM finance
		WHERE symbol = ? AND period <= ?
		ORDER BY period ASC
	`, symbol, hi)
	if err != nil {
		return fmt.Errorf("failed to query finance: %w", err)
	}
	defer rows.Close()

	var periods []int64
	metrics := make(map[string]map[int64]any)
	for rows.Next() {
		var period int64
		var metric string
		var v sql.NullFloat64
		if err := rows.Scan(&period, &metric, &v); err != nil {
			return fmt.Errorf("failed to scan finance: %w", err)
		}
		if len(periods) == 0 || periods[len(periods)-1] != period {
			periods = append(periods, period)
		}
		if metrics[metric] == nil {
			metrics[metric] = make(map[int64]any)
		}
		metrics[metric][period] = value(v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating finance: %w", err)
	}

	if len(periods) == 0 {
		return nil
	}
	dates := make([]any, len(periods))
	for i, p := range periods {
		dates[i] = float64(p)
	}
	batch.Put(models.Key{Symbol: symbol, Kind: models.KindFinance, Field: models.FieldDate}, dates)

	codes := make([]string, 0, len(metrics))
	for code := range metrics {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		col := make([]any, len(periods))
		for i, p := range periods {
			col[i] = metrics[code][p]
		}
		batch.Put(models.Key{Symbol: symbol, Kind: models.KindFinance, Field: code}, col)
	}
	return nil
}

func (s *SQLiteStore) fetchDividends(ctx context.Context, batch datafeed.RawBatch, symbol string, start, end time.Time) error {
	lo, hi := bounds(start, end)
	rows, err := s.db.QueryContext(ctx, `
		SELECT ex_date, bs, ds, sd
		FROM dividend
		WHERE symbol = ? AND ex_date >= ? AND ex_date <= ?
		ORDER BY ex_date ASC
	`, symbol, lo, hi)
	if err != nil {
		return fmt.Errorf("failed to query dividends: %w", err)
	}
	defer rows.Close()

	var dates, bs, ds, sd []any
	for rows.Next() {
		var date int64
		var b, d, c float64
		if err := rows.Scan(&date, &b, &d, &c); err != nil {
			return fmt.Errorf("failed to scan dividend: %w", err)
		}
		dates = append(dates, float64(date))
		bs = append(bs, b)
		ds = append(ds, d)
		sd = append(sd, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating dividends: %w", err)
	}

	key := func(field string) models.Key {
		return models.Key{Symbol: symbol, Kind: models.KindDividend, Field: field}
	}
	if dates == nil {
		return nil
	}
	batch.Put(key(models.FieldDate), dates)
	batch.Put(key(models.FieldBonusShares), bs)
	batch.Put(key(models.FieldAllotShares), ds)
	batch.Put(key(models.FieldCashDivid), sd)
	return nil
}

func (s *SQLiteStore) fetchFundFlow(ctx context.Context, batch datafeed.RawBatch, symbol string, start, end time.Time) error {
	lo, hi := bounds(start, end)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, tier, amount, ratio
		FROM fundflow
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, lo, hi)
	if err != nil {
		return fmt.Errorf("failed to query fund flow: %w", err)
	}
	defer rows.Close()

	type pair struct{ amount, ratio float64 }
	var dates []int64
	tiers := make(map[models.FlowTier]map[int64]pair)
	for rows.Next() {
		var date int64
		var tier string
		var p pair
		if err := rows.Scan(&date, &tier, &p.amount, &p.ratio); err != nil {
			return fmt.Errorf("failed to scan fund flow: %w", err)
		}
		if len(dates) == 0 || dates[len(dates)-1] != date {
			dates = append(dates, date)
		}
		t := models.FlowTier(tier)
		if tiers[t] == nil {
			tiers[t] = make(map[int64]pair)
		}
		tiers[t][date] = p
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating fund flow: %w", err)
	}

	if len(dates) == 0 {
		return nil
	}
	dateCol := make([]any, len(dates))
	for i, d := range dates {
		dateCol[i] = float64(d)
	}
	batch.Put(models.Key{Symbol: symbol, Kind: models.KindFundFlow, Field: models.FieldDate}, dateCol)

	for _, tier := range models.FlowTiers {
		byDate, ok := tiers[tier]
		if !ok {
			continue
		}
		amounts := make([]any, len(dates))
		ratios := make([]any, len(dates))
		for i, d := range dates {
			if p, ok := byDate[d]; ok {
				amounts[i], ratios[i] = p.amount, p.ratio
			}
		}
		batch.Put(models.Key{Symbol: symbol, Kind: models.KindFundFlow, Field: tier.AmountField()}, amounts)
		batch.Put(models.Key{Symbol: symbol, Kind: models.KindFundFlow, Field: tier.RatioField()}, ratios)
	}
	return nil
}

func value(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}
