package store

import (
	"context"
	"time"

	"cnstock/internal/datafeed"
	"cnstock/internal/errors"
)

// SyncKey returns the sync-status key of a symbol's last import.
func SyncKey(symbol string) string {
	return "import:" + symbol
}

// Import persists every symbol of a grouped batch result. Symbols without
// KLINE rows are skipped, since snapshot streams are dated by the last bar.
func (s *SQLiteStore) Import(ctx context.Context, grouped datafeed.Grouped) (*ImportStats, error) {
	stats := &ImportStats{}
	for _, symbol := range grouped.Symbols() {
		bars, err := grouped.KlineBars(symbol)
		if errors.Is(err, errors.ErrNoData) {
			stats.Skipped = append(stats.Skipped, symbol)
			continue
		}
		if err != nil {
			return stats, err
		}

		last := bars.Dates[len(bars.Dates)-1]
		finance := grouped.Finance(symbol, last)
		dividends := grouped.Dividends(symbol)
		flows := grouped.FundFlow(symbol, last)

		if err := s.SaveKline(ctx, symbol, bars); err != nil {
			return stats, errors.Wrapf(err, "import %s", symbol)
		}
		if err := s.SaveFinance(ctx, symbol, finance); err != nil {
			return stats, errors.Wrapf(err, "import %s", symbol)
		}
		if err := s.SaveDividends(ctx, symbol, dividends); err != nil {
			return stats, errors.Wrapf(err, "import %s", symbol)
		}
		if err := s.SaveFundFlow(ctx, symbol, flows); err != nil {
			return stats, errors.Wrapf(err, "import %s", symbol)
		}
		if err := s.SetLastSync(SyncKey(symbol), time.Now()); err != nil {
			return stats, err
		}

		stats.Symbols++
		stats.Klines += bars.Len()
		stats.Finance += len(finance)
		stats.Dividends += len(dividends)
		stats.FundFlow += len(flows)
	}
	return stats, nil
}
