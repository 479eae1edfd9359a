// Package pipeline fetches raw market data and fuses it into per-security
// time series, one symbol or a batch at a time.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"cnstock/internal/datafeed"
	"cnstock/internal/errors"
	"cnstock/internal/logging"
	"cnstock/internal/models"
)

// Config controls the builder.
type Config struct {
	Workers     int
	HistoryDays int
}

// DefaultConfig returns 4 workers and two years of history.
func DefaultConfig() Config {
	return Config{Workers: 4, HistoryDays: 730}
}

// Builder fuses provider data into series.
type Builder struct {
	provider datafeed.Provider
	sectors  SectorLookup
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

// NewBuilder creates a builder. sectors may be nil.
func NewBuilder(provider datafeed.Provider, sectors SectorLookup, cfg Config, logger zerolog.Logger) *Builder {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 730
	}
	return &Builder{
		provider: provider,
		sectors:  sectors,
		cfg:      cfg,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		now:      time.Now,
	}
}

// request covers HistoryDays up to end. A zero end means tomorrow, so the
// current session is included.
func (b *Builder) request(symbols []string, end time.Time) datafeed.Request {
	if end.IsZero() {
		end = b.now().AddDate(0, 0, 1)
	}
	return datafeed.Request{
		Symbols: symbols,
		Kinds:   datafeed.AllKinds,
		Start:   end.AddDate(0, 0, -b.cfg.HistoryDays),
		End:     end,
	}
}

func (b *Builder) fetch(ctx context.Context, symbols []string, end time.Time) (datafeed.Grouped, error) {
	start := time.Now()
	batch, err := b.provider.FetchBatch(ctx, b.request(symbols, end))
	logging.LogFetch(b.logger, symbols, len(batch), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(err, "fetch failed")
	}
	return datafeed.Group(batch)
}

// Build fetches and fuses one symbol.
func (b *Builder) Build(ctx context.Context, symbol string, end time.Time) (*models.SecurityTimeSeries, error) {
	grouped, err := b.fetch(ctx, []string{symbol}, end)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s, err := Fuse(symbol, grouped, b.sectors)
	logging.LogBuild(b.logger, symbol, seriesLen(s), time.Since(start), err)
	return s, err
}

// BatchResult holds the series built by one batch, in request order.
// Skipped lists symbols without data; Failed holds the symbols whose data
// could not be fused.
type BatchResult struct {
	RunID   string
	Series  []*models.SecurityTimeSeries
	Skipped []string
	Failed  map[string]error
}

// BuildBatch fetches all symbols with a single query and fuses them in
// parallel. Symbols are built independently: one without data is skipped and
// one with bad data is recorded in Failed. Only a malformed batch or a
// cancelled context aborts the whole batch.
func (b *Builder) BuildBatch(ctx context.Context, symbols []string, end time.Time) (*BatchResult, error) {
	runID := uuid.NewString()
	logger := logging.WithRunID(b.logger, runID)
	started := time.Now()

	grouped, err := b.fetch(ctx, symbols, end)
	if err != nil {
		return nil, err
	}

	slots := make([]*models.SecurityTimeSeries, len(symbols))
	failures := make([]error, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for i, symbol := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			s, err := Fuse(symbol, grouped, b.sectors)
			logging.LogBuild(logger, symbol, seriesLen(s), time.Since(t), err)
			switch {
			case errors.Is(err, errors.ErrNoData):
				return nil
			case errors.Is(err, errors.ErrMalformedKey):
				return err
			case err != nil:
				failures[i] = err
				return nil
			}
			slots[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{RunID: runID, Failed: map[string]error{}}
	for i, s := range slots {
		if failures[i] != nil {
			logger.Error().Err(failures[i]).Str("symbol", symbols[i]).Msg("Series build failed, skipped")
			result.Failed[symbols[i]] = failures[i]
			continue
		}
		if s == nil {
			logger.Warn().Str("symbol", symbols[i]).Msg("No data for symbol, skipped")
			result.Skipped = append(result.Skipped, symbols[i])
			continue
		}
		result.Series = append(result.Series, s)
	}
	logging.LogBatch(logger, runID, len(symbols), len(result.Series), time.Since(started))
	return result, nil
}

// FailureMessages returns the Failed errors as text, keyed by symbol.
func (r *BatchResult) FailureMessages() map[string]string {
	if len(r.Failed) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Failed))
	for symbol, err := range r.Failed {
		out[symbol] = err.Error()
	}
	return out
}

func seriesLen(s *models.SecurityTimeSeries) int {
	if s == nil {
		return 0
	}
	return s.Len()
}
