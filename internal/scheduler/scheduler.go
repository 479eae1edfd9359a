// Package scheduler refreshes a watchlist on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"cnstock/internal/analysis"
	"cnstock/internal/export"
	"cnstock/internal/logging"
	"cnstock/internal/pipeline"
)

// SyncRecorder records when a symbol was last refreshed.
type SyncRecorder interface {
	SetLastSync(key string, t time.Time) error
}

// RefreshKey returns the sync key of a scheduled refresh.
func RefreshKey(symbol string) string {
	return "refresh:" + symbol
}

// Result summarizes one refresh run.
type Result struct {
	RunID    string
	Exported []string
	Skipped  []string
	Failed   map[string]error
}

// Scheduler rebuilds and exports a watchlist on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	builder   *pipeline.Builder
	analyzer  *analysis.Analyzer
	exporter  *export.Exporter
	syncs     SyncRecorder
	watchlist []string
	logger    zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
}

// New creates a scheduler. syncs may be nil.
func New(ctx context.Context, builder *pipeline.Builder, analyzer *analysis.Analyzer, exporter *export.Exporter,
	syncs SyncRecorder, watchlist []string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		builder:   builder,
		analyzer:  analyzer,
		exporter:  exporter,
		syncs:     syncs,
		watchlist: watchlist,
		logger:    logging.WithOperation(logger, "scheduler"),
		ctx:       ctx,
	}
}

// Register schedules the watchlist refresh. expr uses the six-field cron
// format with a leading seconds field.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("symbols", len(s.watchlist)).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous refresh still running, tick skipped")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if _, err := s.RunNow(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("Refresh failed")
	}
}

// RunNow rebuilds every watchlist symbol and exports it with its indicators.
// A failed build or export is recorded per symbol and does not stop the run.
func (s *Scheduler) RunNow(ctx context.Context) (*Result, error) {
	started := time.Now()
	batch, err := s.builder.BuildBatch(ctx, s.watchlist, time.Time{})
	if err != nil {
		return nil, err
	}

	logger := logging.WithRunID(s.logger, batch.RunID)
	result := &Result{RunID: batch.RunID, Skipped: batch.Skipped, Failed: map[string]error{}}
	for symbol, err := range batch.Failed {
		result.Failed[symbol] = err
	}
	for _, series := range batch.Series {
		set, err := s.analyzer.Indicators(ctx, series)
		if err != nil {
			result.Failed[series.Symbol] = err
			logger.Error().Err(err).Str("symbol", series.Symbol).Msg("Indicator calculation failed")
			continue
		}
		path, err := s.exporter.Export(series, set)
		if err != nil {
			result.Failed[series.Symbol] = err
			logger.Error().Err(err).Str("symbol", series.Symbol).Msg("Export failed")
			continue
		}
		result.Exported = append(result.Exported, series.Symbol)
		logger.Debug().Str("symbol", series.Symbol).Str("path", path).Msg("Exported")
		if s.syncs != nil {
			if err := s.syncs.SetLastSync(RefreshKey(series.Symbol), time.Now()); err != nil {
				logger.Warn().Err(err).Str("symbol", series.Symbol).Msg("Failed to record refresh")
			}
		}
	}

	logger.Info().
		Int("exported", len(result.Exported)).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failed)).
		Dur("duration", time.Since(started)).
		Msg("Watchlist refreshed")
	return result, nil
}
