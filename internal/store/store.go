// Package store persists raw market-data rows and serves them back as batch
// query results.
package store

import (
	"context"
	"time"

	"cnstock/internal/datafeed"
	"cnstock/internal/models"
)

// DataStore defines the interface for raw-row persistence. Every store is
// also a datafeed.Provider.
type DataStore interface {
	datafeed.Provider

	// Rows
	SaveKline(ctx context.Context, symbol string, bars *models.KlineBars) error
	SaveFinance(ctx context.Context, symbol string, records []models.FinanceRecord) error
	SaveDividends(ctx context.Context, symbol string, events []models.DividendRecord) error
	SaveFundFlow(ctx context.Context, symbol string, records []models.FundFlowRecord) error

	// Import persists every symbol of a grouped batch result.
	Import(ctx context.Context, grouped datafeed.Grouped) (*ImportStats, error)

	// Catalog
	Symbols(ctx context.Context) ([]string, error)
	KlineFreshness(ctx context.Context, symbol string) (time.Time, error)

	// Sync
	GetLastSync(key string) time.Time
	SetLastSync(key string, t time.Time) error

	// Lifecycle
	Close() error
}

// ImportStats counts the rows written by an import.
type ImportStats struct {
	Symbols   int
	Klines    int
	Finance   int
	Dividends int
	FundFlow  int
	Skipped   []string
}
