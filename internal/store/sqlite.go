package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cnstock/internal/datafeed"
	"cnstock/internal/errors"
	"cnstock/internal/models"
)

// SQLiteStore implements DataStore using SQLite. Dates are stored as unix
// seconds.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", errors.ErrDatabaseError, err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to initialize schema: %w", errors.ErrDatabaseError, err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Daily bars
	CREATE TABLE IF NOT EXISTS kline (
		symbol TEXT NOT NULL,
		date INTEGER NOT NULL,
		open REAL,
		high REAL,
		low REAL,
		close REAL NOT NULL,
		volume REAL,
		amount REAL,
		PRIMARY KEY (symbol, date)
	);

	-- Financial metrics, one row per report period and metric code
	CREATE TABLE IF NOT EXISTS finance (
		symbol TEXT NOT NULL,
		period INTEGER NOT NULL,
		metric TEXT NOT NULL,
		value REAL,
		PRIMARY KEY (symbol, period, metric)
	);

	-- Corporate actions, amounts per 10 shares
	CREATE TABLE IF NOT EXISTS dividend (
		symbol TEXT NOT NULL,
		ex_date INTEGER NOT NULL,
		bs REAL NOT NULL DEFAULT 0,
		ds REAL NOT NULL DEFAULT 0,
		sd REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, ex_date)
	);

	-- Capital flow per tier
	CREATE TABLE IF NOT EXISTS fundflow (
		symbol TEXT NOT NULL,
		date INTEGER NOT NULL,
		tier TEXT NOT NULL,
		amount REAL NOT NULL,
		ratio REAL NOT NULL,
		PRIMARY KEY (symbol, date, tier)
	);

	-- Sync status table
	CREATE TABLE IF NOT EXISTS sync_status (
		data_type TEXT PRIMARY KEY,
		last_sync DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// exec runs fn inside a transaction with a prepared statement.
func (s *SQLiteStore) exec(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveKline stores daily bars, replacing existing rows of the same date.
func (s *SQLiteStore) SaveKline(ctx context.Context, symbol string, bars *models.KlineBars) error {
	if bars.Len() == 0 {
		return nil
	}
	if err := bars.Validate(); err != nil {
		return errors.NewDataError(string(models.KindKline), symbol, "refusing to store invalid bars", err)
	}

	return s.exec(ctx, `
		INSERT OR REPLACE INTO kline (symbol, date, open, high, low, close, volume, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, func(stmt *sql.Stmt) error {
		for i, d := range bars.Dates {
			_, err := stmt.ExecContext(ctx, symbol, d.Unix(),
				nullable(bars.Open[i]), nullable(bars.High[i]), nullable(bars.Low[i]),
				bars.Close[i], nullable(bars.Volume[i]), nullable(bars.Amount[i]))
			if err != nil {
				return fmt.Errorf("failed to insert kline: %w", err)
			}
		}
		return nil
	})
}

// SaveFinance stores financial records. Defaulted metrics are stored as NULL.
func (s *SQLiteStore) SaveFinance(ctx context.Context, symbol string, records []models.FinanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.exec(ctx, `
		INSERT OR REPLACE INTO finance (symbol, period, metric, value)
		VALUES (?, ?, ?, ?)
	`, func(stmt *sql.Stmt) error {
		for _, r := range records {
			for _, code := range financeCodes(r) {
				m := r.Get(code)
				var value any
				if !m.Defaulted {
					value = m.Value
				}
				if _, err := stmt.ExecContext(ctx, symbol, r.Period.Unix(), code, value); err != nil {
					return fmt.Errorf("failed to insert finance metric: %w", err)
				}
			}
		}
		return nil
	})
}

// SaveDividends stores corporate-action events.
func (s *SQLiteStore) SaveDividends(ctx context.Context, symbol string, events []models.DividendRecord) error {
	if len(events) == 0 {
		return nil
	}

	return s.exec(ctx, `
		INSERT OR REPLACE INTO dividend (symbol, ex_date, bs, ds, sd)
		VALUES (?, ?, ?, ?, ?)
	`, func(stmt *sql.Stmt) error {
		for _, e := range events {
			_, err := stmt.ExecContext(ctx, symbol, e.ExDate.Unix(), e.BonusPer10, e.AllotPer10, e.CashPer10)
			if err != nil {
				return fmt.Errorf("failed to insert dividend: %w", err)
			}
		}
		return nil
	})
}

// SaveFundFlow stores the reported tiers of each capital-flow record.
func (s *SQLiteStore) SaveFundFlow(ctx context.Context, symbol string, records []models.FundFlowRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.exec(ctx, `
		INSERT OR REPLACE INTO fundflow (symbol, date, tier, amount, ratio)
		VALUES (?, ?, ?, ?, ?)
	`, func(stmt *sql.Stmt) error {
		for _, r := range records {
			for _, tier := range models.FlowTiers {
				f := r.Tier(tier)
				if f == nil {
					continue
				}
				if _, err := stmt.ExecContext(ctx, symbol, r.Date.Unix(), string(tier), f.Amount, f.Ratio); err != nil {
					return fmt.Errorf("failed to insert fund flow: %w", err)
				}
			}
		}
		return nil
	})
}

// Symbols returns every symbol with stored bars.
func (s *SQLiteStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM kline ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// KlineFreshness returns the date of the newest stored bar of symbol, or the
// zero time when none is stored.
func (s *SQLiteStore) KlineFreshness(ctx context.Context, symbol string) (time.Time, error) {
	var date sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM kline WHERE symbol = ?
	`, symbol).Scan(&date)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to get kline freshness: %w", err)
	}
	if !date.Valid {
		return time.Time{}, nil
	}
	return models.UnixDate(date.Int64), nil
}

// GetLastSync returns the last sync time recorded under key.
func (s *SQLiteStore) GetLastSync(key string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[key]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastSync time.Time
	err := s.db.QueryRow(`
		SELECT last_sync FROM sync_status WHERE data_type = ?
	`, key).Scan(&lastSync)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[key] = lastSync
	s.mu.Unlock()

	return lastSync
}

// SetLastSync sets the last sync time recorded under key.
func (s *SQLiteStore) SetLastSync(key string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_status (data_type, last_sync, updated_at)
		VALUES (?, ?, ?)
	`, key, t, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	s.mu.Lock()
	s.syncTimes[key] = t
	s.mu.Unlock()

	return nil
}

// financeCodes lists the metric codes present in r, known codes first.
func financeCodes(r models.FinanceRecord) []string {
	codes := []string{
		models.MetricTotalMarketCap, models.MetricAShares, models.MetricBShares,
		models.MetricGOS, models.MetricFIS, models.MetricFCS, models.MetricNetProfit,
		models.MetricEPS, models.MetricNAVPS, models.MetricROE, models.MetricRevenue,
	}
	extra := make([]string, 0, len(r.Extra))
	for code := range r.Extra {
		extra = append(extra, code)
	}
	sort.Strings(extra)
	return append(codes, extra...)
}

// nullable maps NaN to NULL.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

var _ DataStore = (*SQLiteStore)(nil)
var _ datafeed.Provider = (*SQLiteStore)(nil)
