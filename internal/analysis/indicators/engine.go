// Package indicators provides technical indicator calculations with parallel processing.
package indicators

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"cnstock/internal/models"
)

// Indicator defines the interface for single-value technical indicators.
type Indicator interface {
	Name() string
	Calculate(candles []models.Candle) ([]float64, error)
	Period() int
}

// MultiValueIndicator defines the interface for indicators that return multiple values.
type MultiValueIndicator interface {
	Name() string
	Calculate(candles []models.Candle) (map[string][]float64, error)
	Period() int
}

// Results holds the output of one engine run, keyed by indicator name.
// Indicators that failed, usually for lack of data, are absent.
type Results struct {
	Single map[string][]float64
	Multi  map[string]map[string][]float64
	Failed map[string]error
}

// Engine runs registered indicators over a candle series in parallel.
type Engine struct {
	workers     int
	indicators  map[string]Indicator
	multiIndics map[string]MultiValueIndicator
	mu          sync.RWMutex
}

// NewEngine creates a new indicator engine with the specified number of workers.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		workers:     workers,
		indicators:  make(map[string]Indicator),
		multiIndics: make(map[string]MultiValueIndicator),
	}
}

// RegisterIndicator registers a single-value indicator. A second indicator
// with the same name replaces the first.
func (e *Engine) RegisterIndicator(ind Indicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indicators[ind.Name()] = ind
}

// RegisterMultiIndicator registers a multi-value indicator.
func (e *Engine) RegisterMultiIndicator(ind MultiValueIndicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.multiIndics[ind.Name()] = ind
}

// CalculateAll runs every registered indicator over candles. Individual
// indicator errors are collected in Results.Failed; only cancellation of ctx
// fails the run.
func (e *Engine) CalculateAll(ctx context.Context, candles []models.Candle) (*Results, error) {
	e.mu.RLock()
	singles := make([]Indicator, 0, len(e.indicators))
	for _, ind := range e.indicators {
		singles = append(singles, ind)
	}
	multis := make([]MultiValueIndicator, 0, len(e.multiIndics))
	for _, ind := range e.multiIndics {
		multis = append(multis, ind)
	}
	e.mu.RUnlock()

	res := &Results{
		Single: make(map[string][]float64, len(singles)),
		Multi:  make(map[string]map[string][]float64, len(multis)),
		Failed: make(map[string]error),
	}
	var mu sync.Mutex
	record := func(name string, err error, store func()) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.Failed[name] = err
			return
		}
		store()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, ind := range singles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			values, err := ind.Calculate(candles)
			record(ind.Name(), err, func() { res.Single[ind.Name()] = values })
			return nil
		})
	}
	for _, ind := range multis {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			values, err := ind.Calculate(candles)
			record(ind.Name(), err, func() { res.Multi[ind.Name()] = values })
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// Names returns the names of every registered indicator, sorted.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.indicators)+len(e.multiIndics))
	for name := range e.indicators {
		names = append(names, name)
	}
	for name := range e.multiIndics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
