// Package analysis assembles the derived views of a fused security series:
// trading statistics, capital flow, technical indicators and valuation.
package analysis

import (
	"context"
	"time"

	"cnstock/internal/analysis/flow"
	"cnstock/internal/analysis/fundamentals"
	"cnstock/internal/analysis/indicators"
	"cnstock/internal/analysis/stats"
	"cnstock/internal/models"
)

// AnnualYears is the number of closed fiscal years in a report.
const AnnualYears = 5

// Report is the analysis of one security on its last bar.
type Report struct {
	Symbol     string                   `json:"symbol"`
	Date       time.Time                `json:"date"`
	IsStock    bool                     `json:"is_stock"`
	Sectors    []string                 `json:"sectors"`
	Price      float64                  `json:"price"`
	Summary    *stats.Summary           `json:"summary"`
	Flows      []flow.TierFlow          `json:"flows,omitempty"`
	Indicators []indicators.Row         `json:"indicators,omitempty"`
	Valuation  *fundamentals.Valuation  `json:"valuation,omitempty"`
	Annual     []fundamentals.AnnualRow `json:"annual,omitempty"`
}

// Analyzer derives reports from fused series.
type Analyzer struct {
	suite   *indicators.Suite
	window  int
	periods []int
	now     func() time.Time
}

// NewAnalyzer creates an analyzer using the given indicator parameters.
func NewAnalyzer(params indicators.Params, workers int) *Analyzer {
	return &Analyzer{
		suite:   indicators.NewSuite(params, workers),
		window:  params.ReportWindow,
		periods: stats.DefaultPeriods,
		now:     time.Now,
	}
}

// Indicators computes the full indicator set of s.
func (a *Analyzer) Indicators(ctx context.Context, s *models.SecurityTimeSeries) (*indicators.Set, error) {
	return a.suite.Compute(ctx, s.Candles())
}

// Analyze builds the report of s. Valuation and the annual table are only
// produced for stocks with a financial stream.
func (a *Analyzer) Analyze(ctx context.Context, s *models.SecurityTimeSeries) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	set, err := a.Indicators(ctx, s)
	if err != nil {
		return nil, err
	}

	n := s.Len()
	r := &Report{
		Symbol:     s.Symbol,
		IsStock:    models.IsStock(s.Symbol),
		Sectors:    s.Sectors,
		Indicators: set.Report(a.window),
		Flows:      flow.Latest(s.FundFlow),
	}
	if n > 0 {
		r.Date = s.LastDate()
		r.Price = s.Price()[n-1]
	}

	var tcap float64
	if s.Finance != nil && n > 0 {
		if m := s.Finance.At(n - 1).TCAP; !m.Defaulted {
			tcap = m.Value
		}
	}
	r.Summary = stats.Summarize(s, a.periods, tcap, a.now())

	if r.IsStock && s.Finance != nil {
		v := fundamentals.Valuate(r.Price, s.Finance)
		r.Valuation = &v
		r.Annual = fundamentals.AnnualTable(s.Finance.Records, AnnualYears)
	}
	return r, nil
}
