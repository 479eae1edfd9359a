package models

import (
	"fmt"
	"time"
)

// AlignedFinance is a financial stream attached to a trading calendar for
// point-in-time lookup. Index[i] is the record known as of Dates[i].
type AlignedFinance struct {
	Records  []FinanceRecord `json:"records"`
	Index    []int           `json:"index"`
	Preceded []bool          `json:"preceded"`
}

// At returns the record in effect on bar i.
func (a *AlignedFinance) At(i int) *FinanceRecord {
	return &a.Records[a.Index[i]]
}

// AlignedFundFlow is a capital-flow stream attached to a trading calendar.
type AlignedFundFlow struct {
	Records  []FundFlowRecord `json:"records"`
	Index    []int            `json:"index"`
	Preceded []bool           `json:"preceded"`
}

// At returns the record in effect on bar i.
func (a *AlignedFundFlow) At(i int) *FundFlowRecord {
	return &a.Records[a.Index[i]]
}

// SecurityTimeSeries is the fused, calendar-aligned series of one security.
//
// Close holds the backward-adjusted close and Open/High/Low are rescaled by the
// same ratio. Close2 keeps the real unadjusted quote. Optional streams are nil
// when the provider returned nothing for them.
type SecurityTimeSeries struct {
	Symbol     string           `json:"symbol"`
	Dates      []time.Time      `json:"dates"`
	Open       []float64        `json:"open"`
	High       []float64        `json:"high"`
	Low        []float64        `json:"low"`
	Close      []float64        `json:"close"`
	Volume     []float64        `json:"volume"`
	Amount     []float64        `json:"amount"`
	Close2     []float64        `json:"close2"`
	GivenCash  []float64        `json:"given_cash"`
	GivenShare []float64        `json:"given_share"`
	Dividends  []DividendRecord `json:"dividends,omitempty"`
	Finance    *AlignedFinance  `json:"finance,omitempty"`
	FundFlow   *AlignedFundFlow `json:"fund_flow,omitempty"`
	Sectors    []string         `json:"sectors"`
}

// Len returns the number of trading dates.
func (s *SecurityTimeSeries) Len() int {
	return len(s.Dates)
}

// Price returns the unadjusted quote price series.
func (s *SecurityTimeSeries) Price() []float64 {
	return s.Close2
}

// LastDate returns the most recent trading date.
func (s *SecurityTimeSeries) LastDate() time.Time {
	return s.Dates[len(s.Dates)-1]
}

// HasDividends reports whether a dividend stream was available.
func (s *SecurityTimeSeries) HasDividends() bool {
	return s.Dividends != nil
}

// Candles returns the adjusted bars as candles.
func (s *SecurityTimeSeries) Candles() []Candle {
	bars := KlineBars{
		Dates: s.Dates, Open: s.Open, High: s.High, Low: s.Low,
		Close: s.Close, Volume: s.Volume, Amount: s.Amount,
	}
	return bars.Candles()
}

// Validate checks the equal-length and ascending-date invariants.
func (s *SecurityTimeSeries) Validate() error {
	n := len(s.Dates)
	fields := map[string][]float64{
		"OPEN": s.Open, "HIGH": s.High, "LOW": s.Low, "CLOSE": s.Close,
		"VOLUME": s.Volume, "AMOUNT": s.Amount, "CLOSE2": s.Close2,
		"GIVEN_CASH": s.GivenCash, "GIVEN_SHARE": s.GivenShare,
	}
	for name, values := range fields {
		if len(values) != n {
			return fmt.Errorf("%s: field %s has %d values, want %d", s.Symbol, name, len(values), n)
		}
	}
	if s.Finance != nil && len(s.Finance.Index) != n {
		return fmt.Errorf("%s: finance index has %d entries, want %d", s.Symbol, len(s.Finance.Index), n)
	}
	if s.FundFlow != nil && len(s.FundFlow.Index) != n {
		return fmt.Errorf("%s: fund flow index has %d entries, want %d", s.Symbol, len(s.FundFlow.Index), n)
	}
	for i := 1; i < n; i++ {
		if !s.Dates[i].After(s.Dates[i-1]) {
			return fmt.Errorf("%s: dates not strictly ascending at index %d", s.Symbol, i)
		}
	}
	return nil
}
