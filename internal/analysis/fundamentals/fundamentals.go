// Package fundamentals derives point-in-time valuation figures from quarterly
// financial records published on a cumulative year-to-date basis.
package fundamentals

import (
	"time"

	"cnstock/internal/models"
)

// EstFinRatio returns the share of a fiscal year covered by a cumulative
// report ending in month: 1 for annual, 0.75, 0.5 and 0.25 for the Q3, H1
// and Q1 reports, 0 otherwise.
func EstFinRatio(month time.Month) float64 {
	switch month {
	case time.December:
		return 1.0
	case time.September:
		return 0.75
	case time.June:
		return 0.5
	case time.March:
		return 0.25
	}
	return 0.0
}

// YearlyFinIndex returns the index of the last period ending in December, or
// -1 when no closed fiscal year is present. Months are evaluated in exchange
// time.
func YearlyFinIndex(dates []time.Time) int {
	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i].In(models.CST).Month() == time.December {
			return i
		}
	}
	return -1
}

// periods returns the report-period dates of records.
func periods(records []models.FinanceRecord) []time.Time {
	out := make([]time.Time, len(records))
	for i, r := range records {
		out[i] = r.Period
	}
	return out
}

// Valuation holds the headline ratios of a stock on its last bar. A nil field
// could not be derived from the available data.
type Valuation struct {
	MarketCap *float64  `json:"market_cap,omitempty"` // 亿元
	PB        *float64  `json:"pb,omitempty"`
	ROE       *float64  `json:"roe,omitempty"`
	StaticPE  *float64  `json:"static_pe,omitempty"`
	DynamicPE *float64  `json:"dynamic_pe,omitempty"`
	Period    time.Time `json:"period"`
}

// Valuate computes valuation ratios from the unadjusted price and the
// financial record in effect on the last bar.
//
// TCAP and NP are both in units of 10000 yuan, so P/E is their quotient.
// Static P/E uses the last annual net profit; dynamic P/E annualizes the
// latest cumulative figure by EstFinRatio.
func Valuate(price float64, fin *models.AlignedFinance) Valuation {
	var v Valuation
	if fin == nil || len(fin.Records) == 0 || len(fin.Index) == 0 {
		return v
	}

	last := fin.Index[len(fin.Index)-1]
	rec := fin.Records[last]
	v.Period = rec.Period

	tcap := rec.TCAP
	if !tcap.Defaulted && tcap.Value > 0 {
		v.MarketCap = ptr(tcap.Value / 10000)
	}
	if !rec.NAVPS.Defaulted && rec.NAVPS.Value > 0 && price > 0 {
		v.PB = ptr(price / rec.NAVPS.Value)
	}
	if !rec.ROE.Defaulted && rec.ROE.Value != 0 {
		v.ROE = ptr(rec.ROE.Value)
	}
	if v.MarketCap == nil {
		return v
	}

	if yi := YearlyFinIndex(periods(fin.Records[:last+1])); yi >= 0 {
		np := fin.Records[yi].NP
		if !np.Defaulted && np.Value != 0 {
			v.StaticPE = ptr(tcap.Value / np.Value)
		}
	}
	ratio := EstFinRatio(rec.Period.In(models.CST).Month())
	if ratio > 0 && !rec.NP.Defaulted && rec.NP.Value != 0 {
		v.DynamicPE = ptr(tcap.Value / (rec.NP.Value / ratio))
	}
	return v
}

// AnnualRow is one closed fiscal year. Revenue and net profit are in 亿元.
type AnnualRow struct {
	Year      int     `json:"year"`
	Revenue   float64 `json:"revenue"`
	NetProfit float64 `json:"net_profit"`
	EPS       float64 `json:"eps"`
	NAVPS     float64 `json:"navps"`
	ROE       float64 `json:"roe"`
}

// AnnualTable returns up to maxYears December reports, newest first.
func AnnualTable(records []models.FinanceRecord, maxYears int) []AnnualRow {
	var rows []AnnualRow
	for i := len(records) - 1; i >= 0 && len(rows) < maxYears; i-- {
		r := records[i]
		period := r.Period.In(models.CST)
		if period.Month() != time.December {
			continue
		}
		rows = append(rows, AnnualRow{
			Year:      period.Year(),
			Revenue:   r.MR.Value / 10000,
			NetProfit: r.NP.Value / 10000,
			EPS:       r.EPS.Value,
			NAVPS:     r.NAVPS.Value,
			ROE:       r.ROE.Value,
		})
	}
	return rows
}

func ptr(v float64) *float64 {
	return &v
}
