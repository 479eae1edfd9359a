package models

import (
	"fmt"
	"time"
)

// KlineBars holds the daily bars of one security as parallel arrays.
type KlineBars struct {
	Dates  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	Amount []float64
}

// Len returns the number of bars.
func (k *KlineBars) Len() int {
	if k == nil {
		return 0
	}
	return len(k.Dates)
}

// Validate checks that every field has len(Dates) entries and that Dates is
// strictly ascending.
func (k *KlineBars) Validate() error {
	n := len(k.Dates)
	fields := map[string][]float64{
		FieldOpen: k.Open, FieldHigh: k.High, FieldLow: k.Low,
		FieldClose: k.Close, FieldVolume: k.Volume, FieldAmount: k.Amount,
	}
	for name, values := range fields {
		if len(values) != n {
			return fmt.Errorf("field %s has %d values, want %d", name, len(values), n)
		}
	}
	for i := 1; i < n; i++ {
		if !k.Dates[i].After(k.Dates[i-1]) {
			return fmt.Errorf("dates not strictly ascending at index %d", i)
		}
	}
	return nil
}

// Candles converts the bars to candles for indicator calculation.
func (k *KlineBars) Candles() []Candle {
	candles := make([]Candle, k.Len())
	for i := range candles {
		candles[i] = Candle{
			Timestamp: k.Dates[i],
			Open:      k.Open[i],
			High:      k.High[i],
			Low:       k.Low[i],
			Close:     k.Close[i],
			Volume:    k.Volume[i],
			Amount:    k.Amount[i],
		}
	}
	return candles
}

// Finance metric codes. TCAP, AS, BS, GOS, FIS and FCS arrive scaled by
// 10000 relative to their natural currency unit.
const (
	MetricTotalMarketCap = "TCAP"
	MetricAShares        = "AS"
	MetricBShares        = "BS"
	MetricGOS            = "GOS"
	MetricFIS            = "FIS"
	MetricFCS            = "FCS"
	MetricNetProfit      = "NP"
	MetricEPS            = "EPS"
	MetricNAVPS          = "NAVPS"
	MetricROE            = "ROE"
	MetricRevenue        = "MR"
)

// TenThousandScaled lists the metrics stored in units of 10000.
var TenThousandScaled = []string{
	MetricTotalMarketCap, MetricAShares, MetricBShares, MetricGOS, MetricFIS, MetricFCS,
}

// FinanceRecord is one reported financial period. Values are cumulative
// year-to-date where the metric is a flow (revenue, net profit).
type FinanceRecord struct {
	Period time.Time         `json:"period"`
	TCAP   Metric            `json:"tcap"`
	AS     Metric            `json:"as"`
	BS     Metric            `json:"bs"`
	GOS    Metric            `json:"gos"`
	FIS    Metric            `json:"fis"`
	FCS    Metric            `json:"fcs"`
	NP     Metric            `json:"np"`
	EPS    Metric            `json:"eps"`
	NAVPS  Metric            `json:"navps"`
	ROE    Metric            `json:"roe"`
	MR     Metric            `json:"mr"`
	Extra  map[string]Metric `json:"extra,omitempty"`
}

// Set stores a metric by its code.
func (r *FinanceRecord) Set(code string, m Metric) {
	if p := r.field(code); p != nil {
		*p = m
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]Metric)
	}
	r.Extra[code] = m
}

// Get returns a metric by its code. Unknown codes report a defaulted zero.
func (r *FinanceRecord) Get(code string) Metric {
	if p := r.field(code); p != nil {
		return *p
	}
	if m, ok := r.Extra[code]; ok {
		return m
	}
	return Metric{Defaulted: true}
}

func (r *FinanceRecord) field(code string) *Metric {
	switch code {
	case MetricTotalMarketCap:
		return &r.TCAP
	case MetricAShares:
		return &r.AS
	case MetricBShares:
		return &r.BS
	case MetricGOS:
		return &r.GOS
	case MetricFIS:
		return &r.FIS
	case MetricFCS:
		return &r.FCS
	case MetricNetProfit:
		return &r.NP
	case MetricEPS:
		return &r.EPS
	case MetricNAVPS:
		return &r.NAVPS
	case MetricROE:
		return &r.ROE
	case MetricRevenue:
		return &r.MR
	}
	return nil
}

// DividendRecord is one corporate-action event keyed by ex-date.
type DividendRecord struct {
	ExDate     time.Time `json:"ex_date"`
	CashPer10  float64   `json:"sd"`
	BonusPer10 float64   `json:"bs"`
	AllotPer10 float64   `json:"ds"`
}

// Cash returns the cash dividend per share.
func (d DividendRecord) Cash() float64 {
	return d.CashPer10 / 10
}

// ShareRatio returns the new shares granted per share held.
func (d DividendRecord) ShareRatio() float64 {
	return (d.BonusPer10 + d.AllotPer10) / 10
}

// FlowTier is a capital-flow order-size tier.
type FlowTier string

const (
	TierMain       FlowTier = "A"
	TierExtraLarge FlowTier = "XL"
	TierLarge      FlowTier = "L"
	TierMedium     FlowTier = "M"
	TierSmall      FlowTier = "S"
)

// FlowTiers lists the tiers in display order.
var FlowTiers = []FlowTier{TierMain, TierExtraLarge, TierLarge, TierMedium, TierSmall}

// AmountField returns the FUNDFLOW field name of the tier's net amount.
func (t FlowTier) AmountField() string { return string(t) + "_A" }

// RatioField returns the FUNDFLOW field name of the tier's net ratio.
func (t FlowTier) RatioField() string { return string(t) + "_R" }

// FlowAmount is a net amount with its share of total turnover.
type FlowAmount struct {
	Amount float64 `json:"amount"`
	Ratio  float64 `json:"ratio"`
}

// FundFlowRecord is one day of capital flow. A nil tier was not reported.
type FundFlowRecord struct {
	Date       time.Time   `json:"date"`
	Main       *FlowAmount `json:"main,omitempty"`
	ExtraLarge *FlowAmount `json:"extra_large,omitempty"`
	Large      *FlowAmount `json:"large,omitempty"`
	Medium     *FlowAmount `json:"medium,omitempty"`
	Small      *FlowAmount `json:"small,omitempty"`
}

// Tier returns the flow of tier t, or nil when absent.
func (r *FundFlowRecord) Tier(t FlowTier) *FlowAmount {
	switch t {
	case TierMain:
		return r.Main
	case TierExtraLarge:
		return r.ExtraLarge
	case TierLarge:
		return r.Large
	case TierMedium:
		return r.Medium
	case TierSmall:
		return r.Small
	}
	return nil
}

// SetTier stores the flow of tier t.
func (r *FundFlowRecord) SetTier(t FlowTier, f *FlowAmount) {
	switch t {
	case TierMain:
		r.Main = f
	case TierExtraLarge:
		r.ExtraLarge = f
	case TierLarge:
		r.Large = f
	case TierMedium:
		r.Medium = f
	case TierSmall:
		r.Small = f
	}
}
