package indicators

import (
	"context"
	"time"

	"cnstock/internal/models"
)

// Params configures the indicator suite.
type Params struct {
	KDJN         int     `mapstructure:"kdj_n"`
	KDJK         int     `mapstructure:"kdj_k"`
	KDJD         int     `mapstructure:"kdj_d"`
	MACDFast     int     `mapstructure:"macd_fast"`
	MACDSlow     int     `mapstructure:"macd_slow"`
	MACDSignal   int     `mapstructure:"macd_signal"`
	RSIPeriods   []int   `mapstructure:"rsi_periods"`
	BollPeriod   int     `mapstructure:"boll_period"`
	BollStdDev   float64 `mapstructure:"boll_stddev"`
	ReportWindow int     `mapstructure:"report_window"`
}

// DefaultParams returns KDJ(9,3,3), MACD(12,26,9), RSI(6,12,24), BOLL(5,2)
// and a 30-row report window.
func DefaultParams() Params {
	return Params{
		KDJN:         9,
		KDJK:         3,
		KDJD:         3,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		RSIPeriods:   []int{6, 12, 24},
		BollPeriod:   5,
		BollStdDev:   2,
		ReportWindow: 30,
	}
}

// Suite computes the report indicators for one bar series at a time.
type Suite struct {
	params Params
	engine *Engine
	kdj    *KDJ
	macd   *MACD
	rsi    []*RSI
	boll   *BollingerBands
}

// NewSuite registers the configured indicators on a new engine.
func NewSuite(p Params, workers int) *Suite {
	s := &Suite{
		params: p,
		engine: NewEngine(workers),
		kdj:    NewKDJ(p.KDJN, p.KDJK, p.KDJD),
		macd:   NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal),
		boll:   NewBollingerBands(p.BollPeriod, p.BollStdDev),
	}
	s.engine.RegisterMultiIndicator(s.kdj)
	s.engine.RegisterMultiIndicator(s.macd)
	s.engine.RegisterMultiIndicator(s.boll)
	for _, period := range p.RSIPeriods {
		rsi := NewRSI(period)
		s.rsi = append(s.rsi, rsi)
		s.engine.RegisterIndicator(rsi)
	}
	return s
}

// Params returns the suite configuration.
func (s *Suite) Params() Params {
	return s.params
}

// Set holds the full series of every suite indicator, index-aligned with the
// input candles. An indicator without enough data is all zero.
type Set struct {
	Dates      []time.Time `json:"dates"`
	K          []float64   `json:"k"`
	D          []float64   `json:"d"`
	J          []float64   `json:"j"`
	DIF        []float64   `json:"dif"`
	DEA        []float64   `json:"dea"`
	Histogram  []float64   `json:"histogram"`
	RSIPeriods []int       `json:"rsi_periods"`
	RSI        [][]float64 `json:"rsi"`
	BollUpper  []float64   `json:"boll_upper"`
	BollMiddle []float64   `json:"boll_middle"`
	BollLower  []float64   `json:"boll_lower"`
}

// Compute runs every suite indicator over candles.
func (s *Suite) Compute(ctx context.Context, candles []models.Candle) (*Set, error) {
	res, err := s.engine.CalculateAll(ctx, candles)
	if err != nil {
		return nil, err
	}
	single, multi := res.Single, res.Multi

	n := len(candles)
	pick := func(values []float64) []float64 {
		if values == nil {
			return make([]float64, n)
		}
		return values
	}

	kdj := multi[s.kdj.Name()]
	macd := multi[s.macd.Name()]
	boll := multi[s.boll.Name()]

	set := &Set{
		Dates:      make([]time.Time, n),
		K:          pick(kdj["k"]),
		D:          pick(kdj["d"]),
		J:          pick(kdj["j"]),
		DIF:        pick(macd["macd"]),
		DEA:        pick(macd["signal"]),
		Histogram:  pick(macd["histogram"]),
		RSIPeriods: append([]int(nil), s.params.RSIPeriods...),
		RSI:        make([][]float64, len(s.rsi)),
		BollUpper:  pick(boll["upper"]),
		BollMiddle: pick(boll["middle"]),
		BollLower:  pick(boll["lower"]),
	}
	for i, c := range candles {
		set.Dates[i] = c.Timestamp
	}
	for i, rsi := range s.rsi {
		set.RSI[i] = pick(single[rsi.Name()])
	}
	return set, nil
}

// Row is one line of the indicator report.
type Row struct {
	Date       time.Time `json:"date"`
	K          float64   `json:"k"`
	D          float64   `json:"d"`
	J          float64   `json:"j"`
	DIF        float64   `json:"dif"`
	DEA        float64   `json:"dea"`
	RSI        []float64 `json:"rsi"`
	BollUpper  float64   `json:"boll_upper"`
	BollMiddle float64   `json:"boll_middle"`
	BollLower  float64   `json:"boll_lower"`
}

// Report returns the last window rows, newest first. It returns nil when the
// set holds fewer than window bars.
func (s *Set) Report(window int) []Row {
	n := len(s.Dates)
	if window <= 0 || n < window {
		return nil
	}

	rows := make([]Row, 0, window)
	for i := n - 1; i >= n-window; i-- {
		row := Row{
			Date:       s.Dates[i],
			K:          s.K[i],
			D:          s.D[i],
			J:          s.J[i],
			DIF:        s.DIF[i],
			DEA:        s.DEA[i],
			RSI:        make([]float64, len(s.RSI)),
			BollUpper:  s.BollUpper[i],
			BollMiddle: s.BollMiddle[i],
			BollLower:  s.BollLower[i],
		}
		for j, values := range s.RSI {
			row.RSI[j] = values[i]
		}
		rows = append(rows, row)
	}
	return rows
}
