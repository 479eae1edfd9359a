package indicators

import (
	"fmt"

	talib "github.com/markcheno/go-talib"

	"cnstock/internal/models"
)

// RSI is the Relative Strength Index over the close.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

func (r *RSI) Period() int {
	return r.period
}

// Calculate returns TA-Lib's Wilder RSI of the close. The first value is at
// index period; a window without any price change reads 0, as in TA-Lib.
func (r *RSI) Calculate(candles []models.Candle) ([]float64, error) {
	if r.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < r.period+1 {
		return nil, ErrInsufficientData
	}
	return warmedUp(talib.Rsi(closePrices(candles), r.period), r.period), nil
}

// KDJ calculates the stochastic oscillator in its %K/%D/%J form.
//
// RSV is the close position inside the n-bar high/low range, 50 when the range
// is empty. %K and %D are both seeded at 50 on bar n-1 and smoothed with
// weights (k-1)/k and (d-1)/d. %J = 3K - 2D. Bars before n-1 are zero.
type KDJ struct {
	n int
	k int
	d int
}

// NewKDJ creates a new KDJ indicator; the usual parameters are 9, 3, 3.
func NewKDJ(n, k, d int) *KDJ {
	return &KDJ{n: n, k: k, d: d}
}

func (s *KDJ) Name() string {
	return fmt.Sprintf("KDJ_%d_%d_%d", s.n, s.k, s.d)
}

func (s *KDJ) Period() int {
	return s.n
}

// Calculate returns "k", "d", "j" and "rsv".
func (s *KDJ) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if s.n <= 0 || s.k <= 0 || s.d <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.n {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	closes := closePrices(candles)
	highs := column(candles, func(c models.Candle) float64 { return c.High })
	lows := column(candles, func(c models.Candle) float64 { return c.Low })

	rsv := make([]float64, n)
	kLine := make([]float64, n)
	dLine := make([]float64, n)
	jLine := make([]float64, n)

	for i := s.n - 1; i < n; i++ {
		hh := highest(window(highs, i, s.n))
		ll := lowest(window(lows, i, s.n))
		if hh == ll {
			rsv[i] = 50
		} else {
			rsv[i] = 100 * (closes[i] - ll) / (hh - ll)
		}
	}

	kw := float64(s.k)
	dw := float64(s.d)
	kLine[s.n-1] = 50
	dLine[s.n-1] = 50
	for i := s.n; i < n; i++ {
		kLine[i] = (kw-1)/kw*kLine[i-1] + rsv[i]/kw
		dLine[i] = (dw-1)/dw*dLine[i-1] + kLine[i]/dw
	}
	for i := s.n - 1; i < n; i++ {
		jLine[i] = 3*kLine[i] - 2*dLine[i]
	}

	return map[string][]float64{
		"k":   kLine,
		"d":   dLine,
		"j":   jLine,
		"rsv": rsv,
	}, nil
}
