package indicators

import (
	"fmt"

	"cnstock/internal/models"
)

// CalculateEMA calculates EMA on raw values with smoothing factor
// 2/(period+1). The first value, at index period-1, is the mean of the warm-up
// window; earlier entries are zero.
func CalculateEMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	result := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)

	result[period-1] = mean(values[:period])

	for i := period; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}

	return result
}

// MACD is the DIF/DEA pair of exponential moving averages of the close.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator; the usual periods are 12, 26 and 9.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// Period returns the warm-up length after which the histogram is defined.
func (m *MACD) Period() int {
	return m.slowPeriod + m.signalPeriod - 1
}

// Calculate returns "macd" (DIF), "signal" (DEA) and "histogram".
func (m *MACD) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 || m.fastPeriod > m.slowPeriod {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < m.Period() {
		return nil, ErrInsufficientData
	}

	closes := closePrices(candles)
	fastEMA := CalculateEMA(closes, m.fastPeriod)
	slowEMA := CalculateEMA(closes, m.slowPeriod)

	macdLine := make([]float64, len(candles))
	for i := m.slowPeriod - 1; i < len(candles); i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	// DEA is the EMA of DIF, seeded once DIF is defined.
	signalLine := make([]float64, len(candles))
	startIdx := m.slowPeriod - 1
	signalEMA := CalculateEMA(macdLine[startIdx:], m.signalPeriod)
	for i := m.signalPeriod - 1; i < len(signalEMA); i++ {
		signalLine[startIdx+i] = signalEMA[i]
	}

	histogram := make([]float64, len(candles))
	for i := m.Period() - 1; i < len(candles); i++ {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return map[string][]float64{
		"macd":      macdLine,
		"signal":    signalLine,
		"histogram": histogram,
	}, nil
}
