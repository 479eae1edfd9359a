package indicators

import (
	"math"
	"slices"

	"cnstock/internal/errors"
	"cnstock/internal/models"
)

var (
	// ErrInsufficientData is returned when the series is shorter than the warm-up window.
	ErrInsufficientData = errors.ErrInsufficientData
	ErrInvalidPeriod    = errors.ErrInvalidPeriod
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// warmedUp zeroes values before index first, along with any NaN or Inf the
// library leaves in its warm-up region.
func warmedUp(values []float64, first int) []float64 {
	for i, v := range values {
		if i < first || math.IsNaN(v) || math.IsInf(v, 0) {
			values[i] = 0
		}
	}
	return values
}

// column extracts one price field from candles.
func column(candles []models.Candle, field func(models.Candle) float64) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = field(c)
	}
	return out
}

func closePrices(candles []models.Candle) []float64 {
	return column(candles, func(c models.Candle) float64 { return c.Close })
}

// window returns the period values ending at index i.
func window(values []float64, i, period int) []float64 {
	return values[i-period+1 : i+1]
}

func highest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return slices.Max(values)
}

func lowest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return slices.Min(values)
}
