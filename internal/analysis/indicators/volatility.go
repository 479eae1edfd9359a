package indicators

import (
	"fmt"

	talib "github.com/markcheno/go-talib"

	"cnstock/internal/models"
)

// BollingerBands is the BOLL indicator: a simple moving average of the close
// with bands k population standard deviations away.
type BollingerBands struct {
	period int
	k      float64
}

// NewBollingerBands creates a BOLL(period, k) indicator.
func NewBollingerBands(period int, k float64) *BollingerBands {
	return &BollingerBands{period: period, k: k}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BOLL_%d_%g", b.period, b.k)
}

func (b *BollingerBands) Period() int {
	return b.period
}

// Calculate returns "upper", "middle" and "lower" from TA-Lib's BBANDS with a
// simple moving average. Entries before the first full window are zero.
func (b *BollingerBands) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if b.period <= 0 || b.k <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < b.period {
		return nil, ErrInsufficientData
	}

	upper, middle, lower := talib.BBands(closePrices(candles), b.period, b.k, b.k, talib.SMA)
	start := b.period - 1

	return map[string][]float64{
		"upper":  warmedUp(upper, start),
		"middle": warmedUp(middle, start),
		"lower":  warmedUp(lower, start),
	}, nil
}
