package indicators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnstock/internal/models"
)

func rampCandles(n int) []models.Candle {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, models.CST)
	candles := make([]models.Candle, n)
	for i := range candles {
		c := 10 + float64(i%7) - float64(i%3)*0.5
		candles[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1e6,
			Amount:    1e7,
		}
	}
	return candles
}

func TestKDJ_FlatWindowUsesNeutralRSV(t *testing.T) {
	candles := make([]models.Candle, 12)
	for i := range candles {
		candles[i] = models.Candle{Open: 5, High: 5, Low: 5, Close: 5}
	}

	values, err := NewKDJ(9, 3, 3).Calculate(candles)
	require.NoError(t, err)
	for i := 8; i < 12; i++ {
		assert.Equal(t, 50.0, values["rsv"][i])
		assert.Equal(t, 50.0, values["k"][i])
		assert.Equal(t, 50.0, values["d"][i])
	}
	assert.Equal(t, 0.0, values["k"][7])
}

func TestKDJ_Recursion(t *testing.T) {
	candles := make([]models.Candle, 10)
	for i := range candles {
		candles[i] = models.Candle{High: 20, Low: 10, Close: 15}
	}
	candles[9].Close = 20

	values, err := NewKDJ(9, 3, 3).Calculate(candles)
	require.NoError(t, err)

	// RSV[9] = 100, K[9] = 2/3*50 + 100/3, D[9] = 2/3*50 + K[9]/3.
	k := 2.0/3.0*50 + 100.0/3.0
	d := 2.0/3.0*50 + k/3.0
	assert.InDelta(t, k, values["k"][9], 1e-9)
	assert.InDelta(t, d, values["d"][9], 1e-9)
	assert.InDelta(t, 3*k-2*d, values["j"][9], 1e-9)
}

func TestKDJ_Errors(t *testing.T) {
	_, err := NewKDJ(0, 3, 3).Calculate(rampCandles(20))
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = NewKDJ(9, 3, 3).Calculate(rampCandles(5))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCalculateEMA_SeededByMean(t *testing.T) {
	ema := CalculateEMA([]float64{1, 2, 3, 4}, 3)
	require.Len(t, ema, 4)
	assert.Equal(t, 0.0, ema[1])
	assert.Equal(t, 2.0, ema[2])
	assert.Equal(t, 3.0, ema[3])
}

func TestSuite_ComputeAndReport(t *testing.T) {
	suite := NewSuite(DefaultParams(), 2)
	candles := rampCandles(60)

	set, err := suite.Compute(context.Background(), candles)
	require.NoError(t, err)
	require.Len(t, set.K, 60)
	require.Len(t, set.RSI, 3)
	assert.Equal(t, []int{6, 12, 24}, set.RSIPeriods)

	rows := set.Report(30)
	require.Len(t, rows, 30)
	assert.Equal(t, candles[59].Timestamp, rows[0].Date)
	assert.Equal(t, candles[30].Timestamp, rows[29].Date)
	assert.Equal(t, set.K[59], rows[0].K)
	assert.Equal(t, set.RSI[2][59], rows[0].RSI[2])
	assert.LessOrEqual(t, rows[0].BollLower, rows[0].BollMiddle)
	assert.LessOrEqual(t, rows[0].BollMiddle, rows[0].BollUpper)
}

func TestSuite_ShortHistory(t *testing.T) {
	suite := NewSuite(DefaultParams(), 2)

	set, err := suite.Compute(context.Background(), rampCandles(20))
	require.NoError(t, err)

	// MACD needs 34 bars and is reported as zeros.
	assert.Equal(t, make([]float64, 20), set.DIF)
	assert.NotEqual(t, 0.0, set.K[19])
	assert.Nil(t, set.Report(30))
}

func TestSuite_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSuite(DefaultParams(), 1).Compute(ctx, rampCandles(40))
	assert.ErrorIs(t, err, context.Canceled)
}

func closesOf(closes ...float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{Close: c, High: c, Low: c}
	}
	return candles
}

func TestRSI_WarmUpAndExtremes(t *testing.T) {
	rising, err := NewRSI(3).Calculate(closesOf(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, rising[:3])
	for _, v := range rising[3:] {
		assert.InDelta(t, 100, v, 1e-9)
	}

	flat, err := NewRSI(3).Calculate(closesOf(5, 5, 5, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, flat)

	_, err = NewRSI(6).Calculate(closesOf(1, 2, 3))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBollingerBands_ConstantSeries(t *testing.T) {
	bands, err := NewBollingerBands(5, 2).Calculate(closesOf(8, 8, 8, 8, 8, 8, 8))
	require.NoError(t, err)

	for _, key := range []string{"upper", "middle", "lower"} {
		values := bands[key]
		require.Len(t, values, 7, key)
		assert.Equal(t, []float64{0, 0, 0, 0}, values[:4], key)
		for _, v := range values[4:] {
			assert.InDelta(t, 8, v, 1e-9, key)
		}
	}
}

func TestBollingerBands_Width(t *testing.T) {
	bands, err := NewBollingerBands(2, 2).Calculate(closesOf(10, 12))
	require.NoError(t, err)

	assert.InDelta(t, 11, bands["middle"][1], 1e-9)
	assert.InDelta(t, 13, bands["upper"][1], 1e-9)
	assert.InDelta(t, 9, bands["lower"][1], 1e-9)
}
