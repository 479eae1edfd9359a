package adjust

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnstock/internal/errors"
	"cnstock/internal/models"
)

// closeGen generates positive close series.
func closeGen(n int) gopter.Gen {
	return gen.SliceOfN(n, gen.Float64Range(1.0, 500.0))
}

// eventsGen generates sparse cash/share events for a series of length n.
func eventsGen(n int) gopter.Gen {
	return gen.SliceOfN(n, gen.Float64Range(0, 1)).Map(func(u []float64) [2][]float64 {
		cash := make([]float64, len(u))
		shares := make([]float64, len(u))
		for i, v := range u {
			switch {
			case v > 0.9:
				cash[i] = v - 0.9 // up to 0.1 per share
			case v > 0.85:
				shares[i] = (v - 0.85) * 10 // up to 0.5 new shares
			}
		}
		return [2][]float64{cash, shares}
	})
}

func TestBackwardClose_SingleDividend(t *testing.T) {
	adj, err := BackwardClose([]float64{10, 10, 10}, []float64{0, 1, 0}, []float64{0, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 9.0, adj[0], 1e-12)
	assert.Equal(t, 10.0, adj[1])
	assert.Equal(t, 10.0, adj[2])
}

func TestBackwardClose_Split(t *testing.T) {
	// 10-for-10 bonus: price halves on the ex-date.
	adj, err := BackwardClose([]float64{20, 20, 10, 10}, []float64{0, 0, 0, 0}, []float64{0, 0, 1, 0})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{10, 10, 10, 10}, adj, 1e-12)
}

func TestBackwardClose_IgnoresImpossibleEvent(t *testing.T) {
	adj, err := BackwardClose([]float64{1, 1}, []float64{0, 2}, []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, adj)
}

func TestBackwardClose_NaNEventsAreZero(t *testing.T) {
	adj, err := BackwardClose([]float64{5, 6}, []float64{0, math.NaN()}, []float64{math.NaN(), 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, adj)
}

func TestBackwardClose_LengthMismatch(t *testing.T) {
	_, err := BackwardClose([]float64{1, 2}, []float64{0}, []float64{0, 0})
	assert.True(t, errors.Is(err, errors.ErrLengthMismatch))
}

func TestApply(t *testing.T) {
	bars := &models.KlineBars{
		Open:  []float64{9.5, 10.2, 9.1},
		High:  []float64{10.5, 10.4, 9.3},
		Low:   []float64{9.4, 9.9, 8.9},
		Close: []float64{10.0, 10.0, 9.0},
	}

	raw, err := Apply(bars, []float64{0, 0, 1}, []float64{0, 0, 0})
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 10, 9}, raw)
	assert.Equal(t, 9.0, bars.Close[2])
	assert.InDelta(t, 9.0, bars.Close[0], 1e-12)
	assert.InDelta(t, 9.0, bars.Close[1], 1e-12)
	assert.InDelta(t, 9.5*0.9, bars.Open[0], 1e-12)
	assert.InDelta(t, 10.4*0.9, bars.High[1], 1e-12)
	assert.InDelta(t, 9.9*0.9, bars.Low[1], 1e-12)
	assert.Equal(t, 9.1, bars.Open[2])
}

func TestApply_ZeroCloseLeftUnadjusted(t *testing.T) {
	bars := &models.KlineBars{
		Open:  []float64{9.5, 10.2, 9.1},
		High:  []float64{10.5, 10.4, 9.3},
		Low:   []float64{9.4, 9.9, 8.9},
		Close: []float64{0, 10.0, 9.0},
	}

	raw, err := Apply(bars, []float64{0, 0, 1}, []float64{0, 0, 0})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, 9}, raw)
	assert.Equal(t, 0.0, bars.Close[0])
	assert.Equal(t, 9.5, bars.Open[0])
	assert.Equal(t, 10.5, bars.High[0])
	assert.Equal(t, 9.4, bars.Low[0])
	assert.InDelta(t, 9.0, bars.Close[1], 1e-12)
	assert.InDelta(t, 10.2*0.9, bars.Open[1], 1e-12)
}

func TestDistributions(t *testing.T) {
	d := func(n int) time.Time { return time.Date(2024, 6, n, 0, 0, 0, 0, models.CST) }
	dates := []time.Time{d(3), d(4), d(5), d(6), d(7)}
	events := []models.DividendRecord{
		{ExDate: d(1), CashPer10: 99},
		{ExDate: d(5), CashPer10: 3, BonusPer10: 2, AllotPer10: 1},
	}

	cash, shares := Distributions(dates, events)

	assert.InDeltaSlice(t, []float64{0, 0, 0.3, 0, 0}, cash, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0, 0.3, 0, 0}, shares, 1e-12)

	cash, shares = Distributions(dates, nil)
	assert.Equal(t, make([]float64, 5), cash)
	assert.Equal(t, make([]float64, 5), shares)
}

func TestProperty_AdjustmentIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("zero events leave close unchanged", prop.ForAll(
		func(close []float64) bool {
			zeros := make([]float64, len(close))
			adj, err := BackwardClose(close, zeros, zeros)
			if err != nil {
				return false
			}
			for i := range close {
				if adj[i] != close[i] {
					return false
				}
			}
			return true
		},
		closeGen(50),
	))

	properties.TestingRun(t)
}

func TestProperty_AdjustmentPinning(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("last adjusted close equals last raw close", prop.ForAll(
		func(close []float64, events [2][]float64) bool {
			adj, err := BackwardClose(close, events[0], events[1])
			if err != nil {
				return false
			}
			return adj[len(adj)-1] == close[len(close)-1]
		},
		closeGen(50),
		eventsGen(50),
	))

	properties.Property("ex-date return equals total return", prop.ForAll(
		func(close []float64, events [2][]float64) bool {
			cash, shares := events[0], events[1]
			adj, err := BackwardClose(close, cash, shares)
			if err != nil {
				return false
			}
			for i := 1; i < len(close); i++ {
				got := adj[i] / adj[i-1]
				want := close[i] * (1 + shares[i]) / (close[i-1] - cash[i])
				if math.Abs(got-want) > 1e-9*math.Abs(want) {
					return false
				}
			}
			return true
		},
		closeGen(50),
		eventsGen(50),
	))

	properties.TestingRun(t)
}
