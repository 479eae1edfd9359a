// Package adjust computes backward ("ex-right") price adjustment for cash
// dividends and share distributions.
package adjust

import (
	"fmt"
	"math"

	"cnstock/internal/errors"
	"cnstock/internal/models"
)

// Factors returns the cumulative backward adjustment factor of every bar.
//
// cash[i] is the cash dividend per share and shares[i] the new shares per
// share held, both non-zero only on ex-dates. Bars are processed from the
// most recent backward; at an ex-date every earlier bar is scaled by
// (preClose - D) / (preClose * (1 + G)). The last factor is always 1.
func Factors(close, cash, shares []float64) ([]float64, error) {
	n := len(close)
	if len(cash) != n || len(shares) != n {
		return nil, fmt.Errorf("close=%d cash=%d shares=%d: %w", n, len(cash), len(shares), errors.ErrLengthMismatch)
	}

	factors := make([]float64, n)
	if n == 0 {
		return factors, nil
	}

	f := 1.0
	factors[n-1] = f
	for i := n - 1; i >= 1; i-- {
		f *= eventFactor(close[i-1], zeroNaN(cash[i]), zeroNaN(shares[i]))
		factors[i-1] = f
	}
	return factors, nil
}

// eventFactor is the single-period factor of one ex-date. Events that would
// produce a non-positive price are ignored.
func eventFactor(preClose, d, g float64) float64 {
	if d == 0 && g == 0 {
		return 1
	}
	if preClose <= 0 || preClose-d <= 0 || 1+g <= 0 {
		return 1
	}
	return (preClose - d) / (preClose * (1 + g))
}

// BackwardClose returns the adjusted close series. The most recent close is
// never rescaled, and with no events the result equals close exactly.
func BackwardClose(close, cash, shares []float64) ([]float64, error) {
	factors, err := Factors(close, cash, shares)
	if err != nil {
		return nil, err
	}
	adj := make([]float64, len(close))
	for i, c := range close {
		if factors[i] == 1 {
			adj[i] = c
			continue
		}
		adj[i] = c * factors[i]
	}
	return adj, nil
}

// Apply adjusts bars in place. Close becomes the adjusted close and Open, High
// and Low are rescaled by ADJ_CLOSE/CLOSE so each bar stays consistent. A bar
// whose raw close is 0 has no ratio and is left unadjusted. It returns a copy
// of the original unadjusted close.
func Apply(bars *models.KlineBars, cash, shares []float64) ([]float64, error) {
	raw := make([]float64, len(bars.Close))
	copy(raw, bars.Close)

	adj, err := BackwardClose(raw, cash, shares)
	if err != nil {
		return nil, err
	}

	for i := range adj {
		ratio := 1.0
		if raw[i] != 0 {
			ratio = adj[i] / raw[i]
		}
		if ratio == 1 {
			continue
		}
		bars.Open[i] *= ratio
		bars.High[i] *= ratio
		bars.Low[i] *= ratio
		bars.Close[i] = adj[i]
	}
	return raw, nil
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
