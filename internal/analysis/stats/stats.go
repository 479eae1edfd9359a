// Package stats summarizes recent trading activity over fixed look-back
// periods.
package stats

import (
	"time"

	"cnstock/internal/models"
	"cnstock/pkg/utils"
)

// DefaultPeriods are the look-back windows in trading days.
var DefaultPeriods = []int{5, 20, 60, 120, 240}

// Period summarizes the last Days bars.
type Period struct {
	Days       int     `json:"days"`
	MeanClose  float64 `json:"mean_close"`
	MaxHigh    float64 `json:"max_high"`
	MinLow     float64 `json:"min_low"`
	Amplitude  float64 `json:"amplitude"`
	Change     float64 `json:"change"`
	MeanVolume float64 `json:"mean_volume"`
	MeanAmount float64 `json:"mean_amount"`

	// Turnover figures are zero when no positive TCAP is known.
	MeanTurnover  float64 `json:"mean_turnover"`
	TotalTurnover float64 `json:"total_turnover"`
}

// Summary describes the last bar and each look-back period. Volume and
// amount of the last bar are extrapolated to a full session by VolumeEstRatio.
type Summary struct {
	Date           time.Time `json:"date"`
	Close          float64   `json:"close"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	Amplitude      float64   `json:"amplitude"`
	Change         float64   `json:"change"`
	Volume         float64   `json:"volume"`
	Amount         float64   `json:"amount"`
	Turnover       float64   `json:"turnover"`
	VolumeEstRatio float64   `json:"volume_est_ratio"`
	Periods        []Period  `json:"periods"`
}

// Summarize computes the summary of s as of now. Periods longer than the
// series are skipped. It returns nil for an empty series.
func Summarize(s *models.SecurityTimeSeries, periods []int, tcap float64, now time.Time) *Summary {
	n := s.Len()
	if n == 0 {
		return nil
	}

	ratio := VolumeEstRatio(s.LastDate(), now)
	volume := append([]float64(nil), s.Volume...)
	amount := append([]float64(nil), s.Amount...)
	volume[n-1] *= ratio
	amount[n-1] *= ratio

	sum := &Summary{
		Date:           s.LastDate(),
		Close:          s.Close[n-1],
		High:           s.High[n-1],
		Low:            s.Low[n-1],
		Amplitude:      relative(s.High[n-1], s.Low[n-1]),
		Volume:         volume[n-1],
		Amount:         amount[n-1],
		VolumeEstRatio: ratio,
	}
	if n > 1 {
		sum.Change = relative(s.Close[n-1], s.Close[n-2])
	}
	if tcap > 0 {
		sum.Turnover = volume[n-1] / tcap
	}

	for _, p := range periods {
		if p <= 0 || p > n {
			continue
		}
		from := n - p
		period := Period{
			Days:       p,
			MeanClose:  mean(s.Close[from:]),
			MaxHigh:    maxOf(s.High[from:]),
			MinLow:     minOf(s.Low[from:]),
			Change:     relative(s.Close[n-1], s.Close[from]),
			MeanVolume: mean(volume[from:]),
			MeanAmount: mean(amount[from:]),
		}
		period.Amplitude = relative(period.MaxHigh, period.MinLow)
		if tcap > 0 {
			period.MeanTurnover = period.MeanVolume / tcap
			period.TotalTurnover = total(volume[from:]) / tcap
		}
		sum.Periods = append(sum.Periods, period)
	}
	return sum
}

// VolumeEstRatio returns the factor extrapolating a partial session's volume
// to a full 240-minute session. It is 1 unless last falls on the same exchange
// day as now and now is inside trading hours.
func VolumeEstRatio(last, now time.Time) float64 {
	if !utils.SameExchangeDay(last, now) {
		return 1
	}

	switch session := utils.SessionAt(now); session {
	case utils.SessionMorning:
		return 240 / (now.Sub(utils.SessionOpen(now, session)).Minutes() + 1)
	case utils.SessionLunch:
		return 2
	case utils.SessionAfternoon:
		return 240 / (120 + now.Sub(utils.SessionOpen(now, session)).Minutes() + 1)
	}
	return 1
}

// relative returns a/b - 1, or 0 when b is zero.
func relative(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a/b - 1
}

func total(values []float64) float64 {
	var t float64
	for _, v := range values {
		t += v
	}
	return t
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return total(values) / float64(len(values))
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
