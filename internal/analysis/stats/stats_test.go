package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnstock/internal/models"
)

func series(n int) *models.SecurityTimeSeries {
	s := &models.SecurityTimeSeries{Symbol: "SH600000"}
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, models.CST)
	for i := 0; i < n; i++ {
		c := float64(10 + i)
		s.Dates = append(s.Dates, start.AddDate(0, 0, i))
		s.Open = append(s.Open, c)
		s.High = append(s.High, c+1)
		s.Low = append(s.Low, c-1)
		s.Close = append(s.Close, c)
		s.Volume = append(s.Volume, 1000)
		s.Amount = append(s.Amount, 1e6)
	}
	return s
}

func TestSummarize(t *testing.T) {
	s := series(30)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, models.CST)

	sum := Summarize(s, DefaultPeriods, 1e5, now)
	require.NotNil(t, sum)

	assert.Equal(t, 1.0, sum.VolumeEstRatio)
	assert.Equal(t, 39.0, sum.Close)
	assert.InDelta(t, 39.0/38.0-1, sum.Change, 1e-12)
	assert.InDelta(t, 40.0/38.0-1, sum.Amplitude, 1e-12)
	assert.InDelta(t, 0.01, sum.Turnover, 1e-12)

	// 60, 120 and 240 exceed the history.
	require.Len(t, sum.Periods, 2)
	p5 := sum.Periods[0]
	assert.Equal(t, 5, p5.Days)
	assert.Equal(t, 37.0, p5.MeanClose)
	assert.Equal(t, 40.0, p5.MaxHigh)
	assert.Equal(t, 34.0, p5.MinLow)
	assert.InDelta(t, 39.0/35.0-1, p5.Change, 1e-12)
	assert.InDelta(t, 0.05, p5.TotalTurnover, 1e-12)
	assert.InDelta(t, 0.01, p5.MeanTurnover, 1e-12)
}

func TestSummarize_ExtrapolatesToday(t *testing.T) {
	s := series(3)
	last := s.LastDate()
	now := time.Date(last.Year(), last.Month(), last.Day(), 12, 0, 0, 0, models.CST)

	sum := Summarize(s, DefaultPeriods, 0, now)
	require.NotNil(t, sum)
	assert.Equal(t, 2.0, sum.VolumeEstRatio)
	assert.Equal(t, 2000.0, sum.Volume)
	assert.Equal(t, 2e6, sum.Amount)
	assert.Equal(t, 0.0, sum.Turnover)

	// The series itself is untouched.
	assert.Equal(t, 1000.0, s.Volume[2])
}

func TestSummarize_Empty(t *testing.T) {
	assert.Nil(t, Summarize(&models.SecurityTimeSeries{}, DefaultPeriods, 0, time.Now()))
}

func TestVolumeEstRatio(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, models.CST)
	at := func(h, m int) time.Time {
		return time.Date(2024, 6, 3, h, m, 0, 0, models.CST)
	}

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"pre-open", at(9, 0), 1},
		{"open", at(9, 30), 240},
		{"morning", at(10, 29), 4},
		{"lunch", at(12, 0), 2},
		{"afternoon", at(13, 59), 240.0 / 180.0},
		{"after close", at(15, 0), 1},
		{"other day", at(10, 0).AddDate(0, 0, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VolumeEstRatio(day, tt.now), 1e-9)
		})
	}
}
