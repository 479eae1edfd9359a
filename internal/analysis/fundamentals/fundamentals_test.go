package fundamentals

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnstock/internal/models"
)

func period(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, models.CST).AddDate(0, 1, -1)
}

func TestEstFinRatio(t *testing.T) {
	assert.Equal(t, 1.0, EstFinRatio(time.December))
	assert.Equal(t, 0.75, EstFinRatio(time.September))
	assert.Equal(t, 0.5, EstFinRatio(time.June))
	assert.Equal(t, 0.25, EstFinRatio(time.March))
}

func TestProperty_EstFinRatioOtherMonths(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("non-quarter-end months map to 0", prop.ForAll(
		func(m int) bool {
			month := time.Month(m)
			switch month {
			case time.March, time.June, time.September, time.December:
				return EstFinRatio(month) > 0
			}
			return EstFinRatio(month) == 0.0
		},
		gen.IntRange(-5, 20),
	))

	properties.TestingRun(t)
}

func TestYearlyFinIndex(t *testing.T) {
	dates := []time.Time{
		period(2022, time.December),
		period(2023, time.March),
		period(2023, time.June),
		period(2023, time.December),
		period(2024, time.March),
	}
	assert.Equal(t, 3, YearlyFinIndex(dates))
	assert.Equal(t, 0, YearlyFinIndex(dates[:3]))
	assert.Equal(t, -1, YearlyFinIndex(dates[1:3]))
	assert.Equal(t, -1, YearlyFinIndex(nil))
}

func TestYearlyFinIndex_ExchangeTimeZone(t *testing.T) {
	// 2023-12-31 20:00 UTC is already January in UTC+8.
	utc := time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, -1, YearlyFinIndex([]time.Time{utc}))
}

func record(p time.Time, tcap, np, navps, roe float64) models.FinanceRecord {
	return models.FinanceRecord{
		Period: p,
		TCAP:   models.NewMetric(tcap),
		NP:     models.NewMetric(np),
		NAVPS:  models.NewMetric(navps),
		ROE:    models.NewMetric(roe),
		MR:     models.NewMetric(np * 4),
		EPS:    models.NewMetric(np / 1e5),
	}
}

func TestValuate(t *testing.T) {
	fin := &models.AlignedFinance{
		Records: []models.FinanceRecord{
			record(period(2023, time.December), 2000000, 100000, 10, 12),
			record(period(2024, time.June), 2400000, 60000, 12, 6.5),
		},
		Index:    []int{0, 0, 1},
		Preceded: []bool{true, true, true},
	}

	v := Valuate(30, fin)

	require.NotNil(t, v.MarketCap)
	assert.Equal(t, 240.0, *v.MarketCap)
	require.NotNil(t, v.PB)
	assert.Equal(t, 2.5, *v.PB)
	require.NotNil(t, v.ROE)
	assert.Equal(t, 6.5, *v.ROE)
	require.NotNil(t, v.StaticPE)
	assert.Equal(t, 24.0, *v.StaticPE)
	require.NotNil(t, v.DynamicPE)
	assert.Equal(t, 20.0, *v.DynamicPE)
	assert.Equal(t, period(2024, time.June), v.Period)
}

func TestValuate_MissingData(t *testing.T) {
	assert.Equal(t, Valuation{}, Valuate(10, nil))

	fin := &models.AlignedFinance{
		Records: []models.FinanceRecord{{
			Period: period(2024, time.May),
			TCAP:   models.Metric{Defaulted: true},
			NAVPS:  models.NewMetric(5),
		}},
		Index:    []int{0},
		Preceded: []bool{true},
	}
	v := Valuate(10, fin)
	assert.Nil(t, v.MarketCap)
	assert.Nil(t, v.StaticPE)
	assert.Nil(t, v.DynamicPE)
	assert.Nil(t, v.ROE)
	require.NotNil(t, v.PB)
	assert.Equal(t, 2.0, *v.PB)
}

func TestAnnualTable(t *testing.T) {
	var records []models.FinanceRecord
	for year := 2017; year <= 2024; year++ {
		for _, m := range []time.Month{time.March, time.June, time.September, time.December} {
			records = append(records, record(period(year, m), 0, float64(year), 1, 1))
		}
	}
	records = append(records, record(period(2025, time.March), 0, 1, 1, 1))

	rows := AnnualTable(records, 5)
	require.Len(t, rows, 5)
	assert.Equal(t, 2024, rows[0].Year)
	assert.Equal(t, 2020, rows[4].Year)
	assert.InDelta(t, 2024.0/10000, rows[0].NetProfit, 1e-12)
	assert.InDelta(t, 2024.0*4/10000, rows[0].Revenue, 1e-12)

	assert.Empty(t, AnnualTable(records[:3], 5))
}
