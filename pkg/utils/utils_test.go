package utils

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"cnstock/internal/models"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{123456789, "1.23亿"},
		{-250000000, "-2.50亿"},
		{56780, "5.68万"},
		{9999, "9999.00"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.amount))
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+1.23%", FormatPercent(0.0123))
	assert.Equal(t, "-0.50%", FormatPercent(-0.005))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestFormatOptional(t *testing.T) {
	v := 12.345
	assert.Equal(t, "12.35", FormatOptional(&v, FormatPrice))
	assert.Equal(t, "-", FormatOptional(nil, FormatPrice))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatQuantity(1234567))
	assert.Equal(t, "-1,000", FormatQuantity(-1000))
	assert.Equal(t, "999", FormatQuantity(999))
}

func TestProperty_FormatQuantityDigits(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("removing separators restores the number", prop.ForAll(
		func(n int64) bool {
			out := FormatQuantity(n)
			return strings.ReplaceAll(out, ",", "") == strconv.FormatInt(n, 10)
		},
		gen.Int64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}

func TestSessionAt(t *testing.T) {
	at := func(day, h, m int) time.Time {
		return time.Date(2024, 6, day, h, m, 0, 0, models.CST)
	}
	tests := []struct {
		t    time.Time
		want Session
	}{
		{at(3, 9, 0), SessionClosed},
		{at(3, 9, 20), SessionAuction},
		{at(3, 9, 30), SessionMorning},
		{at(3, 11, 29), SessionMorning},
		{at(3, 11, 30), SessionLunch},
		{at(3, 13, 0), SessionAfternoon},
		{at(3, 15, 0), SessionClosed},
		{at(1, 10, 0), SessionClosed}, // Saturday
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SessionAt(tt.t), tt.t.String())
	}

	// 02:00 UTC is 10:00 in exchange time.
	assert.True(t, IsTrading(time.Date(2024, 6, 3, 2, 0, 0, 0, time.UTC)))
}

func TestSameExchangeDay(t *testing.T) {
	a := time.Date(2024, 6, 3, 17, 0, 0, 0, time.UTC) // 01:00 on 6/4 in exchange time
	b := time.Date(2024, 6, 4, 9, 0, 0, 0, models.CST)
	assert.True(t, SameExchangeDay(a, b))
	assert.False(t, SameExchangeDay(a, b.AddDate(0, 0, 1)))
}
