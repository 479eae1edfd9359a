package flow

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

func TestClassify(t *testing.T) {
	dir, mag := Classify(1.23e8)
	assert.Equal(t, Inflow, dir)
	assert.Equal(t, 1.23, mag)

	dir, mag = Classify(-1.23e8)
	assert.Equal(t, Outflow, dir)
	assert.Equal(t, 1.23, mag)

	dir, mag = Classify(0)
	assert.Equal(t, Outflow, dir)
	assert.Equal(t, 0.0, mag)

	_, mag = Classify(4.5678e7)
	assert.Equal(t, 0.46, mag)
}

func TestProperty_ClassifySymmetric(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("negating a non-zero amount flips direction and keeps magnitude", prop.ForAll(
		func(amount float64) bool {
			if amount == 0 {
				return true
			}
			d1, m1 := Classify(amount)
			d2, m2 := Classify(-amount)
			return d1 != d2 && m1 == m2 && m1 >= 0
		},
		gen.Float64Range(-1e11, 1e11),
	))

	properties.TestingRun(t)
}

func TestTiers(t *testing.T) {
	rec := &models.FundFlowRecord{
		Main:  &models.FlowAmount{Amount: 2.5e8, Ratio: 0.052},
		Small: &models.FlowAmount{Amount: -1.1e8, Ratio: -0.031},
	}

	tiers := Tiers(rec)
	require.Len(t, tiers, 2)
	assert.Equal(t, TierFlow{Tier: models.TierMain, Label: "主力", Direction: Inflow, Magnitude: 2.5, Ratio: 0.052}, tiers[0])
	assert.Equal(t, TierFlow{Tier: models.TierSmall, Label: "小单", Direction: Outflow, Magnitude: 1.1, Ratio: 0.031}, tiers[1])
	assert.Equal(t, "流出", tiers[1].Direction.Label())

	assert.Nil(t, Tiers(nil))
}

func TestLatest(t *testing.T) {
	ff := &models.AlignedFundFlow{
		Records: []models.FundFlowRecord{
			{Main: &models.FlowAmount{Amount: 1e8}},
			{Main: &models.FlowAmount{Amount: -3e8}},
		},
		Index: []int{0, 0, 1},
	}
	tiers := Latest(ff)
	require.Len(t, tiers, 1)
	assert.Equal(t, Outflow, tiers[0].Direction)
	assert.Equal(t, 3.0, tiers[0].Magnitude)

	assert.Nil(t, Latest(nil))
}
