// Package flow classifies daily capital-flow tiers as inflow or outflow.
package flow

import (
	"github.com/shopspring/decimal"

	"cnstock/internal/models"
)

// Direction is the sign of a net capital flow.
type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

// Label returns the exchange display label of d.
func (d Direction) Label() string {
	if d == Inflow {
		return "流入"
	}
	return "流出"
}

// hundredMillion is the 亿 display unit.
var hundredMillion = decimal.New(1, 8)

// Classify converts a net amount in yuan into a direction and a magnitude in
// 亿, rounded to two decimals. Only strictly positive amounts are inflows.
func Classify(amount float64) (Direction, float64) {
	dir := Outflow
	if amount > 0 {
		dir = Inflow
	}
	mag := decimal.NewFromFloat(amount).Div(hundredMillion).Abs().Round(2)
	return dir, mag.InexactFloat64()
}

// TierFlow is the classified flow of one order-size tier.
type TierFlow struct {
	Tier      models.FlowTier `json:"tier"`
	Label     string          `json:"label"`
	Direction Direction       `json:"direction"`
	Magnitude float64         `json:"magnitude"`
	Ratio     float64         `json:"ratio"`
}

var tierLabels = map[models.FlowTier]string{
	models.TierMain:       "主力",
	models.TierExtraLarge: "超大单",
	models.TierLarge:      "大单",
	models.TierMedium:     "中单",
	models.TierSmall:      "小单",
}

// TierLabel returns the display label of a tier.
func TierLabel(t models.FlowTier) string {
	return tierLabels[t]
}

// Tiers classifies every tier reported in rec, in display order. The ratio is
// reported as an absolute fraction.
func Tiers(rec *models.FundFlowRecord) []TierFlow {
	if rec == nil {
		return nil
	}
	var out []TierFlow
	for _, t := range models.FlowTiers {
		f := rec.Tier(t)
		if f == nil {
			continue
		}
		dir, mag := Classify(f.Amount)
		out = append(out, TierFlow{
			Tier:      t,
			Label:     tierLabels[t],
			Direction: dir,
			Magnitude: mag,
			Ratio:     decimal.NewFromFloat(f.Ratio).Abs().InexactFloat64(),
		})
	}
	return out
}

// Latest classifies the tiers in effect on the last bar of an aligned stream.
func Latest(ff *models.AlignedFundFlow) []TierFlow {
	if ff == nil || len(ff.Records) == 0 || len(ff.Index) == 0 {
		return nil
	}
	return Tiers(ff.At(len(ff.Index) - 1))
}
