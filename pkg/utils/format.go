// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	yi  = decimal.NewFromInt(100000000)
	wan = decimal.NewFromInt(10000)
)

// FormatYi formats an amount in yuan as 亿 with two decimals.
func FormatYi(amount float64) string {
	return decimal.NewFromFloat(amount).Div(yi).StringFixed(2) + "亿"
}

// FormatWan formats an amount in yuan as 万 with two decimals.
func FormatWan(amount float64) string {
	return decimal.NewFromFloat(amount).Div(wan).StringFixed(2) + "万"
}

// FormatAmount formats an amount in yuan in compact form (亿/万).
func FormatAmount(amount float64) string {
	abs := decimal.NewFromFloat(amount).Abs()
	switch {
	case abs.GreaterThanOrEqual(yi):
		return FormatYi(amount)
	case abs.GreaterThanOrEqual(wan):
		return FormatWan(amount)
	}
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// FormatPercent formats a ratio (0.0123) as a signed percentage (+1.23%).
func FormatPercent(ratio float64) string {
	pct := decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).Round(2)
	sign := ""
	if pct.IsPositive() {
		sign = "+"
	}
	return sign + pct.StringFixed(2) + "%"
}

// FormatPrice formats a quote with two decimals.
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}

// FormatOptional formats v with f, or "-" when v is nil.
func FormatOptional(v *float64, f func(float64) string) string {
	if v == nil {
		return "-"
	}
	return f(*v)
}

// FormatQuantity formats a share count with thousands separators.
func FormatQuantity(qty int64) string {
	s := fmt.Sprintf("%d", qty)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
