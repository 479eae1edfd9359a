// Package models provides domain models for the market-data fusion pipeline.
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CST is the exchange time zone (UTC+8). Period months and trading days are
// evaluated in this zone.
var CST = time.FixedZone("CST", 8*60*60)

// UnixDate converts a unix-seconds DATE value into an exchange-local time.
func UnixDate(sec int64) time.Time {
	return time.Unix(sec, 0).In(CST)
}

// Kind identifies a data stream in a batch query result.
type Kind string

const (
	KindKline    Kind = "KLINE"
	KindFinance  Kind = "FINANCE"
	KindDividend Kind = "DIVID"
	KindFundFlow Kind = "FUNDFLOW"
)

// Known reports whether downstream stages interpret this kind.
func (k Kind) Known() bool {
	switch k {
	case KindKline, KindFinance, KindDividend, KindFundFlow:
		return true
	}
	return false
}

// Field names shared by all kinds.
const (
	FieldDate = "DATE"
)

// KLINE fields.
const (
	FieldOpen   = "OPEN"
	FieldHigh   = "HIGH"
	FieldLow    = "LOW"
	FieldClose  = "CLOSE"
	FieldVolume = "VOLUME"
	FieldAmount = "AMOUNT"
)

// DIVID fields, all "per 10 shares held".
const (
	FieldBonusShares = "BS"
	FieldAllotShares = "DS"
	FieldCashDivid   = "SD"
)

// Key is the structured form of a "<symbol>.<kind>.<field>" composite key.
type Key struct {
	Symbol string
	Kind   Kind
	Field  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%s.%s", k.Symbol, k.Kind, k.Field)
}

// Candle represents one daily OHLCV bar.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Amount    float64
}

// Metric is a numeric value that may have been defaulted because the source
// value was missing, non-numeric or NaN.
type Metric struct {
	Value     float64 `json:"value"`
	Defaulted bool    `json:"defaulted,omitempty"`
}

// NewMetric wraps v, defaulting NaN and Inf to zero.
func NewMetric(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{Defaulted: true}
	}
	return Metric{Value: v}
}

// IsStock reports whether symbol is an A-share stock rather than an index.
func IsStock(symbol string) bool {
	return strings.HasPrefix(symbol, "SH6") || strings.HasPrefix(symbol, "SZ00") || strings.HasPrefix(symbol, "SZ30")
}

// Board is an exchange listing board.
type Board string

const (
	BoardAll  Board = "all"
	BoardMain Board = "main"
	BoardStar Board = "star"
	BoardGEM  Board = "gem"
)

// OnBoard reports whether symbol is listed on board b.
func OnBoard(symbol string, b Board) bool {
	switch b {
	case BoardMain:
		return (strings.HasPrefix(symbol, "SH6") && !strings.HasPrefix(symbol, "SH688")) || strings.HasPrefix(symbol, "SZ00")
	case BoardStar:
		return strings.HasPrefix(symbol, "SH688")
	case BoardGEM:
		return strings.HasPrefix(symbol, "SZ30")
	case BoardAll, "":
		return true
	}
	return false
}
