package datafeed

import (
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"cnstock/internal/errors"
	"cnstock/internal/models"
)

// Column is a numeric field column. Defaulted marks entries that could not be
// parsed and were replaced by zero; it is nil when no entry was defaulted.
type Column struct {
	Values    []float64
	Defaulted []bool
}

// Len returns the number of entries.
func (c Column) Len() int {
	return len(c.Values)
}

// IsDefaulted reports whether entry i was substituted.
func (c Column) IsDefaulted(i int) bool {
	return c.Defaulted != nil && c.Defaulted[i]
}

// Metric returns entry i as a metric, defaulting NaN to zero.
func (c Column) Metric(i int) models.Metric {
	if c.IsDefaulted(i) {
		return models.Metric{Defaulted: true}
	}
	return models.NewMetric(c.Values[i])
}

// Fields maps field name to column.
type Fields map[string]Column

// Has reports whether field is present.
func (f Fields) Has(field string) bool {
	_, ok := f[field]
	return ok
}

// Grouped is a batch result nested as symbol -> kind -> field -> column.
type Grouped map[string]map[models.Kind]Fields

// Symbols returns the grouped symbols in sorted order.
func (g Grouped) Symbols() []string {
	symbols := make([]string, 0, len(g))
	for s := range g {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Kind returns the fields of one symbol's stream, or nil when absent.
func (g Grouped) Kind(symbol string, kind models.Kind) Fields {
	return g[symbol][kind]
}

// ParseKey splits a composite key into exactly three dot-delimited parts.
// Dots are never escaped, so a symbol containing a dot is rejected.
func ParseKey(key string) (models.Key, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		return models.Key{}, errors.NewMalformedKeyError(key, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return models.Key{}, errors.NewMalformedKeyError(key, len(parts))
		}
	}
	return models.Key{Symbol: parts[0], Kind: models.Kind(parts[1]), Field: parts[2]}, nil
}

// Group nests a flat batch result by symbol, kind and field. Any malformed key
// aborts the whole batch. Unrecognized kinds are kept as-is.
func Group(batch RawBatch) (Grouped, error) {
	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grouped := make(Grouped)
	for _, raw := range keys {
		key, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		kinds, ok := grouped[key.Symbol]
		if !ok {
			kinds = make(map[models.Kind]Fields)
			grouped[key.Symbol] = kinds
		}
		fields, ok := kinds[key.Kind]
		if !ok {
			fields = make(Fields)
			kinds[key.Kind] = fields
		}
		fields[key.Field] = coerceColumn(key, batch[raw])
	}
	return grouped, nil
}

func coerceColumn(key models.Key, values []any) Column {
	scaled := key.Kind == models.KindFinance && tenThousandScaled(key.Field)
	col := Column{Values: make([]float64, len(values))}
	for i, v := range values {
		f, ok := coerceValue(v, scaled)
		if !ok {
			if col.Defaulted == nil {
				col.Defaulted = make([]bool, len(values))
			}
			col.Defaulted[i] = true
			continue
		}
		col.Values[i] = f
	}
	return col
}

// coerceValue converts one raw value. When scaled is set, strings with a
// 亿 (1e8) or 万 (1e4) suffix are converted to units of 10000.
func coerceValue(v any, scaled bool) (float64, bool) {
	if v == nil {
		return math.NaN(), true
	}
	if s, ok := v.(string); ok {
		return parseNumberString(s, scaled)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseNumberString(s string, scaled bool) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	scale := 1.0
	if scaled {
		switch {
		case strings.HasSuffix(s, "亿"):
			s, scale = strings.TrimSuffix(s, "亿"), 10000
		case strings.HasSuffix(s, "万"):
			s = strings.TrimSuffix(s, "万")
		}
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, false
	}
	return f * scale, true
}

func tenThousandScaled(field string) bool {
	for _, f := range models.TenThousandScaled {
		if f == field {
			return true
		}
	}
	return false
}
