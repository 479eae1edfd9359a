// Package datafeed defines the boundary to market-data providers and groups
// their flat batch results into per-security, per-kind field columns.
package datafeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cnstock/internal/models"
)

// RawBatch is the flat result of a batched multi-symbol, multi-kind query,
// keyed by "<symbol>.<kind>.<field>". Values are numbers, numeric strings,
// nil, or occasionally strings with a unit suffix.
type RawBatch map[string][]any

// Request describes a batch query.
type Request struct {
	Symbols []string
	Kinds   []models.Kind
	Start   time.Time
	End     time.Time
}

// AllKinds is the default set of kinds requested for a full build.
var AllKinds = []models.Kind{
	models.KindKline, models.KindFinance, models.KindDividend, models.KindFundFlow,
}

// Provider supplies raw rows for a batch of symbols.
type Provider interface {
	FetchBatch(ctx context.Context, req Request) (RawBatch, error)
}

// Put appends a column under the composite key built from k.
func (b RawBatch) Put(k models.Key, values []any) {
	b[k.String()] = values
}

// PutFloats stores a float column under k.
func (b RawBatch) PutFloats(k models.Key, values []float64) {
	col := make([]any, len(values))
	for i, v := range values {
		col[i] = v
	}
	b[k.String()] = col
}

// DecodeBatch reads a JSON object of composite key to array.
func DecodeBatch(r io.Reader) (RawBatch, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var batch RawBatch
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("decoding batch: %w", err)
	}
	return batch, nil
}
