package datafeed

import (
	"context"
	"strings"

	"cnstock/internal/models"
)

// Static is a provider over a fixed batch, such as a decoded batch dump. It
// returns the columns of the requested symbols and kinds; keys it cannot
// attribute to a symbol are passed through for the grouper to reject.
type Static struct {
	Batch RawBatch
}

// FetchBatch implements Provider.
func (s Static) FetchBatch(ctx context.Context, req Request) (RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbols := make(map[string]bool, len(req.Symbols))
	for _, sym := range req.Symbols {
		symbols[sym] = true
	}
	kinds := make(map[models.Kind]bool, len(req.Kinds))
	for _, k := range req.Kinds {
		kinds[k] = true
	}

	out := make(RawBatch)
	for key, values := range s.Batch {
		parts := strings.Split(key, ".")
		if len(parts) != 3 {
			out[key] = values
			continue
		}
		if len(symbols) > 0 && !symbols[parts[0]] {
			continue
		}
		if len(kinds) > 0 && !kinds[models.Kind(parts[1])] {
			continue
		}
		out[key] = values
	}
	return out, nil
}
