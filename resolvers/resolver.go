package resolvers

import (
	"context"
	"errors"

	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/quotes"
	"github.com/njkim/stocksync/sources"
	"go.uber.org/zap"
)

// Resolver resolve symbols into quotes through an ordered source chain. The
// first batch capable source is the primary, every source takes part in the
// per symbol fallback walk.
type Resolver struct {
	chain []sources.Source
}

// NewResolver create resolver with sources in fallback order
func NewResolver(chain ...sources.Source) *Resolver {
	return &Resolver{chain: chain}
}

// ResolveBatch issue one batch request through the primary source and return
// whatever it had, valid or partial. Absent symbols mean no data. A failing
// batch yields an empty map, single symbol fallback covers the rest.
func (r *Resolver) ResolveBatch(ctx context.Context, symbols []string) map[string]quotes.Quote {
	for _, source := range r.chain {
		batch, ok := source.(sources.BatchSource)
		if !ok {
			continue
		}

		result, err := batch.Quotes(ctx, symbols)
		if err != nil {
			zap.L().Warn("batch quotes failed",
				zap.Error(err),
				zap.String("source", source.Name()),
				zap.Int("symbols", len(symbols)))
			return map[string]quotes.Quote{}
		}

		return result
	}

	return map[string]quotes.Quote{}
}

// ResolveOne walk the whole chain for one symbol, merging partial fields and
// stopping at the first valid merged quote. seed carries fields already known
// from earlier attempts so later, sparser results never overwrite them.
func (r *Resolver) ResolveOne(ctx context.Context, symbol string, seed quotes.Quote) quotes.Result {
	merged := seed
	if merged.Valid() {
		return quotes.Result{Quote: merged}
	}

	for _, source := range r.chain {
		quote, err := source.Quote(ctx, symbol)
		if err != nil {
			if errors.Is(err, constants.ErrNoQuote) {
				zap.L().Debug("source has no quote",
					zap.String("source", source.Name()),
					zap.String("symbol", symbol))
			} else {
				zap.L().Warn("source quote failed",
					zap.Error(err),
					zap.String("source", source.Name()),
					zap.String("symbol", symbol))
			}
			continue
		}

		merged = merged.Merge(quote)
		if merged.Valid() {
			return quotes.Result{Quote: merged}
		}
	}

	zap.L().Warn("symbol not resolved by any source", zap.String("symbol", symbol))

	return quotes.Result{Quote: merged, Err: constants.ErrSymbolNotResolved}
}
