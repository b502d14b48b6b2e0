package sources

import (
	"context"

	"github.com/njkim/stocksync/quotes"
)

// Source define a per symbol quote source
type Source interface {
	// Name source short name for logs
	Name() string
	// Quote fetch one symbol quote
	Quote(ctx context.Context, symbol string) (quotes.Quote, error)
}

// BatchSource define a source able to fetch many symbols in one request
type BatchSource interface {
	Source
	// Quotes fetch a batch of symbols. Absent keys mean no data.
	Quotes(ctx context.Context, symbols []string) (map[string]quotes.Quote, error)
}
