package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/netops"
	"github.com/njkim/stocksync/quotes"
	"go.uber.org/zap"
)

// FinancialModelingPrep financialmodelingprep.com quote source, the only
// batch capable source in the chain
type FinancialModelingPrep struct {
	client  *netops.Client
	baseURL string
	apiKey  string
}

// NewFinancialModelingPrep create financialmodelingprep source
func NewFinancialModelingPrep(client *netops.Client, baseURL, apiKey string) *FinancialModelingPrep {
	return &FinancialModelingPrep{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Name get source name
func (s FinancialModelingPrep) Name() string {
	return "fmp"
}

// Quotes fetch a batch of symbols in one request
func (s FinancialModelingPrep) Quotes(ctx context.Context, symbols []string) (map[string]quotes.Quote, error) {
	if len(symbols) == 0 {
		return map[string]quotes.Quote{}, nil
	}

	// symbols come from free text titles, escape each one before it joins
	// the request path
	escaped := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		escaped = append(escaped, url.PathEscape(symbol))
	}

	query := url.Values{}
	query.Set("apikey", s.apiKey)

	requestURL := fmt.Sprintf("%s/api/v3/quote/%s?%s", s.baseURL, strings.Join(escaped, ","), query.Encode())

	items, err := netops.GetJSON[[]fmpQuote](ctx, s.client, requestURL, nil)
	if err != nil {
		zap.L().Warn("fetch batch quotes failed",
			zap.Error(err),
			zap.String("source", s.Name()),
			zap.Int("symbols", len(symbols)))
		return nil, err
	}

	result := make(map[string]quotes.Quote, len(items))
	for _, item := range items {
		symbol := quotes.NormalizeSymbol(item.Symbol)
		if symbol == "" {
			continue
		}

		result[symbol] = item.toQuote()
	}

	return result, nil
}

// Quote fetch one symbol through the same quote endpoint
func (s FinancialModelingPrep) Quote(ctx context.Context, symbol string) (quotes.Quote, error) {
	batch, err := s.Quotes(ctx, []string{symbol})
	if err != nil {
		return quotes.Quote{}, err
	}

	quote, ok := batch[quotes.NormalizeSymbol(symbol)]
	if !ok {
		return quotes.Quote{}, constants.ErrNoQuote
	}

	return quote, nil
}

// fmpQuote define a quote endpoint response item
type fmpQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previousClose"`
	MarketCap     float64 `json:"marketCap"`
}

// toQuote convert response item to a canonical quote
func (q fmpQuote) toQuote() quotes.Quote {
	return quotes.Quote{
		CurrentPrice:   q.Price,
		PreviousClose:  q.PreviousClose,
		MarketCapUnits: quotes.ScaleMarketCap(q.MarketCap, constants.MarketCapScale),
		Name:           q.Name,
	}
}
