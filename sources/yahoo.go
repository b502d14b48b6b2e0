package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/netops"
	"github.com/njkim/stocksync/quotes"
	"go.uber.org/zap"
)

// yahooNotFoundCode define the error code yahoo finance raises on an unknown symbol
const yahooNotFoundCode = "Not Found"

// yahoo rejects requests without a browser user agent
const yahooUserAgent = "Mozilla/5.0"

// YahooFinance yahoo finance chart source. The chart endpoint carries no
// market cap or display name, so its quotes are partial and only useful as a
// fallback behind a richer source.
type YahooFinance struct {
	client  *netops.Client
	baseURL string
}

// NewYahooFinance create yahoo finance source
func NewYahooFinance(client *netops.Client, baseURL string) *YahooFinance {
	return &YahooFinance{
		client:  client,
		baseURL: baseURL,
	}
}

// Name get source name
func (s YahooFinance) Name() string {
	return "yahoo"
}

// Quote fetch one symbol quote from the chart endpoint
func (s YahooFinance) Quote(ctx context.Context, symbol string) (quotes.Quote, error) {
	requestURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=2d", s.baseURL, url.PathEscape(symbol))

	header := map[string]string{"User-Agent": yahooUserAgent}
	response, err := netops.GetJSON[YahooChart](ctx, s.client, requestURL, header)
	if err != nil {
		zap.L().Warn("fetch yahoo chart failed", zap.Error(err), zap.String("symbol", symbol))
		return quotes.Quote{}, err
	}

	err = response.Validate()
	if err != nil {
		if errors.Is(err, constants.ErrNoQuote) {
			zap.L().Info("yahoo has no data for symbol", zap.String("symbol", symbol))
			return quotes.Quote{}, err
		}

		// malformed payload counts as no data
		zap.L().Warn("yahoo chart validate failed", zap.Error(err), zap.String("symbol", symbol))
		return quotes.Quote{}, constants.ErrNoQuote
	}

	quote := response.ToQuote()
	if quote.CurrentPrice <= 0 && quote.PreviousClose <= 0 {
		return quotes.Quote{}, constants.ErrNoQuote
	}

	return quote, nil
}

// YahooChart define yahoo finance chart response structure
type YahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quotes []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Err *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Validate validate response is usable
func (q YahooChart) Validate() error {
	if q.Chart.Err != nil {
		if q.Chart.Err.Code == yahooNotFoundCode {
			return constants.ErrNoQuote
		}

		return errors.New(q.Chart.Err.Description)
	}

	if len(q.Chart.Result) == 0 {
		return errors.New("chart.Result is null")
	}

	return nil
}

// ToQuote convert chart response to a partial quote. A missing meta price is
// backfilled from the last non zero close bar.
func (q YahooChart) ToQuote() quotes.Quote {
	result := q.Chart.Result[0]

	quote := quotes.Quote{
		CurrentPrice:  result.Meta.RegularMarketPrice,
		PreviousClose: result.Meta.PreviousClose,
	}

	if quote.PreviousClose <= 0 {
		quote.PreviousClose = result.Meta.ChartPreviousClose
	}

	if quote.CurrentPrice <= 0 && len(result.Indicators.Quotes) > 0 {
		closes := result.Indicators.Quotes[0].Close
		for index := len(closes) - 1; index >= 0; index-- {
			if closes[index] > 0 {
				quote.CurrentPrice = closes[index]
				break
			}
		}
	}

	return quote
}
