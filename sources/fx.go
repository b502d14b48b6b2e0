package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/netops"
	"go.uber.org/zap"
)

// ForexSource financialmodelingprep forex rate source. The v4 last-tick
// endpoint is preferred, the v3 listing endpoint is the fallback.
type ForexSource struct {
	client  *netops.Client
	baseURL string
	apiKey  string
}

// NewForexSource create forex rate source
func NewForexSource(client *netops.Client, baseURL, apiKey string) *ForexSource {
	return &ForexSource{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Rate fetch the current rate for a currency pair like USDKRW
func (s ForexSource) Rate(ctx context.Context, pair string) (float64, error) {
	query := url.Values{}
	query.Set("apikey", s.apiKey)

	endpoints := []string{
		fmt.Sprintf("%s/api/v4/forex/last/%s?%s", s.baseURL, url.PathEscape(pair), query.Encode()),
		fmt.Sprintf("%s/api/v3/forex/%s?%s", s.baseURL, url.PathEscape(pair), query.Encode()),
	}

	for _, endpoint := range endpoints {
		code, body, err := s.client.Get(ctx, endpoint, nil)
		if err != nil {
			zap.L().Warn("fetch forex rate failed", zap.Error(err), zap.String("pair", pair))
			continue
		}

		if code != http.StatusOK {
			zap.L().Warn("fetch forex rate got unexpected status",
				zap.Int("code", code),
				zap.String("pair", pair))
			continue
		}

		for _, tick := range decodeTicks(body) {
			if rate := tick.rate(); rate > 0 {
				return rate, nil
			}
		}
	}

	return 0, constants.ErrNoRate
}

// fxTick define a forex response in either endpoint shape. Some endpoints
// encode numbers as strings, flexFloat accepts both.
type fxTick struct {
	Price        flexFloat `json:"price"`
	Rate         flexFloat `json:"rate"`
	ExchangeRate flexFloat `json:"exchangeRate"`
	Bid          flexFloat `json:"bid"`
	Ask          flexFloat `json:"ask"`
}

// rate extract the rate with an explicit precedence: price, rate,
// exchangeRate, mid of bid/ask, bid, ask
func (t fxTick) rate() float64 {
	switch {
	case t.Price > 0:
		return float64(t.Price)
	case t.Rate > 0:
		return float64(t.Rate)
	case t.ExchangeRate > 0:
		return float64(t.ExchangeRate)
	case t.Bid > 0 && t.Ask > 0:
		return float64(t.Bid+t.Ask) / 2
	case t.Bid > 0:
		return float64(t.Bid)
	case t.Ask > 0:
		return float64(t.Ask)
	default:
		return 0
	}
}

// decodeTicks decode a response holding either a tick array or a single tick
func decodeTicks(body []byte) []fxTick {
	var ticks []fxTick
	if err := sonic.ConfigFastest.Unmarshal(body, &ticks); err == nil {
		return ticks
	}

	var tick fxTick
	if err := sonic.ConfigFastest.Unmarshal(body, &tick); err == nil {
		return []fxTick{tick}
	}

	zap.L().Warn("unmarshal forex response failed", zap.ByteString("body", body))
	return nil
}

// flexFloat accept json numbers encoded either bare or as strings. Unparsable
// values decode to zero, meaning no data.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*f = 0
		return nil
	}

	*f = flexFloat(value)
	return nil
}
