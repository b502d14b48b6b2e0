package netops

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/njkim/stocksync/constants"
	"go.uber.org/zap"
)

// GetJSON download url and decode the json response body
func GetJSON[T any](ctx context.Context, client *Client, url string, headers map[string]string) (T, error) {
	response := new(T)

	code, body, err := client.Get(ctx, url, headers)
	if err != nil {
		return *response, err
	}

	if code != http.StatusOK {
		zap.S().Warnw("unexpected status code", "statusCode", code, "url", url)
		return *response, fmt.Errorf("%w (%d) %s", constants.ErrUnexpectedStatusCode, code, http.StatusText(code))
	}

	err = sonic.ConfigFastest.Unmarshal(body, response)
	if err != nil {
		zap.S().Warnw("failed to unmarshal response", "error", err, "url", url)
		return *response, err
	}

	return *response, nil
}
