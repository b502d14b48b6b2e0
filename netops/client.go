package netops

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/njkim/stocksync/constants"
	"go.uber.org/zap"
)

// Client http get transport with bounded retry. Backoff doubles per attempt
// with jitter and honors a server supplied Retry-After hint. Components never
// re-implement retry on top of it.
type Client struct {
	client        *http.Client
	retryCount    int
	retryInterval time.Duration
}

// NewClient create a transport with retry count and base retry interval
func NewClient(retryCount int, retryInterval time.Duration) *Client {
	if retryCount <= 0 {
		retryCount = constants.RetryCount
	}

	if retryInterval <= 0 {
		retryInterval = constants.RetryBaseInterval
	}

	return &Client{
		client:        &http.Client{Timeout: constants.RequestTimeout},
		retryCount:    retryCount,
		retryInterval: retryInterval,
	}
}

// Get download url. Connection failures and retryable statuses (429, 500,
// 502, 503, 504) are retried up to the budget, any other status returns
// immediately with a nil error so callers can treat it as a provider miss.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	var (
		code int
		body []byte
		hint time.Duration
		err  error
	)

	for attempt := 1; attempt <= c.retryCount; attempt++ {
		if err = ctx.Err(); err != nil {
			return 0, nil, err
		}

		if attempt > 1 {
			time.Sleep(c.backoff(attempt-1, hint))
		}

		code, body, hint, err = c.getOnce(ctx, url, headers)
		if err != nil {
			zap.L().Warn("get request failed",
				zap.Error(err),
				zap.String("url", url),
				zap.Int("attempt", attempt))
			continue
		}

		if !retryable(code) {
			return code, body, nil
		}

		zap.L().Warn("get request got retryable status",
			zap.Int("code", code),
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("hint", hint))
	}

	if err != nil {
		return 0, nil, fmt.Errorf("get failed after %d attempts: %w", c.retryCount, err)
	}

	return code, body, fmt.Errorf("get failed after %d attempts: status %d", c.retryCount, code)
}

func (c *Client) getOnce(ctx context.Context, url string, headers map[string]string) (int, []byte, time.Duration, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		zap.L().Warn("create http request failed", zap.Error(err), zap.String("url", url))
		return 0, nil, 0, err
	}

	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return 0, nil, 0, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		zap.L().Warn("read http response body failed", zap.Error(err), zap.String("url", url))
		return 0, nil, 0, err
	}

	return response.StatusCode, body, retryAfter(response.Header.Get("Retry-After")), nil
}

// backoff delay before the given retry, doubling from the base interval with
// jitter. A server hint wins when larger, clamped to the max interval.
func (c *Client) backoff(retry int, hint time.Duration) time.Duration {
	delay := c.retryInterval << (retry - 1)
	if delay <= 0 || delay > constants.RetryMaxInterval {
		delay = constants.RetryMaxInterval
	}

	delay += time.Duration(rand.Int63n(int64(delay/2) + 1))

	if hint > constants.RetryMaxInterval {
		hint = constants.RetryMaxInterval
	}

	if hint > delay {
		delay = hint
	}

	return delay
}

// retryable report whether the status is worth another attempt
func retryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// retryAfter parse a Retry-After header holding either seconds or a http date
func retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	seconds, err := strconv.Atoi(value)
	if err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0
	}

	delay := time.Until(at)
	if delay < 0 {
		return 0
	}

	return delay
}
