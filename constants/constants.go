package constants

import "time"

const (
	// RetryCount define max attempts per http request
	RetryCount = 5
	// RetryBaseInterval define first backoff delay, doubles per attempt
	RetryBaseInterval = time.Millisecond * 500
	// RetryMaxInterval define backoff delay ceiling
	RetryMaxInterval = time.Second * 30
	// RequestTimeout define timeout of a single http attempt
	RequestTimeout = time.Second * 10
	// DefaultChunkSize define symbol count per batch request
	DefaultChunkSize = 40
	// DefaultChunkInterval define delay between batch dispatches
	DefaultChunkInterval = time.Second
	// DefaultSweepInterval define delay before each single symbol attempt
	DefaultSweepInterval = time.Millisecond * 300
	// MarketCapScale define market cap divisor (hundred million units)
	MarketCapScale = 100_000_000
)
